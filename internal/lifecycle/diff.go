// Package lifecycle classifies findings as new, resolved or persistent
// between two scans of the same repository.
//
// Only sanitized findings can be diffed; a report built here never carries
// more than a MetadataDocument already does.
package lifecycle

import (
	"errors"
	"fmt"

	semver "github.com/blang/semver/v4"

	"github.com/gitzen/gitzen/internal/types"
)

// Key selects which fingerprint identifies a finding across scans.
type Key string

const (
	// KeyMatch keys on match_fingerprint (path, line, rule). A secret that
	// stays put across commits is persistent. This is the default.
	KeyMatch Key = "match"
	// KeyFindingID keys on finding_id, which includes the commit, so every
	// new commit reports its findings as new. Use for per-commit identity.
	KeyFindingID Key = "finding_id"
)

var ErrIncompatible = errors.New("documents cannot be compared")

// ParseKey accepts "match" (also "narrow", "") or "finding_id" (also "broad").
func ParseKey(s string) (Key, error) {
	switch s {
	case "", "match", "match_fingerprint", "narrow":
		return KeyMatch, nil
	case "finding_id", "id", "broad":
		return KeyFindingID, nil
	}
	return "", fmt.Errorf("unknown diff key %q (want match|finding_id)", s)
}

func (k Key) of(f types.SanitizedFinding) string {
	if k == KeyFindingID {
		return f.FindingID
	}
	return f.MatchFingerprint
}

// Counts mirrors the lengths of the three sets.
type Counts struct {
	New        int `json:"new"`
	Resolved   int `json:"resolved"`
	Persistent int `json:"persistent"`
}

// Report is the partition of two finding sets. New and Persistent hold
// findings from the current scan, Resolved holds findings from the previous.
type Report struct {
	Key        Key                      `json:"key"`
	New        []types.SanitizedFinding `json:"new"`
	Resolved   []types.SanitizedFinding `json:"resolved"`
	Persistent []types.SanitizedFinding `json:"persistent"`
	Counts     Counts                   `json:"counts"`
}

// Diff partitions current and previous by key in O(n+m). Input order is
// preserved within each set. Findings sharing a key on the same side are
// classified together.
func Diff(current, previous []types.SanitizedFinding, key Key) *Report {
	if key == "" {
		key = KeyMatch
	}
	prevKeys := make(map[string]struct{}, len(previous))
	for _, f := range previous {
		prevKeys[key.of(f)] = struct{}{}
	}
	curKeys := make(map[string]struct{}, len(current))
	for _, f := range current {
		curKeys[key.of(f)] = struct{}{}
	}

	r := &Report{
		Key:        key,
		New:        []types.SanitizedFinding{},
		Resolved:   []types.SanitizedFinding{},
		Persistent: []types.SanitizedFinding{},
	}
	for _, f := range current {
		if _, ok := prevKeys[key.of(f)]; ok {
			r.Persistent = append(r.Persistent, f)
		} else {
			r.New = append(r.New, f)
		}
	}
	for _, f := range previous {
		if _, ok := curKeys[key.of(f)]; !ok {
			r.Resolved = append(r.Resolved, f)
		}
	}
	r.Counts = Counts{New: len(r.New), Resolved: len(r.Resolved), Persistent: len(r.Persistent)}
	return r
}

// DiffDocuments diffs two documents of the same repository. A nil previous
// document is the first scan ever: everything is new.
func DiffDocuments(current, previous *types.MetadataDocument, key Key) (*Report, error) {
	if current == nil {
		return nil, fmt.Errorf("%w: current document is nil", ErrIncompatible)
	}
	if previous == nil {
		return Diff(current.Findings, nil, key), nil
	}
	if a, b := current.ScanContext.FullName(), previous.ScanContext.FullName(); a != b {
		return nil, fmt.Errorf("%w: repository %q vs %q", ErrIncompatible, a, b)
	}
	if err := Compatible(current.Version, previous.Version); err != nil {
		return nil, err
	}
	return Diff(current.Findings, previous.Findings, key), nil
}

// Compatible reports whether documents written with versions a and b hash
// and fingerprint the same way, i.e. share a major version.
func Compatible(a, b string) error {
	va, err := semver.ParseTolerant(a)
	if err != nil {
		return fmt.Errorf("%w: version %q: %v", ErrIncompatible, a, err)
	}
	vb, err := semver.ParseTolerant(b)
	if err != nil {
		return fmt.Errorf("%w: version %q: %v", ErrIncompatible, b, err)
	}
	if va.Major != vb.Major {
		return fmt.Errorf("%w: version %s vs %s", ErrIncompatible, va, vb)
	}
	return nil
}
