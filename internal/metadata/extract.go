// Package metadata turns raw scanner findings into the sanitized
// MetadataDocument that is stored and compared across scans.
//
// Extraction is a pure function of its inputs: the same findings and
// ScanContext always yield a byte-identical document once serialized.
package metadata

import (
	"errors"
	"fmt"

	"github.com/gitzen/gitzen/internal/fingerprint"
	"github.com/gitzen/gitzen/internal/severity"
	"github.com/gitzen/gitzen/internal/types"
)

const (
	// DocumentVersion is the schema version written into every document.
	// Bump the major when hashing or fingerprint inputs change.
	DocumentVersion = "1.0.0"
	// ExtractorVersion is recorded in the scan context when the caller
	// does not supply one.
	ExtractorVersion = "1.0.0"
)

var (
	ErrMalformedFinding = errors.New("malformed finding")
	ErrInvalidContext   = errors.New("invalid scan context")
)

// MalformedFindingError identifies the rejected finding by position and
// field name only; the finding's values are never included.
type MalformedFindingError struct {
	Index int
	Field string
}

func (e *MalformedFindingError) Error() string {
	return fmt.Sprintf("finding %d: missing required field %q", e.Index, e.Field)
}

func (e *MalformedFindingError) Unwrap() error { return ErrMalformedFinding }

// Extract sanitizes raw and aggregates it with sc into a document. An empty
// input is a clean scan, not an error. A finding without a file path or rule
// id rejects the whole extraction.
func Extract(raw []types.RawFinding, sc types.ScanContext) (*types.MetadataDocument, error) {
	ctx, err := normalizeContext(sc)
	if err != nil {
		return nil, err
	}

	findings := make([]types.SanitizedFinding, 0, len(raw))
	for i := range raw {
		f, err := Sanitize(raw[i])
		if err != nil {
			var mf *MalformedFindingError
			if errors.As(err, &mf) {
				mf.Index = i
			}
			return nil, err
		}
		findings = append(findings, f)
	}

	return &types.MetadataDocument{
		Version:     DocumentVersion,
		ScanContext: ctx,
		Findings:    findings,
		Summary:     Summarize(findings),
	}, nil
}

// Sanitize converts a single raw finding. The returned error, if any, is a
// *MalformedFindingError with Index 0.
func Sanitize(r types.RawFinding) (types.SanitizedFinding, error) {
	if r.File == "" {
		return types.SanitizedFinding{}, &MalformedFindingError{Field: "file_path"}
	}
	if r.RuleID == "" {
		return types.SanitizedFinding{}, &MalformedFindingError{Field: "rule_id"}
	}

	line := r.StartLine
	if line < 0 {
		line = 0
	}
	tags := make([]string, len(r.Tags))
	copy(tags, r.Tags)

	authorHash := ""
	if r.Email != "" {
		authorHash = fingerprint.Hash(r.Email)
	}

	return types.SanitizedFinding{
		FindingID:        fingerprint.FindingID(r.File, line, r.RuleID, r.Commit),
		FilePath:         r.File,
		LineNumber:       line,
		EndLine:          r.EndLine,
		ColumnStart:      r.StartColumn,
		ColumnEnd:        r.EndColumn,
		CommitHash:       r.Commit,
		AuthorHash:       authorHash,
		SecretType:       r.RuleID,
		SecretHash:       fingerprint.TaggedHash(r.Secret),
		Entropy:          r.Entropy,
		Severity:         severity.Classify(r.Tags),
		Tags:             tags,
		MatchFingerprint: fingerprint.MatchFingerprint(r.File, line, r.RuleID),
	}, nil
}

func normalizeContext(sc types.ScanContext) (types.ScanContext, error) {
	if sc.Repository == "" {
		return sc, fmt.Errorf("%w: repository is required", ErrInvalidContext)
	}
	trig, err := types.ParseTrigger(string(sc.Trigger))
	if err != nil {
		return sc, fmt.Errorf("%w: %v", ErrInvalidContext, err)
	}
	sc.Trigger = trig
	if sc.PRNumber != nil {
		n := *sc.PRNumber
		if n <= 0 {
			return sc, fmt.Errorf("%w: pr_number must be positive", ErrInvalidContext)
		}
		sc.PRNumber = &n
	}
	if sc.ExtractorVersion == "" {
		sc.ExtractorVersion = ExtractorVersion
	}
	sc.ScanTimestamp = sc.ScanTimestamp.UTC()
	return sc, nil
}
