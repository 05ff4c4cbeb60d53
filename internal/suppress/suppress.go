// Package suppress filters accepted false positives out of a sanitized
// finding list.
package suppress

import (
	"fmt"
	"os"
	"strings"

	doublestar "github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"

	"github.com/gitzen/gitzen/internal/types"
)

// Rule matches a finding when every non-empty field matches. SecretHash is
// compared against the tagged secret_hash; a bare hex digest is accepted.
type Rule struct {
	SecretType string `yaml:"secret_type,omitempty"`
	SecretHash string `yaml:"secret_hash,omitempty"`
	Path       string `yaml:"path,omitempty"`
	Reason     string `yaml:"reason,omitempty"`
}

type file struct {
	Suppressions []Rule `yaml:"suppressions"`
}

// Set is an ordered list of rules. A nil Set suppresses nothing.
type Set struct {
	Rules []Rule
}

// Load reads a suppressions file. A missing file yields an empty set.
func Load(path string) (*Set, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Set{}, nil
		}
		return nil, err
	}
	return Parse(b)
}

// Parse decodes YAML of the form:
//
//	suppressions:
//	  - secret_type: generic-api-key
//	    path: "test/**"
//	    reason: fixtures
func Parse(b []byte) (*Set, error) {
	var f file
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("parse suppressions: %w", err)
	}
	for i, r := range f.Suppressions {
		if r.SecretType == "" && r.SecretHash == "" && r.Path == "" {
			return nil, fmt.Errorf("suppression %d: at least one of secret_type, secret_hash, path is required", i)
		}
		if r.Path != "" && !doublestar.ValidatePattern(r.Path) {
			return nil, fmt.Errorf("suppression %d: invalid path pattern %q", i, r.Path)
		}
		if r.SecretHash != "" && !strings.Contains(r.SecretHash, ":") {
			f.Suppressions[i].SecretHash = "sha256:" + strings.ToLower(r.SecretHash)
		}
	}
	return &Set{Rules: f.Suppressions}, nil
}

// Match reports whether r applies to f.
func (r Rule) Match(f types.SanitizedFinding) bool {
	if r.SecretType != "" && r.SecretType != f.SecretType {
		return false
	}
	if r.SecretHash != "" && r.SecretHash != f.SecretHash {
		return false
	}
	if r.Path != "" {
		ok, _ := doublestar.Match(r.Path, f.FilePath)
		if !ok {
			return false
		}
	}
	return true
}

// Filter splits findings into kept and suppressed, preserving order. Both
// slices are non-nil.
func (s *Set) Filter(findings []types.SanitizedFinding) (kept, suppressed []types.SanitizedFinding) {
	kept = make([]types.SanitizedFinding, 0, len(findings))
	suppressed = []types.SanitizedFinding{}
	for _, f := range findings {
		if s.matches(f) {
			suppressed = append(suppressed, f)
		} else {
			kept = append(kept, f)
		}
	}
	return kept, suppressed
}

func (s *Set) matches(f types.SanitizedFinding) bool {
	if s == nil {
		return false
	}
	for _, r := range s.Rules {
		if r.Match(f) {
			return true
		}
	}
	return false
}

// Len returns the number of rules.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Rules)
}
