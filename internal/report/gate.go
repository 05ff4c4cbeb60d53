package report

import (
	"fmt"
	"strings"

	"github.com/gitzen/gitzen/internal/severity"
	"github.com/gitzen/gitzen/internal/types"
)

// FailNone disables the gate.
const FailNone = "none"

// ParseFailOn normalizes a --fail-on value: a severity name in any case,
// or "none"/"off". Anything else is an error.
func ParseFailOn(s string) (string, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	if v == FailNone || v == "off" {
		return FailNone, nil
	}
	sev, err := severity.Parse(v)
	if err != nil {
		return "", fmt.Errorf("invalid fail-on threshold: %w", err)
	}
	return string(sev), nil
}

// ShouldFail reports whether any finding is at or above failOn, compared
// case-insensitively. An empty threshold means medium; "none" never fails.
// Callers should reject unknown thresholds with ParseFailOn first; here they
// also fall back to medium.
func ShouldFail(findings []types.SanitizedFinding, failOn string) bool {
	v := strings.ToLower(strings.TrimSpace(failOn))
	if v == FailNone || v == "off" {
		return false
	}
	th := severity.Rank(types.Severity(v))
	if th == 0 {
		th = severity.Rank(severity.Default)
	}
	for _, f := range findings {
		if severity.Rank(f.Severity) >= th {
			return true
		}
	}
	return false
}
