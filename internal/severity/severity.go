package severity

import (
	"fmt"
	"strings"

	"github.com/gitzen/gitzen/internal/types"
)

// Default is returned when no tag names a severity.
const Default = types.SevMed

// classified is the tie-break order: the first level present in the tag set
// wins, so ["low","critical"] is critical.
var classified = []types.Severity{types.SevCritical, types.SevHigh, types.SevMed, types.SevLow}

// Classify maps a finding's tags to a severity. Tags are compared
// case-insensitively and may carry a "severity:" prefix.
func Classify(tags []string) types.Severity {
	if len(tags) == 0 {
		return Default
	}
	present := make(map[string]bool, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		t = strings.TrimPrefix(t, "severity:")
		present[strings.TrimSpace(t)] = true
	}
	for _, s := range classified {
		if present[string(s)] {
			return s
		}
	}
	return Default
}

// Rank orders the full scale; higher is more severe. Unknown values rank 0.
func Rank(s types.Severity) int {
	switch s {
	case types.SevCritical:
		return 5
	case types.SevHigh:
		return 4
	case types.SevMed:
		return 3
	case types.SevLow:
		return 2
	case types.SevInfo:
		return 1
	}
	return 0
}

// Parse validates a user-supplied severity name (e.g. a --fail-on value).
func Parse(s string) (types.Severity, error) {
	v := types.Severity(strings.ToLower(strings.TrimSpace(s)))
	if Rank(v) == 0 {
		return "", fmt.Errorf("unknown severity %q (want critical|high|medium|low|info)", s)
	}
	return v, nil
}
