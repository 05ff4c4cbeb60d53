package gitleaks

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/gitzen/gitzen/internal/types"
)

// GitleaksFinding represents Gitleaks JSON output format.
type GitleaksFinding struct {
	Description string   `json:"Description"`
	RuleID      string   `json:"RuleID"`
	Match       string   `json:"Match"`
	Secret      string   `json:"Secret"`
	StartLine   int      `json:"StartLine"`
	EndLine     int      `json:"EndLine"`
	StartColumn int      `json:"StartColumn"`
	EndColumn   int      `json:"EndColumn"`
	File        string   `json:"File"`
	Commit      string   `json:"Commit"`
	Entropy     float64  `json:"Entropy,omitempty"`
	Author      string   `json:"Author,omitempty"`
	Email       string   `json:"Email,omitempty"`
	Date        string   `json:"Date,omitempty"`
	Message     string   `json:"Message,omitempty"`
	Tags        []string `json:"Tags,omitempty"`
	Fingerprint string   `json:"Fingerprint,omitempty"`
}

func (g GitleaksFinding) raw() types.RawFinding {
	return types.RawFinding{
		File:        g.File,
		StartLine:   g.StartLine,
		EndLine:     g.EndLine,
		StartColumn: g.StartColumn,
		EndColumn:   g.EndColumn,
		RuleID:      g.RuleID,
		Secret:      g.Secret,
		Match:       g.Match,
		Commit:      g.Commit,
		Email:       g.Email,
		Author:      g.Author,
		Entropy:     g.Entropy,
		Tags:        g.Tags,
		Description: g.Description,
	}
}

// ParseReport decodes a gitleaks JSON report. Empty input and a literal null
// both mean no findings. Decode errors never quote the input.
func ParseReport(r io.Reader) ([]types.RawFinding, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read gitleaks report: %w", err)
	}
	return ParseReportBytes(data)
}

func ParseReportBytes(data []byte) ([]types.RawFinding, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return []types.RawFinding{}, nil
	}
	var gf []GitleaksFinding
	if err := json.Unmarshal(data, &gf); err != nil {
		return nil, fmt.Errorf("failed to parse gitleaks JSON output: %s", describeJSONError(err))
	}
	out := make([]types.RawFinding, 0, len(gf))
	for _, f := range gf {
		out = append(out, f.raw())
	}
	return out, nil
}

// describeJSONError strips anything the decoder may have echoed from the
// input, keeping only the position and expected type.
func describeJSONError(err error) string {
	switch e := err.(type) {
	case *json.SyntaxError:
		return fmt.Sprintf("syntax error at offset %d", e.Offset)
	case *json.UnmarshalTypeError:
		return fmt.Sprintf("field %q: expected %s at offset %d", e.Field, e.Type, e.Offset)
	}
	return "invalid report"
}
