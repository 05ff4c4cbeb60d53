package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gitzen/gitzen/internal/fingerprint"
	"github.com/gitzen/gitzen/internal/lifecycle"
	"github.com/gitzen/gitzen/internal/types"
)

func sampleDoc() *types.MetadataDocument {
	fs := []types.SanitizedFinding{
		{FilePath: "b.go", LineNumber: 7, SecretType: "generic-api-key", Severity: types.SevLow, SecretHash: fingerprint.TaggedHash("x"), FindingID: "id1", MatchFingerprint: "m1"},
		{FilePath: "a.go", LineNumber: 0, SecretType: "aws-access-key", Severity: types.SevCritical, SecretHash: fingerprint.TaggedHash("y"), FindingID: "id2", MatchFingerprint: "m2"},
	}
	return &types.MetadataDocument{
		Version:     "1.0.0",
		ScanContext: types.ScanContext{Repository: "org/repo", Branch: "main", CommitHash: "0123456789abcdef", ExtractorVersion: "1.0.0"},
		Findings:    fs,
		Summary: types.Summary{
			TotalFindings: 2,
			BySeverity:    types.SeverityCounts{Critical: 1, Low: 1},
			BySecretType:  map[string]int{"aws-access-key": 1, "generic-api-key": 1},
			UniqueFiles:   2,
		},
	}
}

func TestPrintTable_WithFindings(t *testing.T) {
	var buf bytes.Buffer
	doc := sampleDoc()
	require.NoError(t, PrintTable(&buf, doc, PrintOptions{NoColor: true}))
	out := buf.String()
	if !strings.Contains(strings.ToUpper(out), "SEVERITY") {
		t.Fatalf("expected table header with SEVERITY; got: %q", out)
	}
	assert.Contains(t, out, "aws-access-key")
	assert.Contains(t, out, "a.go:0")
	assert.Contains(t, out, "01234567")
	assert.Contains(t, out, "critical: 1")
	assert.NotContains(t, out, fingerprint.TaggedHash("y"), "full hash is abbreviated")
	assert.Less(t, strings.Index(out, "aws-access-key"), strings.Index(out, "generic-api-key"), "critical sorts first")
	assert.Equal(t, "b.go", doc.Findings[0].FilePath, "input order untouched")
}

func TestPrintTable_NoFindings_ShowsFooter(t *testing.T) {
	var buf bytes.Buffer
	doc := &types.MetadataDocument{ScanContext: types.ScanContext{Repository: "org/repo"}}
	require.NoError(t, PrintTable(&buf, doc, PrintOptions{Duration: 1200 * time.Millisecond, Suppressed: 3}))
	out := buf.String()
	assert.Contains(t, out, "No secrets found")
	assert.Contains(t, out, "Suppressed: 3")
	assert.Contains(t, out, "Duration: 1.20s")
}

func TestWriteSARIF(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteSARIF(&buf, sampleDoc()))

	var out struct {
		Version string `json:"version"`
		Runs    []struct {
			Tool struct {
				Driver struct {
					Rules []struct {
						ID string `json:"id"`
					} `json:"rules"`
				} `json:"driver"`
			} `json:"tool"`
			Results []struct {
				RuleID    string `json:"ruleId"`
				RuleIndex int    `json:"ruleIndex"`
				Level     string `json:"level"`
				Locations []struct {
					PhysicalLocation struct {
						Region struct {
							StartLine int `json:"startLine"`
						} `json:"region"`
					} `json:"physicalLocation"`
				} `json:"locations"`
				PartialFingerprints map[string]string `json:"partialFingerprints"`
			} `json:"results"`
		} `json:"runs"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.Equal(t, "2.1.0", out.Version)
	require.Len(t, out.Runs, 1)
	run := out.Runs[0]
	require.Len(t, run.Tool.Driver.Rules, 2)
	assert.Equal(t, "aws-access-key", run.Tool.Driver.Rules[0].ID)
	require.Len(t, run.Results, 2)

	res := run.Results[1]
	assert.Equal(t, "aws-access-key", res.RuleID)
	assert.Equal(t, 0, res.RuleIndex)
	assert.Equal(t, "error", res.Level)
	assert.Equal(t, 1, res.Locations[0].PhysicalLocation.Region.StartLine)
	assert.Equal(t, "id2", res.PartialFingerprints["gitzenFindingId/v1"])
	assert.Equal(t, "note", run.Results[0].Level)
}

func TestShouldFail(t *testing.T) {
	fs := []types.SanitizedFinding{{Severity: types.SevLow}, {Severity: types.SevHigh}}
	tests := []struct {
		failOn string
		want   bool
	}{
		{"critical", false},
		{"high", true},
		{"medium", true},
		{"low", true},
		{"", true},
		{"none", false},
		{"Critical", false},
		{"CRITICAL", false},
		{" High ", true},
		{"OFF", false},
	}
	for _, tt := range tests {
		t.Run(tt.failOn, func(t *testing.T) {
			assert.Equal(t, tt.want, ShouldFail(fs, tt.failOn))
		})
	}
	assert.False(t, ShouldFail(nil, "info"))
	assert.False(t, ShouldFail([]types.SanitizedFinding{{Severity: types.SevLow}}, ""))
}

func TestParseFailOn(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"critical", "critical", false},
		{"Critical", "critical", false},
		{" HIGH ", "high", false},
		{"info", "info", false},
		{"none", "none", false},
		{"Off", "none", false},
		{"crtical", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFailOn(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
	medium := []types.SanitizedFinding{{Severity: types.SevMed}}
	th, err := ParseFailOn("Critical")
	require.NoError(t, err)
	assert.False(t, ShouldFail(medium, th))
}

func TestWriteLifecycle(t *testing.T) {
	doc := sampleDoc()
	rep := lifecycle.Diff(doc.Findings[:1], doc.Findings[1:], lifecycle.KeyMatch)

	var buf bytes.Buffer
	require.NoError(t, WriteLifecycle(&buf, rep, FormatText))
	assert.Contains(t, buf.String(), "New: 1  Resolved: 1  Persistent: 0")

	buf.Reset()
	require.NoError(t, WriteLifecycle(&buf, rep, FormatMarkdown))
	assert.Contains(t, buf.String(), "| 1 | 1 | 0 |")
	assert.Contains(t, buf.String(), "#### Resolved")

	buf.Reset()
	require.NoError(t, WriteLifecycle(&buf, rep, FormatJSON))
	var back lifecycle.Report
	require.NoError(t, json.Unmarshal(buf.Bytes(), &back))
	assert.Equal(t, rep.Counts, back.Counts)

	assert.Error(t, WriteLifecycle(&buf, rep, "xml"))
}
