package report

import (
	"encoding/json"
	"io"
	"sort"

	"github.com/gitzen/gitzen/internal/types"
)

type sarif struct {
	Schema  string     `json:"$schema"`
	Version string     `json:"version"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool       sarifTool      `json:"tool"`
	Results    []sarifResult  `json:"results"`
	Properties map[string]any `json:"properties,omitempty"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name    string      `json:"name"`
	Version string      `json:"version"`
	Rules   []sarifRule `json:"rules"`
}

type sarifRule struct {
	ID               string       `json:"id"`
	ShortDescription sarifMessage `json:"shortDescription"`
}

type sarifResult struct {
	RuleID              string            `json:"ruleId"`
	RuleIndex           int               `json:"ruleIndex"`
	Level               string            `json:"level"`
	Message             sarifMessage      `json:"message"`
	Locations           []sarifLoc        `json:"locations"`
	PartialFingerprints map[string]string `json:"partialFingerprints"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

type sarifLoc struct {
	PhysicalLocation sarifPhys `json:"physicalLocation"`
}

type sarifPhys struct {
	ArtifactLocation sarifArt    `json:"artifactLocation"`
	Region           sarifRegion `json:"region"`
}

type sarifArt struct {
	URI string `json:"uri"`
}

type sarifRegion struct {
	StartLine   int `json:"startLine"`
	EndLine     int `json:"endLine,omitempty"`
	StartColumn int `json:"startColumn,omitempty"`
	EndColumn   int `json:"endColumn,omitempty"`
}

func sevToLevel(s types.Severity) string {
	switch s {
	case types.SevCritical, types.SevHigh:
		return "error"
	case types.SevMed:
		return "warning"
	default:
		return "note"
	}
}

// WriteSARIF writes the document's findings as SARIF 2.1.0. Only sanitized
// fields are used; SARIF requires startLine >= 1, so the unknown-line
// sentinel 0 is reported as line 1.
func WriteSARIF(w io.Writer, doc *types.MetadataDocument) error {
	ruleIdx := map[string]int{}
	var ids []string
	for _, f := range doc.Findings {
		if _, ok := ruleIdx[f.SecretType]; !ok {
			ruleIdx[f.SecretType] = 0
			ids = append(ids, f.SecretType)
		}
	}
	sort.Strings(ids)
	rules := make([]sarifRule, len(ids))
	for i, id := range ids {
		ruleIdx[id] = i
		rules[i] = sarifRule{ID: id, ShortDescription: sarifMessage{Text: id}}
	}

	run := sarifRun{
		Tool: sarifTool{Driver: sarifDriver{
			Name:    "gitzen",
			Version: doc.ScanContext.ExtractorVersion,
			Rules:   rules,
		}},
		Results: []sarifResult{},
		Properties: map[string]any{
			"repository":      doc.ScanContext.FullName(),
			"branch":          doc.ScanContext.Branch,
			"commitHash":      doc.ScanContext.CommitHash,
			"documentVersion": doc.Version,
		},
	}
	for _, f := range doc.Findings {
		line := f.LineNumber
		if line < 1 {
			line = 1
		}
		end := f.EndLine
		if end < line {
			end = 0
		}
		run.Results = append(run.Results, sarifResult{
			RuleID:    f.SecretType,
			RuleIndex: ruleIdx[f.SecretType],
			Level:     sevToLevel(f.Severity),
			Message:   sarifMessage{Text: f.SecretType + " detected (" + f.SecretHash + ")"},
			Locations: []sarifLoc{{
				PhysicalLocation: sarifPhys{
					ArtifactLocation: sarifArt{URI: f.FilePath},
					Region:           sarifRegion{StartLine: line, EndLine: end, StartColumn: f.ColumnStart, EndColumn: f.ColumnEnd},
				},
			}},
			PartialFingerprints: map[string]string{
				"gitzenFindingId/v1":        f.FindingID,
				"gitzenMatchFingerprint/v1": f.MatchFingerprint,
			},
		})
	}
	out := sarif{
		Schema:  "https://json.schemastore.org/sarif-2.1.0.json",
		Version: "2.1.0",
		Runs:    []sarifRun{run},
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
