package report

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"github.com/gitzen/gitzen/internal/severity"
	"github.com/gitzen/gitzen/internal/types"
)

type PrintOptions struct {
	NoColor    bool
	Duration   time.Duration
	Suppressed int
}

var sevColors = map[types.Severity]*color.Color{
	types.SevCritical: color.New(color.FgRed, color.Bold),
	types.SevHigh:     color.New(color.FgRed),
	types.SevMed:      color.New(color.FgYellow),
	types.SevLow:      color.New(color.FgCyan),
	types.SevInfo:     color.New(color.FgWhite),
}

// PrintTable renders the sanitized findings of doc as a table followed by a
// summary footer. Rows are ordered by severity, then path and line; doc is
// not modified.
func PrintTable(w io.Writer, doc *types.MetadataDocument, opts PrintOptions) error {
	findings := sorted(doc.Findings)
	if len(findings) == 0 {
		fmt.Fprintln(w, "No secrets found ✅")
	} else {
		table := tablewriter.NewWriter(w)
		table.Header("Severity", "Rule", "Location", "Secret", "Commit")
		for _, f := range findings {
			row := []string{
				colorSeverity(f.Severity, opts.NoColor),
				f.SecretType,
				f.FilePath + ":" + strconv.Itoa(f.LineNumber),
				shortHash(f.SecretHash),
				shortCommit(f.CommitHash),
			}
			if err := table.Append(row); err != nil {
				return err
			}
		}
		if err := table.Render(); err != nil {
			return err
		}
	}
	PrintSummary(w, doc, opts)
	return nil
}

// PrintSummary writes the one-paragraph footer.
func PrintSummary(w io.Writer, doc *types.MetadataDocument, opts PrintOptions) {
	s := doc.Summary
	c := s.BySeverity
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Repository: %s (%s @ %s)\n", doc.ScanContext.FullName(), doc.ScanContext.Branch, shortCommit(doc.ScanContext.CommitHash))
	fmt.Fprintf(w, "Findings: %d (critical: %d, high: %d, medium: %d, low: %d, info: %d) in %d files\n",
		s.TotalFindings, c.Critical, c.High, c.Medium, c.Low, c.Info, s.UniqueFiles)
	if opts.Suppressed > 0 {
		fmt.Fprintf(w, "Suppressed: %d\n", opts.Suppressed)
	}
	if opts.Duration > 0 {
		fmt.Fprintf(w, "Duration: %.2fs\n", opts.Duration.Seconds())
	}
}

func sorted(in []types.SanitizedFinding) []types.SanitizedFinding {
	out := make([]types.SanitizedFinding, len(in))
	copy(out, in)
	sort.SliceStable(out, func(i, j int) bool {
		ri, rj := severity.Rank(out[i].Severity), severity.Rank(out[j].Severity)
		if ri != rj {
			return ri > rj
		}
		if out[i].FilePath != out[j].FilePath {
			return out[i].FilePath < out[j].FilePath
		}
		return out[i].LineNumber < out[j].LineNumber
	})
	return out
}

// shortHash keeps the algorithm tag and the first 12 hex characters.
func shortHash(h string) string {
	const n = len("sha256:") + 12
	if len(h) <= n {
		return h
	}
	return h[:n]
}

func shortCommit(c string) string {
	if len(c) > 8 {
		return c[:8]
	}
	return c
}

func colorSeverity(s types.Severity, noColor bool) string {
	c, ok := sevColors[s]
	if noColor || !ok {
		return string(s)
	}
	return c.Sprint(string(s))
}
