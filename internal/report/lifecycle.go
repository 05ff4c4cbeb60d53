package report

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"

	"github.com/gitzen/gitzen/internal/lifecycle"
	"github.com/gitzen/gitzen/internal/types"
)

// Lifecycle output formats.
const (
	FormatText     = "text"
	FormatMarkdown = "markdown"
	FormatJSON     = "json"
)

// WriteLifecycle renders a lifecycle report as text, markdown or json.
func WriteLifecycle(w io.Writer, rep *lifecycle.Report, format string) error {
	switch format {
	case "", FormatText:
		return writeLifecycleText(w, rep)
	case FormatMarkdown, "md":
		return writeLifecycleMarkdown(w, rep)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rep)
	}
	return fmt.Errorf("unknown format %q (want text|markdown|json)", format)
}

func writeLifecycleText(w io.Writer, rep *lifecycle.Report) error {
	fmt.Fprintf(w, "New: %d  Resolved: %d  Persistent: %d  (key: %s)\n",
		rep.Counts.New, rep.Counts.Resolved, rep.Counts.Persistent, rep.Key)
	if rep.Counts.New+rep.Counts.Resolved == 0 {
		return nil
	}
	table := tablewriter.NewWriter(w)
	table.Header("Status", "Severity", "Rule", "Location")
	add := func(status string, fs []types.SanitizedFinding) error {
		for _, f := range fs {
			if err := table.Append([]string{status, string(f.Severity), f.SecretType, fmt.Sprintf("%s:%d", f.FilePath, f.LineNumber)}); err != nil {
				return err
			}
		}
		return nil
	}
	if err := add("new", rep.New); err != nil {
		return err
	}
	if err := add("resolved", rep.Resolved); err != nil {
		return err
	}
	return table.Render()
}

func writeLifecycleMarkdown(w io.Writer, rep *lifecycle.Report) error {
	fmt.Fprintln(w, "### Secret scan changes")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "| New | Resolved | Persistent |")
	fmt.Fprintln(w, "|---:|---:|---:|")
	fmt.Fprintf(w, "| %d | %d | %d |\n", rep.Counts.New, rep.Counts.Resolved, rep.Counts.Persistent)
	section := func(title string, fs []types.SanitizedFinding) {
		if len(fs) == 0 {
			return
		}
		fmt.Fprintln(w)
		fmt.Fprintf(w, "#### %s\n\n", title)
		for _, f := range fs {
			fmt.Fprintf(w, "- **%s** `%s` in `%s:%d`\n", f.Severity, f.SecretType, f.FilePath, f.LineNumber)
		}
	}
	section("New", rep.New)
	section("Resolved", rep.Resolved)
	return nil
}
