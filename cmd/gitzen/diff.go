package gitzen

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gitzen/gitzen/internal/lifecycle"
	"github.com/gitzen/gitzen/internal/report"
)

var (
	flagDiffCurrent  string
	flagDiffPrevious string
	flagDiffFormat   string
	flagDiffGateKey  string
	flagDiffFailNew  bool
)

func init() {
	cmd := &cobra.Command{
		Use:   "diff",
		Short: "Compare two metadata documents: new, resolved and persistent findings",
		Example: `  gitzen diff --current pr.json --previous main.json
  gitzen diff --current pr.json --previous main.json --format markdown >> "$GITHUB_STEP_SUMMARY"`,
		Args: cobra.NoArgs,
		RunE: runDiff,
	}
	cmd.Flags().StringVar(&flagDiffCurrent, "current", "", "current metadata document")
	cmd.Flags().StringVar(&flagDiffPrevious, "previous", "", "previous metadata document")
	cmd.Flags().StringVar(&flagDiffGateKey, "key", "", "match|finding_id (default match)")
	cmd.Flags().StringVar(&flagDiffFormat, "format", report.FormatText, "text|markdown|json")
	cmd.Flags().BoolVar(&flagDiffFailNew, "fail-on-new", false, "exit 1 when a new finding is at or above --fail-on")
	_ = cmd.MarkFlagRequired("current")
	_ = cmd.MarkFlagRequired("previous")
	rootCmd.AddCommand(cmd)
}

func runDiff(cmd *cobra.Command, _ []string) error {
	s, err := resolveSettings(flagPath, flagDiffGateKey, "", "", "", "", 0)
	if err != nil {
		return err
	}
	cur, err := readDocument(flagDiffCurrent)
	if err != nil {
		return err
	}
	prev, err := readDocument(flagDiffPrevious)
	if err != nil {
		return err
	}
	rep, err := lifecycle.DiffDocuments(cur, prev, s.diffKey)
	if err != nil {
		return err
	}
	format := flagDiffFormat
	if flagJSON {
		format = report.FormatJSON
	}
	if err := report.WriteLifecycle(cmd.OutOrStdout(), rep, format); err != nil {
		return err
	}
	if flagDiffFailNew && report.ShouldFail(rep.New, s.failOn) {
		return &failError{msg: fmt.Sprintf("%d new findings, some at or above %s severity", rep.Counts.New, s.failOn)}
	}
	return nil
}
