package gitzen

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/gitzen/gitzen/internal/audit"
)

var (
	flagHistoryLimit  int
	flagHistoryDelete int
)

func init() {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show previous runs recorded in the audit log",
		Args:  cobra.NoArgs,
		RunE:  runHistory,
	}
	cmd.Flags().IntVarP(&flagHistoryLimit, "limit", "n", 20, "show at most this many runs (0 for all)")
	cmd.Flags().IntVar(&flagHistoryDelete, "delete", -1, "delete the run at this index (0 is newest)")
	rootCmd.AddCommand(cmd)
}

func runHistory(cmd *cobra.Command, _ []string) error {
	al := audit.NewAuditLog(flagPath)
	w := cmd.OutOrStdout()

	if flagHistoryDelete >= 0 {
		if err := al.DeleteRecord(flagHistoryDelete); err != nil {
			return err
		}
		fmt.Fprintf(w, "Deleted run %d from %s\n", flagHistoryDelete, al.Path())
		return nil
	}

	records, err := al.LoadHistory()
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	if flagHistoryLimit > 0 && len(records) > flagHistoryLimit {
		records = records[:flagHistoryLimit]
	}
	if flagJSON {
		return writeJSON(w, records)
	}
	if len(records) == 0 {
		fmt.Fprintf(w, "No runs recorded in %s\n", al.Path())
		return nil
	}

	table := tablewriter.NewWriter(w)
	table.Header("#", "Time", "Repository", "Branch", "Findings", "Critical", "High", "New", "Resolved")
	for i, r := range records {
		newCount, resolved := "-", "-"
		if r.Lifecycle != nil {
			newCount, resolved = strconv.Itoa(r.Lifecycle.New), strconv.Itoa(r.Lifecycle.Resolved)
		}
		if err := table.Append([]string{
			strconv.Itoa(i),
			r.Timestamp.Local().Format("2006-01-02 15:04"),
			r.Repository,
			r.Branch,
			strconv.Itoa(r.TotalFindings),
			strconv.Itoa(r.BySeverity.Critical),
			strconv.Itoa(r.BySeverity.High),
			newCount,
			resolved,
		}); err != nil {
			return err
		}
	}
	return table.Render()
}
