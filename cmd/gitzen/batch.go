package gitzen

import (
	"fmt"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/gitzen/gitzen/internal/audit"
	"github.com/gitzen/gitzen/internal/pipeline"
	"github.com/gitzen/gitzen/internal/report"
	"github.com/gitzen/gitzen/internal/store"
)

var (
	flagBatchWorkers  int
	flagBatchUseStore bool
)

func init() {
	cmd := &cobra.Command{
		Use:   "batch MANIFEST",
		Short: "Extract many gitleaks reports concurrently from a YAML manifest",
		Example: `  gitzen batch reports.yml --workers 8 --store
  gitzen batch reports.yml --json`,
		Args: cobra.ExactArgs(1),
		RunE: runBatch,
	}
	cmd.Flags().IntVarP(&flagBatchWorkers, "workers", "w", 0, "concurrent jobs (default 4)")
	cmd.Flags().BoolVar(&flagBatchUseStore, "store", false, "diff against and save to the document store")
	cmd.Flags().StringVar(&flagStoreDriver, "store-driver", "", "file|sqlite (default file)")
	cmd.Flags().StringVar(&flagStorePath, "store-path", "", "store directory or database file")
	cmd.Flags().StringVar(&flagSuppressions, "suppressions", "", "suppression rules file")
	cmd.Flags().StringVar(&flagDiffKey, "diff-key", "", "match|finding_id (default match)")
	rootCmd.AddCommand(cmd)
}

// batchRow is the --json shape of one job.
type batchRow struct {
	Job        string `json:"job"`
	Findings   int    `json:"findings"`
	Critical   int    `json:"critical"`
	High       int    `json:"high"`
	Suppressed int    `json:"suppressed"`
	New        *int   `json:"new,omitempty"`
	Resolved   *int   `json:"resolved,omitempty"`
	Location   string `json:"location,omitempty"`
	Error      string `json:"error,omitempty"`
}

func runBatch(cmd *cobra.Command, args []string) error {
	s, err := resolveSettings(flagPath, flagDiffKey, flagStoreDriver, flagStorePath, flagSuppressions, "", flagBatchWorkers)
	if err != nil {
		return err
	}
	jobs, err := pipeline.LoadManifest(args[0], time.Now().UTC())
	if err != nil {
		return err
	}
	sup, err := s.loadSuppressions()
	if err != nil {
		return err
	}
	opts := pipeline.BatchOptions{
		Options: pipeline.Options{Suppressions: sup, DiffKey: s.diffKey, Logger: logger},
		Workers: s.workers,
	}
	if flagBatchUseStore {
		st, err := store.Open(s.store)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer func() { _ = st.Close() }()
		opts.Store = st
	}

	results, jobErr := pipeline.ProcessAll(cmd.Context(), jobs, opts)

	rows := make([]batchRow, 0, len(results))
	failed := false
	var al *audit.AuditLog
	if s.audit {
		al = audit.NewAuditLog(s.root)
	}
	for _, r := range results {
		row := batchRow{Job: r.Job.Name, Location: r.Location}
		if r.Err != nil {
			row.Error = r.Err.Error()
			rows = append(rows, row)
			continue
		}
		doc := r.Result.Document
		row.Findings = doc.Summary.TotalFindings
		row.Critical = doc.Summary.BySeverity.Critical
		row.High = doc.Summary.BySeverity.High
		row.Suppressed = len(r.Result.Suppressed)
		if d := r.Result.Diff; d != nil {
			row.New, row.Resolved = &d.Counts.New, &d.Counts.Resolved
		}
		rows = append(rows, row)

		if al != nil {
			rec := audit.NewRunRecord(doc, len(r.Result.Suppressed), r.Result.Diff, r.Raw, r.Location, r.Duration)
			if err := al.LogRun(rec); err != nil {
				logger.Warn("audit log not written", "job", r.Job.Name, "error", err)
			}
		}
		if report.ShouldFail(doc.Findings, s.failOn) {
			failed = true
		}
	}

	if err := printBatch(cmd, rows); err != nil {
		return err
	}
	if jobErr != nil {
		return jobErr
	}
	if failed {
		return &failError{msg: fmt.Sprintf("findings at or above %s severity", s.failOn)}
	}
	return nil
}

func printBatch(cmd *cobra.Command, rows []batchRow) error {
	w := cmd.OutOrStdout()
	if flagJSON {
		return writeJSON(w, rows)
	}
	table := tablewriter.NewWriter(w)
	table.Header("Job", "Findings", "Critical", "High", "Suppressed", "New", "Resolved", "Status")
	for _, r := range rows {
		status := "ok"
		if r.Error != "" {
			status = "error: " + r.Error
		}
		if err := table.Append([]string{
			r.Job,
			strconv.Itoa(r.Findings),
			strconv.Itoa(r.Critical),
			strconv.Itoa(r.High),
			strconv.Itoa(r.Suppressed),
			optInt(r.New),
			optInt(r.Resolved),
			status,
		}); err != nil {
			return err
		}
	}
	return table.Render()
}

func optInt(p *int) string {
	if p == nil {
		return "-"
	}
	return strconv.Itoa(*p)
}
