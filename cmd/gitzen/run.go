package gitzen

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/gitzen/gitzen/internal/audit"
	"github.com/gitzen/gitzen/internal/pipeline"
	"github.com/gitzen/gitzen/internal/report"
	"github.com/gitzen/gitzen/internal/store"
	"github.com/gitzen/gitzen/internal/types"
)

// Flags shared by extract and scan.
var (
	flagOut           string
	flagPrevious      string
	flagUseStore      bool
	flagStoreDriver   string
	flagStorePath     string
	flagSuppressions  string
	flagDiffKey       string
	flagUploadURL     string
	flagFailOnNewOnly bool
)

func addPipelineFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVarP(&flagOut, "out", "o", "", "write the metadata document to this file")
	f.StringVar(&flagPrevious, "previous", "", "previous metadata document to diff against")
	f.BoolVar(&flagUseStore, "store", false, "load the previous document from, and save to, the document store")
	f.StringVar(&flagStoreDriver, "store-driver", "", "file|sqlite (default file)")
	f.StringVar(&flagStorePath, "store-path", "", "store directory or database file (default .gitzen/documents)")
	f.StringVar(&flagSuppressions, "suppressions", "", "suppression rules file (default .gitzen-suppressions.yml)")
	f.StringVar(&flagDiffKey, "diff-key", "", "match|finding_id (default match)")
	f.StringVar(&flagUploadURL, "url", "", "upload the document to this endpoint")
	f.BoolVar(&flagFailOnNewOnly, "fail-new-only", false, "apply --fail-on to new findings only when a previous document exists")
}

func currentSettings() (settings, error) {
	return resolveSettings(flagPath, flagDiffKey, flagStoreDriver, flagStorePath, flagSuppressions, flagUploadURL, 0)
}

// process runs the pipeline for one report and does everything that
// follows: store, output file, rendering, upload, audit and the gate.
func process(ctx context.Context, cmd *cobra.Command, s settings, raw []byte, findings []types.RawFinding, sc types.ScanContext, start time.Time) error {
	sup, err := s.loadSuppressions()
	if err != nil {
		return err
	}

	var st store.Store
	if flagUseStore {
		st, err = store.Open(s.store)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer func() { _ = st.Close() }()
	}

	prev, err := loadPrevious(ctx, st, sc)
	if err != nil {
		return err
	}

	res, err := pipeline.Process(findings, sc, prev, pipeline.Options{
		Suppressions: sup,
		DiffKey:      s.diffKey,
		Logger:       logger,
	})
	if err != nil {
		return err
	}
	doc := res.Document

	location := flagOut
	if st != nil {
		loc, err := st.Save(ctx, doc)
		if err != nil {
			return fmt.Errorf("save document: %w", err)
		}
		logger.Debug("document stored", "location", loc)
		if location == "" {
			location = loc
		}
	}
	if flagOut != "" {
		if err := pipeline.WriteDocument(flagOut, res); err != nil {
			return fmt.Errorf("write document: %w", err)
		}
	}

	if err := render(cmd.OutOrStdout(), res, s, time.Since(start)); err != nil {
		return err
	}

	if s.uploadURL != "" {
		if err := uploadDocument(ctx, s.uploadURL, s.uploadToken, doc); err != nil {
			fmt.Fprintln(cmd.ErrOrStderr(), "warning: upload failed:", err)
		}
	}

	if s.audit {
		rec := audit.NewRunRecord(doc, len(res.Suppressed), res.Diff, raw, location, time.Since(start))
		if err := audit.NewAuditLog(s.root).LogRun(rec); err != nil {
			logger.Warn("audit log not written", "error", err)
		}
	}

	gated := doc.Findings
	if flagFailOnNewOnly && res.Diff != nil {
		gated = res.Diff.New
	}
	if report.ShouldFail(gated, s.failOn) {
		return &failError{msg: fmt.Sprintf("findings at or above %s severity", s.failOn)}
	}
	return nil
}

// loadPrevious prefers --previous over the store.
func loadPrevious(ctx context.Context, st store.Store, sc types.ScanContext) (*types.MetadataDocument, error) {
	if flagPrevious != "" {
		return readDocument(flagPrevious)
	}
	if st == nil {
		return nil, nil
	}
	doc, err := st.Latest(ctx, sc.FullName(), sc.Branch)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load previous document: %w", err)
	}
	return doc, nil
}

func render(w io.Writer, res *pipeline.Result, s settings, elapsed time.Duration) error {
	switch {
	case flagSARIF:
		return report.WriteSARIF(w, res.Document)
	case flagJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res.Document)
	}
	opts := report.PrintOptions{NoColor: s.noColor, Duration: elapsed, Suppressed: len(res.Suppressed)}
	if err := report.PrintTable(w, res.Document, opts); err != nil {
		return err
	}
	if res.Diff != nil {
		fmt.Fprintln(w)
		return report.WriteLifecycle(w, res.Diff, report.FormatText)
	}
	return nil
}
