// Package pipeline chains extraction, suppression, the privacy gate and the
// lifecycle diff into one call per scan.
package pipeline

import (
	"log/slog"

	"github.com/gitzen/gitzen/internal/lifecycle"
	"github.com/gitzen/gitzen/internal/logging"
	"github.com/gitzen/gitzen/internal/metadata"
	"github.com/gitzen/gitzen/internal/privacy"
	"github.com/gitzen/gitzen/internal/suppress"
	"github.com/gitzen/gitzen/internal/types"
)

type Options struct {
	Suppressions *suppress.Set
	DiffKey      lifecycle.Key
	Logger       *slog.Logger
}

func (o Options) logger() *slog.Logger {
	if o.Logger == nil {
		return logging.Discard()
	}
	return o.Logger
}

// Result is everything a single scan produces. Only Document leaves the
// process; the rest feeds reports and the audit log.
type Result struct {
	Document   *types.MetadataDocument
	Suppressed []types.SanitizedFinding
	// Diff is nil when there was no previous document.
	Diff *lifecycle.Report
}

// Process sanitizes raw against sc, drops suppressed findings, recomputes
// the summary and validates the document. When previous is non-nil the
// result carries a lifecycle diff against it.
func Process(raw []types.RawFinding, sc types.ScanContext, previous *types.MetadataDocument, opts Options) (*Result, error) {
	log := opts.logger()

	doc, err := metadata.Extract(raw, sc)
	if err != nil {
		return nil, err
	}

	kept, suppressed := opts.Suppressions.Filter(doc.Findings)
	if len(suppressed) > 0 {
		doc.Findings = kept
		doc.Summary = metadata.Summarize(kept)
	}

	if err := privacy.Validate(doc); err != nil {
		return nil, err
	}

	res := &Result{Document: doc, Suppressed: suppressed}
	if previous != nil {
		res.Diff, err = lifecycle.DiffDocuments(doc, previous, opts.DiffKey)
		if err != nil {
			return nil, err
		}
	}

	attrs := []any{
		"repository", doc.ScanContext.FullName(),
		"branch", doc.ScanContext.Branch,
		"findings", doc.Summary.TotalFindings,
		"critical", doc.Summary.BySeverity.Critical,
		"high", doc.Summary.BySeverity.High,
		"suppressed", len(suppressed),
	}
	if res.Diff != nil {
		attrs = append(attrs, "new", res.Diff.Counts.New, "resolved", res.Diff.Counts.Resolved, "persistent", res.Diff.Counts.Persistent)
	}
	log.Info("document extracted", attrs...)
	return res, nil
}
