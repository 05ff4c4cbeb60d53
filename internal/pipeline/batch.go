package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/gitzen/gitzen/internal/scanner/gitleaks"
	"github.com/gitzen/gitzen/internal/store"
	"github.com/gitzen/gitzen/internal/types"
)

// BatchOptions extends Options for ProcessAll.
type BatchOptions struct {
	Options
	// Workers bounds concurrency; values below 1 mean 1.
	Workers int
	// Store, when set, supplies previous documents and receives new ones.
	Store store.Store
}

// JobResult is the outcome of one job. Err is set instead of Result on
// failure; one failing job does not stop the others.
type JobResult struct {
	Job      Job
	Result   *Result
	Raw      []byte
	Location string
	Duration time.Duration
	Err      error
}

// ProcessAll runs jobs concurrently and returns results in job order. Jobs
// for the same repository and branch run one after another in manifest
// order, so each diffs against the document saved by the one before. The
// returned error joins every job failure, or reports cancellation.
func ProcessAll(ctx context.Context, jobs []Job, opts BatchOptions) ([]JobResult, error) {
	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}
	results := make([]JobResult, len(jobs))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, idx := range groupByBranch(jobs) {
		g.Go(func() error {
			for n, i := range idx {
				job := jobs[i]
				if err := gCtx.Err(); err != nil {
					for _, j := range idx[n:] {
						results[j] = JobResult{Job: jobs[j], Err: err}
					}
					return err
				}
				start := time.Now()
				results[i] = runJob(gCtx, job, opts)
				results[i].Duration = time.Since(start)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}

	var errs []error
	for _, r := range results {
		if r.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", r.Job.Name, r.Err))
		}
	}
	return results, errors.Join(errs...)
}

// groupByBranch returns job indexes grouped by (repository, branch), groups
// ordered by first appearance.
func groupByBranch(jobs []Job) [][]int {
	pos := map[string]int{}
	var groups [][]int
	for i, job := range jobs {
		k := job.Context.FullName() + "\x00" + job.Context.Branch
		g, ok := pos[k]
		if !ok {
			g = len(groups)
			pos[k] = g
			groups = append(groups, nil)
		}
		groups[g] = append(groups[g], i)
	}
	return groups
}

func runJob(ctx context.Context, job Job, opts BatchOptions) JobResult {
	log := opts.logger().With("job", job.Name)
	out := JobResult{Job: job}

	data, err := os.ReadFile(job.Report)
	if err != nil {
		out.Err = fmt.Errorf("read report: %w", err)
		return out
	}
	out.Raw = data
	raw, err := gitleaks.ParseReportBytes(data)
	if err != nil {
		out.Err = err
		return out
	}

	prev, err := previous(ctx, opts.Store, job)
	if err != nil {
		out.Err = err
		return out
	}

	o := opts.Options
	o.Logger = log
	res, err := Process(raw, job.Context, prev, o)
	if err != nil {
		out.Err = err
		return out
	}
	out.Result = res

	if opts.Store != nil {
		loc, err := opts.Store.Save(ctx, res.Document)
		if err != nil {
			out.Err = fmt.Errorf("store document: %w", err)
			return out
		}
		out.Location = loc
	}
	if job.Out != "" {
		if err := WriteDocument(job.Out, res); err != nil {
			out.Err = err
			return out
		}
		if out.Location == "" {
			out.Location = job.Out
		}
	}
	return out
}

func previous(ctx context.Context, s store.Store, job Job) (*types.MetadataDocument, error) {
	if s == nil {
		return nil, nil
	}
	doc, err := s.Latest(ctx, job.Context.FullName(), job.Context.Branch)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load previous document: %w", err)
	}
	return doc, nil
}

// WriteDocument writes the validated document as indented JSON.
func WriteDocument(path string, res *Result) error {
	b, err := json.MarshalIndent(res.Document, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, append(b, '\n'), 0o644)
}
