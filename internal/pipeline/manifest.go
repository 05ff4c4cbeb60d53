package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/gitzen/gitzen/internal/types"
)

// Manifest lists reports to process in one batch. Relative paths resolve
// against the manifest's directory.
//
//	defaults:
//	  owner: acme
//	  trigger: schedule
//	jobs:
//	  - report: reports/payments.json
//	    repository: payments
//	    branch: main
//	    commit: 4f2a...
//	    out: out/payments.json
type Manifest struct {
	Defaults JobSpec   `yaml:"defaults"`
	Jobs     []JobSpec `yaml:"jobs"`
}

// JobSpec is one manifest entry. Empty fields inherit from defaults.
type JobSpec struct {
	Name           string     `yaml:"name,omitempty"`
	Report         string     `yaml:"report,omitempty"`
	Out            string     `yaml:"out,omitempty"`
	Repository     string     `yaml:"repository,omitempty"`
	Owner          string     `yaml:"owner,omitempty"`
	Branch         string     `yaml:"branch,omitempty"`
	Commit         string     `yaml:"commit,omitempty"`
	Trigger        string     `yaml:"trigger,omitempty"`
	PRNumber       int        `yaml:"pr_number,omitempty"`
	ScanTimestamp  *time.Time `yaml:"scan_timestamp,omitempty"`
	ScannerVersion string     `yaml:"scanner_version,omitempty"`
}

// Job is a resolved manifest entry.
type Job struct {
	Name    string
	Report  string
	Out     string
	Context types.ScanContext
}

// LoadManifest reads and resolves a manifest file.
func LoadManifest(path string, now time.Time) ([]Job, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m Manifest
	if err := yaml.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", path, err)
	}
	return m.Resolve(filepath.Dir(path), now)
}

// Resolve merges defaults into each job and builds its scan context.
func (m Manifest) Resolve(baseDir string, now time.Time) ([]Job, error) {
	if len(m.Jobs) == 0 {
		return nil, fmt.Errorf("manifest has no jobs")
	}
	jobs := make([]Job, 0, len(m.Jobs))
	for i, js := range m.Jobs {
		js = js.withDefaults(m.Defaults)
		if js.Report == "" {
			return nil, fmt.Errorf("job %d: report is required", i)
		}
		if js.Repository == "" {
			return nil, fmt.Errorf("job %d: repository is required", i)
		}
		trigger, err := types.ParseTrigger(js.Trigger)
		if err != nil {
			return nil, fmt.Errorf("job %d: %w", i, err)
		}
		sc := types.ScanContext{
			Repository:     js.Repository,
			Owner:          js.Owner,
			Branch:         js.Branch,
			CommitHash:     js.Commit,
			Trigger:        trigger,
			ScanTimestamp:  now,
			ScannerVersion: js.ScannerVersion,
		}
		if js.ScanTimestamp != nil {
			sc.ScanTimestamp = *js.ScanTimestamp
		}
		if js.PRNumber != 0 {
			n := js.PRNumber
			sc.PRNumber = &n
		}
		name := js.Name
		if name == "" {
			name = sc.FullName()
			if sc.Branch != "" {
				name += "@" + sc.Branch
			}
		}
		jobs = append(jobs, Job{
			Name:    name,
			Report:  resolve(baseDir, js.Report),
			Out:     resolve(baseDir, js.Out),
			Context: sc,
		})
	}
	return jobs, nil
}

func (js JobSpec) withDefaults(d JobSpec) JobSpec {
	pick := func(v, def string) string {
		if v != "" {
			return v
		}
		return def
	}
	js.Owner = pick(js.Owner, d.Owner)
	js.Repository = pick(js.Repository, d.Repository)
	js.Branch = pick(js.Branch, d.Branch)
	js.Commit = pick(js.Commit, d.Commit)
	js.Trigger = pick(js.Trigger, d.Trigger)
	js.ScannerVersion = pick(js.ScannerVersion, d.ScannerVersion)
	if js.ScanTimestamp == nil {
		js.ScanTimestamp = d.ScanTimestamp
	}
	return js
}

func resolve(base, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}
