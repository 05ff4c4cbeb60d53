// Package audit keeps an append-only JSONL history of extraction runs.
// Records hold counts and identifiers only.
package audit

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"

	"github.com/gitzen/gitzen/internal/lifecycle"
	"github.com/gitzen/gitzen/internal/privacy"
	"github.com/gitzen/gitzen/internal/types"
)

const fileName = "gitzen_audit.jsonl"

type RunRecord struct {
	RunID         string               `json:"run_id"`
	Timestamp     time.Time            `json:"timestamp"`
	Repository    string               `json:"repository"`
	Branch        string               `json:"branch"`
	CommitHash    string               `json:"commit_hash"`
	Trigger       types.Trigger        `json:"trigger"`
	TotalFindings int                  `json:"total_findings"`
	BySeverity    types.SeverityCounts `json:"by_severity"`
	Suppressed    int                  `json:"suppressed"`
	Lifecycle     *lifecycle.Counts    `json:"lifecycle,omitempty"`
	InputDigest   string               `json:"input_digest,omitempty"`
	DocumentPath  string               `json:"document_path,omitempty"`
	Duration      string               `json:"duration"`
}

type AuditLog struct {
	logPath string
}

// NewAuditLog places the log inside root/.git when root is a repository,
// otherwise at root/.gitzen_audit.jsonl.
func NewAuditLog(root string) *AuditLog {
	gitDir := filepath.Join(root, ".git")
	logPath := filepath.Join(root, "."+fileName)
	if st, err := os.Stat(gitDir); err == nil && st.IsDir() {
		logPath = filepath.Join(gitDir, fileName)
	}
	return &AuditLog{logPath: logPath}
}

// Path returns the log file location.
func (a *AuditLog) Path() string { return a.logPath }

// LoadHistory returns records newest first. Undecodable lines are skipped.
func (a *AuditLog) LoadHistory() ([]RunRecord, error) {
	f, err := os.Open(a.logPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit log: %w", err)
	}
	defer f.Close()

	var records []RunRecord
	decoder := json.NewDecoder(f)
	for decoder.More() {
		var record RunRecord
		if err := decoder.Decode(&record); err != nil {
			break
		}
		records = append(records, record)
	}

	for i, j := 0, len(records)-1; i < j; i, j = i+1, j-1 {
		records[i], records[j] = records[j], records[i]
	}
	return records, nil
}

// LogRun appends record, assigning a run id when missing. The record passes
// the privacy gate before it is written.
func (a *AuditLog) LogRun(record RunRecord) error {
	if record.RunID == "" {
		record.RunID = uuid.NewString()
	}
	if err := privacy.Validate(record); err != nil {
		return err
	}

	f, err := os.OpenFile(a.logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("failed to open audit log: %w", err)
	}
	defer f.Close()

	if err := json.NewEncoder(f).Encode(record); err != nil {
		return fmt.Errorf("failed to write audit record: %w", err)
	}
	return nil
}

// DeleteRecord removes the record at index in LoadHistory order.
func (a *AuditLog) DeleteRecord(index int) error {
	records, err := a.LoadHistory()
	if err != nil {
		return err
	}
	if index < 0 || index >= len(records) {
		return fmt.Errorf("invalid index: %d", index)
	}
	records = append(records[:index], records[index+1:]...)

	tmp := a.logPath + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("failed to create audit log: %w", err)
	}
	encoder := json.NewEncoder(f)
	for i := len(records) - 1; i >= 0; i-- {
		if err := encoder.Encode(records[i]); err != nil {
			f.Close()
			os.Remove(tmp)
			return fmt.Errorf("failed to write audit record: %w", err)
		}
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, a.logPath)
}

// InputDigest fingerprints the raw scanner report so reruns over the same
// input can be recognised. It is a non-cryptographic digest of data that
// may contain secrets and is only ever stored in this form.
func InputDigest(raw []byte) string {
	if len(raw) == 0 {
		return ""
	}
	return "xxh64:" + strconv.FormatUint(xxhash.Sum64(raw), 16)
}

// NewRunRecord summarises a finished run.
func NewRunRecord(doc *types.MetadataDocument, suppressed int, diff *lifecycle.Report, raw []byte, docPath string, duration time.Duration) RunRecord {
	sc := doc.ScanContext
	rec := RunRecord{
		RunID:         uuid.NewString(),
		Timestamp:     time.Now().UTC(),
		Repository:    sc.FullName(),
		Branch:        sc.Branch,
		CommitHash:    sc.CommitHash,
		Trigger:       sc.Trigger,
		TotalFindings: doc.Summary.TotalFindings,
		BySeverity:    doc.Summary.BySeverity,
		Suppressed:    suppressed,
		InputDigest:   InputDigest(raw),
		DocumentPath:  docPath,
		Duration:      duration.String(),
	}
	if diff != nil {
		c := diff.Counts
		rec.Lifecycle = &c
	}
	return rec
}
