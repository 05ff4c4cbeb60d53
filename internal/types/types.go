package types

import (
	"fmt"
	"strings"
	"time"
)

// Severity is a coarse-grained risk level for a finding.
type Severity string

const (
	SevCritical Severity = "critical"
	SevHigh     Severity = "high"
	SevMed      Severity = "medium"
	SevLow      Severity = "low"
	SevInfo     Severity = "info"
)

// Trigger is the event that started a scan.
type Trigger string

const (
	TriggerPullRequest Trigger = "pull_request"
	TriggerPush        Trigger = "push"
	TriggerSchedule    Trigger = "schedule"
	TriggerManual      Trigger = "manual"
)

// ParseTrigger accepts the canonical names plus the common spellings used by
// CI providers ("pull-request", "pr", "cron").
func ParseTrigger(s string) (Trigger, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pull_request", "pull-request", "pr":
		return TriggerPullRequest, nil
	case "push":
		return TriggerPush, nil
	case "schedule", "cron":
		return TriggerSchedule, nil
	case "manual", "workflow_dispatch", "":
		return TriggerManual, nil
	}
	return "", fmt.Errorf("unknown trigger %q (want pull_request|push|schedule|manual)", s)
}

// RawFinding is one record as emitted by the external scanner. It carries
// sensitive values (Secret, Match, Email, Author) and must never be persisted
// or transmitted; it deliberately has no JSON tags.
type RawFinding struct {
	File        string
	StartLine   int
	EndLine     int
	StartColumn int
	EndColumn   int
	RuleID      string
	Secret      string
	Match       string
	Commit      string
	Email       string
	Author      string
	Entropy     float64
	Tags        []string
	Description string
}

// ScanContext identifies the scan run a set of findings belongs to. It is
// passed explicitly to every operation that needs it.
type ScanContext struct {
	Repository       string    `json:"repository"`
	Owner            string    `json:"owner"`
	Branch           string    `json:"branch"`
	CommitHash       string    `json:"commit_hash"`
	Trigger          Trigger   `json:"trigger"`
	PRNumber         *int      `json:"pr_number,omitempty"`
	ScanTimestamp    time.Time `json:"scan_timestamp"`
	ScannerVersion   string    `json:"scanner_version"`
	ExtractorVersion string    `json:"extractor_version"`
}

// FullName returns "owner/repo". Repository may already be a full name.
func (c ScanContext) FullName() string {
	if c.Owner == "" || strings.Contains(c.Repository, "/") {
		return c.Repository
	}
	return c.Owner + "/" + c.Repository
}

// SanitizedFinding is the privacy-safe projection of a RawFinding. None of its
// fields can hold secret text or author identity in the clear.
type SanitizedFinding struct {
	FindingID        string   `json:"finding_id"`
	FilePath         string   `json:"file_path"`
	LineNumber       int      `json:"line_number"`
	EndLine          int      `json:"end_line"`
	ColumnStart      int      `json:"column_start"`
	ColumnEnd        int      `json:"column_end"`
	CommitHash       string   `json:"commit_hash"`
	AuthorHash       string   `json:"author_hash"`
	SecretType       string   `json:"secret_type"`
	SecretHash       string   `json:"secret_hash"`
	Entropy          float64  `json:"entropy"`
	Severity         Severity `json:"severity"`
	Tags             []string `json:"tags"`
	MatchFingerprint string   `json:"match_fingerprint"`
}

// SeverityCounts always carries all five buckets.
type SeverityCounts struct {
	Critical int `json:"critical"`
	High     int `json:"high"`
	Medium   int `json:"medium"`
	Low      int `json:"low"`
	Info     int `json:"info"`
}

// Total is the sum of every bucket.
func (c SeverityCounts) Total() int {
	return c.Critical + c.High + c.Medium + c.Low + c.Info
}

// Add increments the bucket for s. Unknown values count as medium.
func (c *SeverityCounts) Add(s Severity) {
	switch s {
	case SevCritical:
		c.Critical++
	case SevHigh:
		c.High++
	case SevLow:
		c.Low++
	case SevInfo:
		c.Info++
	default:
		c.Medium++
	}
}

// Summary aggregates a document's findings.
type Summary struct {
	TotalFindings int            `json:"total_findings"`
	BySeverity    SeverityCounts `json:"by_severity"`
	BySecretType  map[string]int `json:"by_secret_type"`
	UniqueFiles   int            `json:"unique_files"`
}

// MetadataDocument is the only artifact allowed across the privacy boundary.
type MetadataDocument struct {
	Version     string             `json:"version"`
	ScanContext ScanContext        `json:"scan_context"`
	Findings    []SanitizedFinding `json:"findings"`
	Summary     Summary            `json:"summary"`
}
