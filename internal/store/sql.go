package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/gitzen/gitzen/internal/privacy"
	"github.com/gitzen/gitzen/internal/types"
)

type scanDocument struct {
	ID            uint   `gorm:"primaryKey"`
	Repository    string `gorm:"index:idx_repo_branch;not null"`
	Branch        string `gorm:"index:idx_repo_branch"`
	CommitHash    string
	Trigger       string
	Version       string
	ScanTimestamp time.Time
	TotalFindings int
	Body          []byte `gorm:"not null"`
	CreatedAt     time.Time
	Findings      []findingRecord `gorm:"foreignKey:DocumentID;constraint:OnDelete:CASCADE"`
}

func (scanDocument) TableName() string { return "scan_documents" }

// findingRecord indexes one finding of a document for cross-document
// queries. Position keeps duplicates distinct.
type findingRecord struct {
	ID               uint   `gorm:"primaryKey"`
	DocumentID       uint   `gorm:"uniqueIndex:idx_doc_pos;not null"`
	Position         int    `gorm:"uniqueIndex:idx_doc_pos"`
	FindingID        string `gorm:"index"`
	MatchFingerprint string `gorm:"index"`
	SecretHash       string `gorm:"index"`
	SecretType       string
	FilePath         string
	LineNumber       int
	Severity         string
}

func (findingRecord) TableName() string { return "finding_records" }

// SQLStore keeps documents in SQLite through gorm.
type SQLStore struct {
	db *gorm.DB
}

// OpenSQL opens (and migrates) the database at path.
func OpenSQL(path string) (*SQLStore, error) {
	if path == "" {
		return nil, errors.New("store: empty database path")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create db dir %s: %w", dir, err)
		}
	}
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite %s: %w", path, err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.Exec("PRAGMA foreign_keys = ON;").Error; err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if err := db.AutoMigrate(&scanDocument{}, &findingRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}
	return &SQLStore{db: db}, nil
}

func (s *SQLStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *SQLStore) Save(ctx context.Context, doc *types.MetadataDocument) (string, error) {
	if err := checkDoc(doc); err != nil {
		return "", err
	}
	body, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("marshalling document: %w", err)
	}
	if err := privacy.ValidateJSON(body); err != nil {
		return "", err
	}

	sc := doc.ScanContext
	row := scanDocument{
		Repository:    sc.FullName(),
		Branch:        sc.Branch,
		CommitHash:    sc.CommitHash,
		Trigger:       string(sc.Trigger),
		Version:       doc.Version,
		ScanTimestamp: sc.ScanTimestamp.UTC(),
		TotalFindings: doc.Summary.TotalFindings,
		Body:          body,
		Findings:      make([]findingRecord, 0, len(doc.Findings)),
	}
	for i, f := range doc.Findings {
		row.Findings = append(row.Findings, findingRecord{
			Position:         i,
			FindingID:        f.FindingID,
			MatchFingerprint: f.MatchFingerprint,
			SecretHash:       f.SecretHash,
			SecretType:       f.SecretType,
			FilePath:         f.FilePath,
			LineNumber:       f.LineNumber,
			Severity:         string(f.Severity),
		})
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&row).Error
	})
	if err != nil {
		return "", fmt.Errorf("saving document: %w", err)
	}
	return strconv.FormatUint(uint64(row.ID), 10), nil
}

func (s *SQLStore) Latest(ctx context.Context, repository, branch string) (*types.MetadataDocument, error) {
	var row scanDocument
	err := s.db.WithContext(ctx).
		Where("repository = ? AND branch = ?", repository, branch).
		Order("id DESC").
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w for %s@%s", ErrNotFound, repository, branch)
	}
	if err != nil {
		return nil, err
	}
	var doc types.MetadataDocument
	if err := json.Unmarshal(row.Body, &doc); err != nil {
		return nil, fmt.Errorf("parsing document %d: %w", row.ID, err)
	}
	return &doc, nil
}

// Occurrence locates one stored finding.
type Occurrence struct {
	Repository string
	Branch     string
	CommitHash string
	FilePath   string
	LineNumber int
	SecretType string
}

// FindBySecretHash lists every stored finding with the given secret hash,
// which is how a leaked credential is traced across repositories.
func (s *SQLStore) FindBySecretHash(ctx context.Context, secretHash string) ([]Occurrence, error) {
	var out []Occurrence
	err := s.db.WithContext(ctx).
		Table("finding_records AS f").
		Select("d.repository, d.branch, d.commit_hash, f.file_path, f.line_number, f.secret_type").
		Joins("JOIN scan_documents AS d ON d.id = f.document_id").
		Where("f.secret_hash = ?", secretHash).
		Order("d.id, f.position").
		Scan(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}
