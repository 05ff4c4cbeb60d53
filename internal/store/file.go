package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/gitzen/gitzen/internal/privacy"
	"github.com/gitzen/gitzen/internal/types"
)

const latestName = "latest.json"

// FileStore lays documents out as <dir>/<owner>/<repo>/<branch>/. Every
// save writes a commit-named file and replaces latest.json.
type FileStore struct {
	dir string
}

func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, errors.New("store: empty directory")
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) Close() error { return nil }

func (s *FileStore) branchDir(repository, branch string) string {
	parts := []string{s.dir}
	for _, p := range strings.Split(repository, "/") {
		if p != "" {
			parts = append(parts, escape(p))
		}
	}
	if branch == "" {
		branch = "_"
	}
	return filepath.Join(append(parts, escape(branch))...)
}

// escape keeps branch names like feature/x in a single path element.
func escape(s string) string {
	s = url.PathEscape(s)
	if s == "." || s == ".." {
		s = strings.ReplaceAll(s, ".", "%2E")
	}
	return s
}

func (s *FileStore) Save(ctx context.Context, doc *types.MetadataDocument) (string, error) {
	if err := checkDoc(doc); err != nil {
		return "", err
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshalling document: %w", err)
	}
	if err := privacy.ValidateJSON(data); err != nil {
		return "", err
	}
	data = append(data, '\n')
	if err := ctx.Err(); err != nil {
		return "", err
	}

	dir := s.branchDir(doc.ScanContext.FullName(), doc.ScanContext.Branch)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating store directory: %w", err)
	}
	name := documentName(doc)
	path := filepath.Join(dir, name)
	if err := writeAtomic(path, data); err != nil {
		return "", err
	}
	if err := writeAtomic(filepath.Join(dir, latestName), data); err != nil {
		return "", err
	}
	return path, nil
}

func (s *FileStore) Latest(ctx context.Context, repository, branch string) (*types.MetadataDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path := filepath.Join(s.branchDir(repository, branch), latestName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w for %s@%s", ErrNotFound, repository, branch)
		}
		return nil, err
	}
	var doc types.MetadataDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &doc, nil
}

func documentName(doc *types.MetadataDocument) string {
	ts := doc.ScanContext.ScanTimestamp.UTC().Format("20060102T150405Z")
	c := doc.ScanContext.CommitHash
	if len(c) > 12 {
		c = c[:12]
	}
	if c == "" {
		c = "nocommit"
	}
	return ts + "-" + escape(c) + ".json"
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".gitzen-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("renaming document file: %w", err)
	}
	return nil
}
