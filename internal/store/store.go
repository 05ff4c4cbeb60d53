// Package store persists metadata documents so the next scan of the same
// branch has something to diff against.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/gitzen/gitzen/internal/types"
)

// ErrNotFound is returned by Latest when no document exists.
var ErrNotFound = errors.New("no stored document")

// Store keeps sanitized documents. Implementations must run the privacy
// gate before anything reaches the backing medium.
type Store interface {
	// Save persists doc and returns where it went (a path or a row id).
	Save(ctx context.Context, doc *types.MetadataDocument) (string, error)
	// Latest returns the most recently saved document for a repository
	// (owner/repo) and branch.
	Latest(ctx context.Context, repository, branch string) (*types.MetadataDocument, error)
	Close() error
}

const (
	DriverFile   = "file"
	DriverSQLite = "sqlite"
)

type Config struct {
	Driver string
	// Path is a directory for the file driver and a database file for sqlite.
	Path string
}

// Open returns the store selected by cfg.Driver. An empty driver means file.
func Open(cfg Config) (Store, error) {
	switch cfg.Driver {
	case "", DriverFile:
		return NewFileStore(cfg.Path)
	case DriverSQLite:
		return OpenSQL(cfg.Path)
	}
	return nil, fmt.Errorf("unknown store driver %q (want file|sqlite)", cfg.Driver)
}

func checkDoc(doc *types.MetadataDocument) error {
	if doc == nil {
		return errors.New("store: nil document")
	}
	if doc.ScanContext.FullName() == "" {
		return errors.New("store: document has no repository")
	}
	return nil
}
