// Package scanner defines the boundary to external secret scanners.
package scanner

import (
	"context"

	"github.com/gitzen/gitzen/internal/types"
)

// Scanner runs a secret scanner over a repository and returns its raw
// findings. Raw findings hold plaintext secrets and must go straight to
// metadata extraction.
type Scanner interface {
	ScanRepo(ctx context.Context, root string) (*Report, error)
	// Version returns the scanner version, or "unknown".
	Version() string
}

// Report is one scanner invocation's output.
type Report struct {
	// Raw is the scanner's report exactly as produced. It is kept only long
	// enough to digest it for the audit log.
	Raw      []byte
	Findings []types.RawFinding
}
