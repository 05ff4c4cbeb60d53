package core

import (
	"io"

	"github.com/gitzen/gitzen/internal/lifecycle"
	"github.com/gitzen/gitzen/internal/metadata"
	"github.com/gitzen/gitzen/internal/privacy"
	"github.com/gitzen/gitzen/internal/scanner/gitleaks"
	"github.com/gitzen/gitzen/internal/types"
)

// Re-export selected internal types as a stable public API surface.
type (
	RawFinding       = types.RawFinding
	ScanContext      = types.ScanContext
	SanitizedFinding = types.SanitizedFinding
	MetadataDocument = types.MetadataDocument
	DiffReport       = lifecycle.Report
	DiffKey          = lifecycle.Key
)

const (
	KeyMatch     = lifecycle.KeyMatch
	KeyFindingID = lifecycle.KeyFindingID
)

// ErrPrivacyViolation is matched with errors.Is on anything Validate returns.
var ErrPrivacyViolation = privacy.ErrPrivacyViolation

// Extract sanitizes raw findings into a metadata document. The document
// has passed the privacy gate when it is returned.
func Extract(raw []RawFinding, sc ScanContext) (*MetadataDocument, error) {
	doc, err := metadata.Extract(raw, sc)
	if err != nil {
		return nil, err
	}
	if err := privacy.Validate(doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// ExtractReport reads a gitleaks JSON report from r and extracts it.
func ExtractReport(r io.Reader, sc ScanContext) (*MetadataDocument, error) {
	raw, err := gitleaks.ParseReport(r)
	if err != nil {
		return nil, err
	}
	return Extract(raw, sc)
}

// Validate reports denied fields anywhere in v's JSON form.
func Validate(v any) error { return privacy.Validate(v) }

// ValidateJSON is Validate for already serialized documents.
func ValidateJSON(b []byte) error { return privacy.ValidateJSON(b) }

// Diff classifies findings of current against previous. previous may be nil.
func Diff(current, previous *MetadataDocument, key DiffKey) (*DiffReport, error) {
	return lifecycle.DiffDocuments(current, previous, key)
}
