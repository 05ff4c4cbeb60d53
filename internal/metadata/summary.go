package metadata

import (
	"errors"
	"path"

	"github.com/gitzen/gitzen/internal/types"
)

// ErrFindingNotFound is returned by Related for an unknown finding id.
var ErrFindingNotFound = errors.New("finding not found")

// Summarize computes the document summary. Every severity bucket is present
// and by_secret_type is never nil, so empty and non-empty documents share a
// shape.
func Summarize(findings []types.SanitizedFinding) types.Summary {
	s := types.Summary{
		TotalFindings: len(findings),
		BySecretType:  map[string]int{},
	}
	files := make(map[string]struct{}, len(findings))
	for _, f := range findings {
		s.BySeverity.Add(f.Severity)
		s.BySecretType[f.SecretType]++
		files[f.FilePath] = struct{}{}
	}
	s.UniqueFiles = len(files)
	return s
}

// Related returns the other findings in doc with the same secret type that
// live in the same directory as the finding identified by findingID.
func Related(doc *types.MetadataDocument, findingID string) ([]types.SanitizedFinding, error) {
	var origin *types.SanitizedFinding
	for i := range doc.Findings {
		if doc.Findings[i].FindingID == findingID {
			origin = &doc.Findings[i]
			break
		}
	}
	if origin == nil {
		return nil, ErrFindingNotFound
	}

	dir := path.Dir(origin.FilePath)
	out := []types.SanitizedFinding{}
	for _, f := range doc.Findings {
		if f.FindingID == findingID || f.SecretType != origin.SecretType {
			continue
		}
		if path.Dir(f.FilePath) == dir {
			out = append(out, f)
		}
	}
	return out, nil
}
