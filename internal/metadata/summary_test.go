package metadata

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gitzen/gitzen/internal/types"
)

func TestSummarize(t *testing.T) {
	fs := []types.SanitizedFinding{
		{FilePath: "a.go", SecretType: "aws", Severity: types.SevCritical},
		{FilePath: "a.go", SecretType: "aws", Severity: types.SevHigh},
		{FilePath: "b.go", SecretType: "github", Severity: types.SevLow},
		{FilePath: "c.go", SecretType: "github", Severity: types.SevInfo},
	}
	s := Summarize(fs)
	assert.Equal(t, 4, s.TotalFindings)
	assert.Equal(t, types.SeverityCounts{Critical: 1, High: 1, Low: 1, Info: 1}, s.BySeverity)
	assert.Equal(t, map[string]int{"aws": 2, "github": 2}, s.BySecretType)
	assert.Equal(t, 3, s.UniqueFiles)
}

func TestRelated(t *testing.T) {
	doc := &types.MetadataDocument{Findings: []types.SanitizedFinding{
		{FindingID: "1", FilePath: "config/prod.env", SecretType: "aws"},
		{FindingID: "2", FilePath: "config/dev.env", SecretType: "aws"},
		{FindingID: "3", FilePath: "config/dev.env", SecretType: "github"},
		{FindingID: "4", FilePath: "src/app.js", SecretType: "aws"},
	}}

	rel, err := Related(doc, "1")
	require.NoError(t, err)
	require.Len(t, rel, 1)
	assert.Equal(t, "2", rel[0].FindingID)

	rel, err = Related(doc, "4")
	require.NoError(t, err)
	assert.Empty(t, rel)

	_, err = Related(doc, "missing")
	assert.ErrorIs(t, err, ErrFindingNotFound)
}
