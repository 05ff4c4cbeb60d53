package audit

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gitzen/gitzen/internal/lifecycle"
	"github.com/gitzen/gitzen/internal/types"
)

func testDoc() *types.MetadataDocument {
	return &types.MetadataDocument{
		Version:     "1.0.0",
		ScanContext: types.ScanContext{Repository: "org/repo", Branch: "main", CommitHash: "abc", Trigger: types.TriggerPush},
		Summary:     types.Summary{TotalFindings: 2, BySeverity: types.SeverityCounts{High: 2}},
	}
}

func TestNewAuditLog_PrefersGitDir(t *testing.T) {
	dir := t.TempDir()
	assert.Equal(t, filepath.Join(dir, ".gitzen_audit.jsonl"), NewAuditLog(dir).Path())

	require.NoError(t, os.Mkdir(filepath.Join(dir, ".git"), 0o755))
	assert.Equal(t, filepath.Join(dir, ".git", "gitzen_audit.jsonl"), NewAuditLog(dir).Path())
}

func TestLogRun_RoundTripNewestFirst(t *testing.T) {
	a := NewAuditLog(t.TempDir())

	first := NewRunRecord(testDoc(), 0, nil, []byte("report-1"), "", time.Second)
	second := NewRunRecord(testDoc(), 1, &lifecycle.Report{Counts: lifecycle.Counts{New: 2}}, []byte("report-2"), "out.json", time.Second)
	require.NoError(t, a.LogRun(first))
	require.NoError(t, a.LogRun(second))

	recs, err := a.LoadHistory()
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, second.RunID, recs[0].RunID)
	assert.Equal(t, "org/repo", recs[0].Repository)
	require.NotNil(t, recs[0].Lifecycle)
	assert.Equal(t, 2, recs[0].Lifecycle.New)
	assert.Nil(t, recs[1].Lifecycle)
	assert.NotEqual(t, recs[0].InputDigest, recs[1].InputDigest)

	require.NoError(t, a.DeleteRecord(0))
	recs, err = a.LoadHistory()
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, first.RunID, recs[0].RunID)

	assert.Error(t, a.DeleteRecord(5))
}

func TestLogRun_AssignsRunID(t *testing.T) {
	a := NewAuditLog(t.TempDir())
	require.NoError(t, a.LogRun(RunRecord{Repository: "r"}))
	recs, err := a.LoadHistory()
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Len(t, recs[0].RunID, 36)
}

func TestInputDigest(t *testing.T) {
	assert.Equal(t, "", InputDigest(nil))
	d := InputDigest([]byte(`[{"Secret":"AKIA..."}]`))
	assert.Contains(t, d, "xxh64:")
	assert.NotContains(t, d, "AKIA")
	assert.Equal(t, d, InputDigest([]byte(`[{"Secret":"AKIA..."}]`)))
}

func TestLoadHistory_MissingFile(t *testing.T) {
	_, err := NewAuditLog(t.TempDir()).LoadHistory()
	assert.Error(t, err)
}
