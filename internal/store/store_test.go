package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gitzen/gitzen/internal/fingerprint"
	"github.com/gitzen/gitzen/internal/privacy"
	"github.com/gitzen/gitzen/internal/types"
)

func doc(commit string, ts time.Time, paths ...string) *types.MetadataDocument {
	fs := make([]types.SanitizedFinding, 0, len(paths))
	for i, p := range paths {
		fs = append(fs, types.SanitizedFinding{
			FindingID:        fingerprint.FindingID(p, i, "aws", commit),
			MatchFingerprint: fingerprint.MatchFingerprint(p, i, "aws"),
			FilePath:         p,
			LineNumber:       i,
			SecretType:       "aws",
			SecretHash:       fingerprint.TaggedHash("shared"),
			Severity:         types.SevHigh,
			Tags:             []string{},
		})
	}
	return &types.MetadataDocument{
		Version: "1.0.0",
		ScanContext: types.ScanContext{
			Owner: "org", Repository: "repo", Branch: "feature/x",
			CommitHash: commit, Trigger: types.TriggerPush, ScanTimestamp: ts,
		},
		Findings: fs,
		Summary:  types.Summary{TotalFindings: len(fs), BySecretType: map[string]int{}},
	}
}

func stores(t *testing.T) map[string]Store {
	t.Helper()
	dir := t.TempDir()
	fs, err := Open(Config{Driver: DriverFile, Path: filepath.Join(dir, "docs")})
	require.NoError(t, err)
	sq, err := Open(Config{Driver: DriverSQLite, Path: filepath.Join(dir, "db", "gitzen.db")})
	require.NoError(t, err)
	t.Cleanup(func() { sq.Close() })
	return map[string]Store{"file": fs, "sqlite": sq}
}

func TestStore_SaveLatest(t *testing.T) {
	ctx := context.Background()
	t0 := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := s.Latest(ctx, "org/repo", "feature/x")
			assert.ErrorIs(t, err, ErrNotFound)

			_, err = s.Save(ctx, doc("c1", t0, "a.go"))
			require.NoError(t, err)
			where, err := s.Save(ctx, doc("c2", t0.Add(time.Hour), "a.go", "b.go"))
			require.NoError(t, err)
			assert.NotEmpty(t, where)

			got, err := s.Latest(ctx, "org/repo", "feature/x")
			require.NoError(t, err)
			assert.Equal(t, "c2", got.ScanContext.CommitHash)
			assert.Len(t, got.Findings, 2)
			assert.Equal(t, t0.Add(time.Hour), got.ScanContext.ScanTimestamp.UTC())

			_, err = s.Latest(ctx, "org/repo", "main")
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestStore_RejectsInvalidDocuments(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := s.Save(ctx, nil)
			assert.Error(t, err)
			_, err = s.Save(ctx, &types.MetadataDocument{})
			assert.Error(t, err)
		})
	}
}

func TestFileStore_LayoutAndAtomicity(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	require.NoError(t, err)

	path, err := s.Save(context.Background(), doc("0123456789abcdef0123", time.Date(2025, 10, 14, 10, 30, 0, 0, time.UTC)))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "org", "repo", "feature%2Fx", "20251014T103000Z-0123456789ab.json"), path)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.ElementsMatch(t, []string{"20251014T103000Z-0123456789ab.json", "latest.json"}, names)

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NoError(t, privacy.ValidateJSON(b))
}

func TestSQLStore_FindBySecretHash(t *testing.T) {
	ctx := context.Background()
	s, err := OpenSQL(filepath.Join(t.TempDir(), "gitzen.db"))
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Save(ctx, doc("c1", time.Now(), "a.go", "a.go"))
	require.NoError(t, err)
	other := doc("d1", time.Now(), "cfg/prod.env")
	other.ScanContext.Repository = "other"
	_, err = s.Save(ctx, other)
	require.NoError(t, err)

	occ, err := s.FindBySecretHash(ctx, fingerprint.TaggedHash("shared"))
	require.NoError(t, err)
	require.Len(t, occ, 3)
	assert.Equal(t, "org/repo", occ[0].Repository)
	assert.Equal(t, "org/other", occ[2].Repository)
	assert.Equal(t, "cfg/prod.env", occ[2].FilePath)

	occ, err = s.FindBySecretHash(ctx, fingerprint.TaggedHash("nope"))
	require.NoError(t, err)
	assert.Empty(t, occ)
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(Config{Driver: "redis"})
	assert.Error(t, err)
	_, err = Open(Config{Driver: DriverFile})
	assert.Error(t, err)
}
