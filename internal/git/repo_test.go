package git

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	gogit "github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func initRepo(t *testing.T) (string, *gogit.Repository) {
	t.Helper()
	dir := t.TempDir()
	repo, err := gogit.PlainInit(dir, false)
	require.NoError(t, err)
	return dir, repo
}

func commit(t *testing.T, dir string, repo *gogit.Repository) string {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "f.txt"), []byte("A\n"), 0o644))
	wt, err := repo.Worktree()
	require.NoError(t, err)
	_, err = wt.Add("f.txt")
	require.NoError(t, err)
	h, err := wt.Commit("init", &gogit.CommitOptions{
		Author: &object.Signature{Name: "tester", Email: "test@example.com", When: time.Now()},
	})
	require.NoError(t, err)
	return h.String()
}

func TestRepoMetadata(t *testing.T) {
	dir, repo := initRepo(t)
	hash := commit(t, dir, repo)
	_, err := repo.CreateRemote(&gitconfig.RemoteConfig{Name: "origin", URLs: []string{"git@github.com:acme/payments.git"}})
	require.NoError(t, err)

	md, err := RepoMetadata(dir)
	require.NoError(t, err)
	assert.Equal(t, hash, md.Commit)
	assert.Equal(t, "master", md.Branch)
	assert.Equal(t, "acme", md.Owner)
	assert.Equal(t, "payments", md.Repository)
	assert.Equal(t, "acme/payments", md.FullName())
}

func TestRepoMetadata_NoRemoteNoCommits(t *testing.T) {
	dir, _ := initRepo(t)
	md, err := RepoMetadata(dir)
	require.NoError(t, err)
	assert.Empty(t, md.Commit)
	assert.Equal(t, filepath.Base(dir), md.Repository)
	assert.Equal(t, md.Repository, md.FullName())
}

func TestRepoMetadata_Subdirectory(t *testing.T) {
	dir, repo := initRepo(t)
	commit(t, dir, repo)
	sub := filepath.Join(dir, "pkg", "x")
	require.NoError(t, os.MkdirAll(sub, 0o755))
	md, err := RepoMetadata(sub)
	require.NoError(t, err)
	assert.NotEmpty(t, md.Commit)
}

func TestRepoMetadata_Errors(t *testing.T) {
	_, err := RepoMetadata(t.TempDir())
	assert.Error(t, err, "not a repository")
	_, err = RepoMetadata(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
	_, err = RepoMetadata("bad\x00path")
	assert.Error(t, err)
}

func TestParseRemoteURL(t *testing.T) {
	tests := []struct {
		in, owner, name string
	}{
		{"https://github.com/acme/payments.git", "acme", "payments"},
		{"https://github.com/acme/payments", "acme", "payments"},
		{"git@github.com:acme/payments.git", "acme", "payments"},
		{"ssh://git@gitlab.example.com:2222/group/sub/svc.git", "group/sub", "svc"},
		{"/srv/git/solo.git", "srv/git", "solo"},
		{"solo", "", "solo"},
		{"", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			owner, name := ParseRemoteURL(tt.in)
			assert.Equal(t, tt.owner, owner)
			assert.Equal(t, tt.name, name)
		})
	}
}
