// Package git reads the repository facts a scan context needs.
package git

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// Metadata describes the checked-out state of a repository.
type Metadata struct {
	Root       string
	Owner      string
	Repository string
	Branch     string // empty on a detached HEAD
	Commit     string
}

// FullName returns "owner/repo", or just the repository name.
func (m Metadata) FullName() string {
	if m.Owner == "" {
		return m.Repository
	}
	return m.Owner + "/" + m.Repository
}

// validateRoot validates and normalizes a git repository root path.
func validateRoot(root string) (string, error) {
	if strings.ContainsRune(root, 0) {
		return "", fmt.Errorf("invalid path: contains null byte")
	}
	abs, err := filepath.Abs(filepath.Clean(root))
	if err != nil {
		return "", fmt.Errorf("invalid path %q: %w", root, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("cannot access path %q: %w", root, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("path is not a directory: %s", root)
	}
	return abs, nil
}

// RepoMetadata opens the repository containing root. Owner and name come
// from the origin remote, falling back to the directory name.
func RepoMetadata(root string) (Metadata, error) {
	validRoot, err := validateRoot(root)
	if err != nil {
		return Metadata{}, err
	}
	repo, err := gogit.PlainOpenWithOptions(validRoot, &gogit.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return Metadata{}, fmt.Errorf("open repository %s: %w", validRoot, err)
	}

	md := Metadata{Root: validRoot}
	if wt, err := repo.Worktree(); err == nil {
		md.Root = wt.Filesystem.Root()
	}

	head, err := repo.Head()
	switch {
	case errors.Is(err, plumbing.ErrReferenceNotFound):
		// unborn branch: no commits yet
	case err != nil:
		return Metadata{}, fmt.Errorf("resolve HEAD: %w", err)
	default:
		md.Commit = head.Hash().String()
		if head.Name().IsBranch() {
			md.Branch = head.Name().Short()
		}
	}

	if remote, err := repo.Remote("origin"); err == nil && len(remote.Config().URLs) > 0 {
		md.Owner, md.Repository = ParseRemoteURL(remote.Config().URLs[0])
	}
	if md.Repository == "" {
		md.Repository = filepath.Base(md.Root)
	}
	return md, nil
}

// ParseRemoteURL extracts owner and repository name from an https, ssh or
// scp-style remote URL. Nested groups keep everything before the last
// element as the owner.
func ParseRemoteURL(raw string) (owner, name string) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", ""
	}
	var p string
	if u, err := url.Parse(s); err == nil && u.Scheme != "" && u.Host != "" {
		p = u.Path
	} else if i := strings.Index(s, ":"); i >= 0 && !strings.Contains(s[:i], "/") {
		p = s[i+1:]
	} else {
		p = s
	}
	p = strings.Trim(strings.TrimSuffix(strings.TrimSuffix(p, "/"), ".git"), "/")
	if p == "" {
		return "", ""
	}
	i := strings.LastIndex(p, "/")
	if i < 0 {
		return "", p
	}
	return p[:i], p[i+1:]
}
