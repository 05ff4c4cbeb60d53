package gitzen

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/gitzen/gitzen/internal/git"
	"github.com/gitzen/gitzen/internal/types"
)

var contextKeys = []string{"repository", "owner", "branch", "commit", "trigger", "pr-number", "scanner-version", "scan-timestamp"}

func addContextFlags(pf *pflag.FlagSet) {
	pf.String("repository", "", "repository name or owner/name [GITZEN_REPOSITORY]")
	pf.String("owner", "", "repository owner [GITZEN_OWNER]")
	pf.String("branch", "", "branch scanned [GITZEN_BRANCH]")
	pf.String("commit", "", "commit scanned [GITZEN_COMMIT]")
	pf.String("trigger", "", "pull_request|push|schedule|manual [GITZEN_TRIGGER]")
	pf.Int("pr-number", 0, "pull request number [GITZEN_PR_NUMBER]")
	pf.String("scanner-version", "", "gitleaks version that produced the report")
	pf.String("scan-timestamp", "", "RFC 3339 scan time (default now)")
	for _, k := range contextKeys {
		_ = viper.BindPFlag(k, pf.Lookup(k))
	}
}

// scanContext builds the context from flags and GITZEN_* variables. Fields
// left empty are filled from md when it is non-nil.
func scanContext(md *git.Metadata, now time.Time) (types.ScanContext, error) {
	trigger, err := types.ParseTrigger(viper.GetString("trigger"))
	if err != nil {
		return types.ScanContext{}, err
	}
	sc := types.ScanContext{
		Repository:     viper.GetString("repository"),
		Owner:          viper.GetString("owner"),
		Branch:         viper.GetString("branch"),
		CommitHash:     viper.GetString("commit"),
		Trigger:        trigger,
		ScanTimestamp:  now.UTC(),
		ScannerVersion: viper.GetString("scanner-version"),
	}
	if ts := viper.GetString("scan-timestamp"); ts != "" {
		t, err := time.Parse(time.RFC3339, ts)
		if err != nil {
			return types.ScanContext{}, fmt.Errorf("invalid scan-timestamp: %w", err)
		}
		sc.ScanTimestamp = t.UTC()
	}
	if n := viper.GetInt("pr-number"); n != 0 {
		sc.PRNumber = &n
	}
	if md != nil {
		if sc.Repository == "" {
			sc.Repository = md.Repository
			if sc.Owner == "" {
				sc.Owner = md.Owner
			}
		}
		if sc.Branch == "" {
			sc.Branch = md.Branch
		}
		if sc.CommitHash == "" {
			sc.CommitHash = md.Commit
		}
	}
	return sc, nil
}

// repoMetadata is best effort; a non-repository path yields nil.
func repoMetadata(root string) *git.Metadata {
	md, err := git.RepoMetadata(root)
	if err != nil {
		logger.Debug("no git metadata", "path", root, "error", err)
		return nil
	}
	return &md
}
