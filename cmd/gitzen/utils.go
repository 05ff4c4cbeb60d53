package gitzen

import (
	"os"
	"path/filepath"

	"golang.org/x/term"

	"github.com/gitzen/gitzen/internal/config"
	"github.com/gitzen/gitzen/internal/lifecycle"
	"github.com/gitzen/gitzen/internal/report"
	"github.com/gitzen/gitzen/internal/store"
	"github.com/gitzen/gitzen/internal/suppress"
)

// loadConfigs returns (local, global); missing files yield zero configs.
func loadConfigs(root string) (config.FileConfig, config.FileConfig) {
	var gcfg, lcfg config.FileConfig
	if c, err := config.LoadGlobal(); err == nil {
		gcfg = c
	}
	if c, err := config.LoadLocal(root); err == nil {
		lcfg = c
	}
	return lcfg, gcfg
}

// settings are the resolved values shared by extract, scan and batch.
type settings struct {
	root         string
	failOn       string
	diffKey      lifecycle.Key
	noColor      bool
	audit        bool
	workers      int
	store        store.Config
	suppressions string
	uploadURL    string
	uploadToken  string
	gitleaksBin  string
	gitleaksCfg  string
	gitleaksMin  string
}

// resolveSettings applies CLI > local > global > default.
func resolveSettings(root, cliDiffKey, cliStoreDriver, cliStorePath, cliSuppressions, cliUploadURL string, cliWorkers int) (settings, error) {
	lcfg, gcfg := loadConfigs(root)
	s := settings{root: root}

	failOn, err := report.ParseFailOn(orDefault(pickString(flagFailOn, lcfg.FailOn, gcfg.FailOn), config.DefaultFailOn))
	if err != nil {
		return s, err
	}
	s.failOn = failOn
	key, err := lifecycle.ParseKey(orDefault(pickString(cliDiffKey, lcfg.DiffKey, gcfg.DiffKey), config.DefaultDiffKey))
	if err != nil {
		return s, err
	}
	s.diffKey = key
	s.noColor = pickBool(flagNoColor, lcfg.NoColor, gcfg.NoColor) || !term.IsTerminal(int(os.Stdout.Fd()))
	s.audit = !flagNoAudit && pickBool(false, lcfg.Audit, gcfg.Audit, true)
	s.workers = pickInt(cliWorkers, lcfg.Workers, gcfg.Workers)
	if s.workers == 0 {
		s.workers = config.DefaultWorkers
	}
	s.store = store.Config{
		Driver: orDefault(pickString(cliStoreDriver, lcfg.StoreDriver(), gcfg.StoreDriver()), config.DefaultStoreDriver),
		Path:   inRoot(root, orDefault(pickString(cliStorePath, lcfg.StorePath(), gcfg.StorePath()), config.DefaultStorePath)),
	}
	if sp := pickString(cliSuppressions, lcfg.Suppressions, gcfg.Suppressions); sp != "" {
		s.suppressions = inRoot(root, sp)
	}
	s.uploadURL = pickString(cliUploadURL, lcfg.UploadURL(), gcfg.UploadURL())
	tokenEnv := lcfg.UploadTokenEnv()
	if lcfg.Upload == nil {
		tokenEnv = gcfg.UploadTokenEnv()
	}
	s.uploadToken = os.Getenv(tokenEnv)
	s.gitleaksBin = pickString("", lcfg.GitleaksBinary(), gcfg.GitleaksBinary())
	s.gitleaksCfg = pickString("", lcfg.GitleaksConfigPath(), gcfg.GitleaksConfigPath())
	s.gitleaksMin = pickString("", lcfg.GitleaksVersion(), gcfg.GitleaksVersion())
	return s, nil
}

func (s settings) loadSuppressions() (*suppress.Set, error) {
	if s.suppressions == "" {
		return suppress.Load(filepath.Join(s.root, ".gitzen-suppressions.yml"))
	}
	return suppress.Load(s.suppressions)
}

func inRoot(root, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(root, p)
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func pickString(cli string, local, global *string) string {
	if cli != "" {
		return cli
	}
	if local != nil && *local != "" {
		return *local
	}
	if global != nil && *global != "" {
		return *global
	}
	return ""
}

func pickInt(cli int, local, global *int) int {
	if cli != 0 {
		return cli
	}
	if local != nil && *local != 0 {
		return *local
	}
	if global != nil && *global != 0 {
		return *global
	}
	return 0
}

// pickBool returns true when cli is set, otherwise the first configured
// value, otherwise def (false when omitted).
func pickBool(cli bool, local, global *bool, def ...bool) bool {
	if cli {
		return true
	}
	if local != nil {
		return *local
	}
	if global != nil {
		return *global
	}
	return len(def) > 0 && def[0]
}
