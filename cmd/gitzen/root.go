package gitzen

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/gitzen/gitzen/internal/config"
	"github.com/gitzen/gitzen/internal/logging"
)

var (
	flagPath    string
	flagJSON    bool
	flagSARIF   bool
	flagFailOn  string
	flagNoColor bool
	flagNoAudit bool

	version = "0.1.0"

	logger = logging.Discard()
)

// rootCmd is the base Cobra command for the gitzen CLI.
var rootCmd = &cobra.Command{
	Use:   "gitzen",
	Short: "Turn secret-scanner output into privacy-safe metadata",
	Long: "gitzen converts gitleaks findings into sanitized metadata documents: secrets and author " +
		"identities are replaced by one-way hashes, findings get stable fingerprints and severities, " +
		"and consecutive scans are diffed into new, resolved and persistent findings.",
	Version:           version,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setupLogging,
}

// failError signals a completed run whose outcome should fail the build.
type failError struct{ msg string }

func (e *failError) Error() string { return e.msg }

// Execute runs the gitzen CLI. Exit status is 1 when a fail threshold trips
// or validation finds a violation, 2 on any other error.
func Execute() {
	os.Exit(run(rootCmd, os.Stderr))
}

func run(cmd *cobra.Command, stderr io.Writer) int {
	err := cmd.Execute()
	var fe *failError
	switch {
	case err == nil:
		return 0
	case errors.As(err, &fe):
		fmt.Fprintln(stderr, fe.Error())
		return 1
	default:
		fmt.Fprintln(stderr, "error:", err)
		return 2
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&flagPath, "path", "p", ".", "repository root (config, git metadata, audit log)")
	pf.BoolVar(&flagJSON, "json", false, "emit JSON")
	pf.BoolVar(&flagSARIF, "sarif", false, "emit SARIF 2.1.0")
	pf.StringVar(&flagFailOn, "fail-on", "", "fail on critical|high|medium|low|info|none (default high)")
	pf.BoolVar(&flagNoColor, "no-color", false, "disable colorized output")
	pf.BoolVar(&flagNoAudit, "no-audit", false, "do not append to the audit log")
	pf.String("log-level", "", "debug|info|warn|error")
	pf.String("log-format", "", "text|json")
	_ = viper.BindPFlag("log-level", pf.Lookup("log-level"))
	_ = viper.BindPFlag("log-format", pf.Lookup("log-format"))
	addContextFlags(pf)

	// GITZEN_REPOSITORY, GITZEN_PR_NUMBER, GITZEN_LOG_LEVEL, ...
	viper.SetEnvPrefix("GITZEN")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()
}

func setupLogging(cmd *cobra.Command, _ []string) error {
	lcfg, gcfg := loadConfigs(flagPath)
	level := pickString(viper.GetString("log-level"), lcfg.LogLevel(), gcfg.LogLevel())
	format := pickString(viper.GetString("log-format"), lcfg.LogFormat(), gcfg.LogFormat())
	l, err := logging.New(cmd.ErrOrStderr(), config.Or(&level, config.DefaultLogLevel), config.Or(&format, config.DefaultLogFormat))
	if err != nil {
		return err
	}
	logger = l
	slog.SetDefault(l)
	return nil
}
