package gitzen

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/gitzen/gitzen/internal/config"
	"github.com/gitzen/gitzen/internal/lifecycle"
	"github.com/gitzen/gitzen/internal/report"
	"github.com/gitzen/gitzen/internal/store"
)

var (
	cfgOutput       string
	cfgForce        bool
	cfgFailOn       string
	cfgDiffKey      string
	cfgStoreDriver  string
	cfgStorePath    string
	cfgSuppressions string
	cfgWorkers      int
	cfgLogFormat    string
	cfgUploadURL    string
	cfgNoColor      bool
)

func init() {
	cfgCmd := &cobra.Command{Use: "config", Short: "Configuration helpers"}
	rootCmd.AddCommand(cfgCmd)

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Generate a .gitzen.yml",
		Args:  cobra.NoArgs,
		RunE:  runConfigInit,
	}
	cfgCmd.AddCommand(initCmd)

	initCmd.Flags().StringVar(&cfgOutput, "output", ".gitzen.yml", "output file path")
	initCmd.Flags().BoolVar(&cfgForce, "force", false, "overwrite an existing file")
	initCmd.Flags().StringVar(&cfgFailOn, "fail-on", config.DefaultFailOn, "severity threshold that fails the run")
	initCmd.Flags().StringVar(&cfgDiffKey, "diff-key", config.DefaultDiffKey, "match | finding_id")
	initCmd.Flags().StringVar(&cfgStoreDriver, "store-driver", config.DefaultStoreDriver, "file | sqlite")
	initCmd.Flags().StringVar(&cfgStorePath, "store-path", config.DefaultStorePath, "store directory or database file")
	initCmd.Flags().StringVar(&cfgSuppressions, "suppressions", "", "suppression rules file")
	initCmd.Flags().IntVar(&cfgWorkers, "workers", 0, "batch concurrency (0 = default)")
	initCmd.Flags().StringVar(&cfgLogFormat, "log-format", "", "text | json")
	initCmd.Flags().StringVar(&cfgUploadURL, "upload-url", "", "dashboard ingestion endpoint")
	initCmd.Flags().BoolVar(&cfgNoColor, "no-color", false, "disable color output by default")
}

func runConfigInit(cmd *cobra.Command, _ []string) error {
	failOn, err := report.ParseFailOn(cfgFailOn)
	if err != nil {
		return err
	}
	if _, err := lifecycle.ParseKey(cfgDiffKey); err != nil {
		return err
	}
	if cfgStoreDriver != store.DriverFile && cfgStoreDriver != store.DriverSQLite {
		return fmt.Errorf("invalid --store-driver %q (want file|sqlite)", cfgStoreDriver)
	}
	if _, err := os.Stat(cfgOutput); err == nil && !cfgForce {
		return fmt.Errorf("%s exists (use --force to overwrite)", cfgOutput)
	}

	fc := config.FileConfig{
		FailOn:       strPtr(failOn),
		DiffKey:      strPtr(cfgDiffKey),
		Suppressions: optStrPtr(cfgSuppressions),
		Workers:      intPtr(cfgWorkers),
		Store: &config.StoreConfig{
			Driver: strPtr(cfgStoreDriver),
			Path:   strPtr(cfgStorePath),
		},
	}
	if cfgNoColor {
		fc.NoColor = boolPtr(true)
	}
	if f := optStrPtr(cfgLogFormat); f != nil {
		fc.Log = &config.LogConfig{Format: f}
	}
	if u := optStrPtr(cfgUploadURL); u != nil {
		fc.Upload = &config.UploadConfig{URL: u}
	}

	b, err := yaml.Marshal(&fc)
	if err != nil {
		return err
	}
	if err := os.WriteFile(cfgOutput, b, 0o644); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Wrote", cfgOutput)
	return nil
}

func strPtr(s string) *string { return &s }
func optStrPtr(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
func intPtr(v int) *int {
	if v == 0 {
		return nil
	}
	return &v
}
func boolPtr(v bool) *bool { return &v }
