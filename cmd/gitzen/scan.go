package gitzen

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/gitzen/gitzen/internal/scanner/gitleaks"
)

var (
	flagNoGit          bool
	flagLogOpts        string
	flagGitleaksConfig string
	flagGitleaksBinary string
)

func init() {
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Run gitleaks on a repository and extract a metadata document",
		Long: "scan runs gitleaks against --path, then sanitizes its report exactly like extract. " +
			"Repository, branch and commit default to what the git checkout says.",
		Example: `  gitzen scan
  gitzen scan --store --fail-on critical
  gitzen scan --log-opts origin/main..HEAD --trigger pull_request --pr-number 42 --sarif > gitzen.sarif`,
		Args: cobra.NoArgs,
		RunE: runScan,
	}
	cmd.Flags().BoolVar(&flagNoGit, "no-git", false, "scan the working tree instead of git history")
	cmd.Flags().StringVar(&flagLogOpts, "log-opts", "", "git log options passed to gitleaks, e.g. main..HEAD")
	cmd.Flags().StringVar(&flagGitleaksConfig, "gitleaks-config", "", "path to a .gitleaks.toml")
	cmd.Flags().StringVar(&flagGitleaksBinary, "gitleaks-binary", "", "path to the gitleaks binary")
	addPipelineFlags(cmd)
	rootCmd.AddCommand(cmd)
}

func runScan(cmd *cobra.Command, _ []string) error {
	start := time.Now()
	s, err := currentSettings()
	if err != nil {
		return err
	}
	sc, err := scanContext(repoMetadata(flagPath), start)
	if err != nil {
		return err
	}

	scn, err := gitleaks.NewScanner(gitleaks.Options{
		BinaryPath: orDefault(flagGitleaksBinary, s.gitleaksBin),
		ConfigPath: orDefault(flagGitleaksConfig, s.gitleaksCfg),
		NoGit:      flagNoGit,
		LogOpts:    flagLogOpts,
	})
	if err != nil {
		return err
	}
	if s.gitleaksMin != "" {
		if err := gitleaks.CheckVersion(scn.Version(), s.gitleaksMin); err != nil {
			return err
		}
	}
	if viper.GetString("scanner-version") == "" {
		sc.ScannerVersion = scn.Version()
	}

	logger.Info("running gitleaks", "path", flagPath, "version", scn.Version(), "no_git", flagNoGit)
	rep, err := scn.ScanRepo(cmd.Context(), flagPath)
	if err != nil {
		return fmt.Errorf("gitleaks: %w", err)
	}
	return process(cmd.Context(), cmd, s, rep.Raw, rep.Findings, sc, start)
}
