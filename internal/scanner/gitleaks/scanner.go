package gitleaks

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/gitzen/gitzen/internal/scanner"
)

// Options configures a Scanner.
type Options struct {
	BinaryPath string
	ConfigPath string
	// NoGit scans the working tree instead of git history.
	NoGit bool
	// LogOpts is passed to git log, e.g. "main..HEAD" for a pull request.
	LogOpts string
}

// Scanner runs the gitleaks binary against a repository.
type Scanner struct {
	binaryPath string
	configPath string
	noGit      bool
	logOpts    string
	version    string
}

var _ scanner.Scanner = (*Scanner)(nil)

// NewScanner locates gitleaks and records its version.
func NewScanner(opts Options) (*Scanner, error) {
	bm := NewBinaryManager(opts.BinaryPath)
	binaryPath, err := bm.Find()
	if err != nil {
		return nil, fmt.Errorf("%w\n\n"+
			"To fix this:\n"+
			"  1. Install Gitleaks:\n"+
			"     macOS:   brew install gitleaks\n"+
			"     Other:   Download from https://github.com/gitleaks/gitleaks/releases\n"+
			"  2. Or specify explicit path in config:\n"+
			"     gitleaks:\n"+
			"       binary: /path/to/gitleaks", err)
	}
	version, err := bm.Version(binaryPath)
	if err != nil {
		version = "unknown"
	}
	return &Scanner{
		binaryPath: binaryPath,
		configPath: opts.ConfigPath,
		noGit:      opts.NoGit,
		logOpts:    opts.LogOpts,
		version:    version,
	}, nil
}

func (s *Scanner) Version() string { return s.version }

// ScanRepo runs gitleaks detect over root and parses the report. gitleaks
// exits 0 regardless of findings; a non-zero exit is a failure.
func (s *Scanner) ScanRepo(ctx context.Context, root string) (*scanner.Report, error) {
	reportFile, err := os.CreateTemp("", "gitzen-report-*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to create report file: %w", err)
	}
	reportPath := reportFile.Name()
	_ = reportFile.Close()
	defer func() {
		_ = os.Remove(reportPath) // report holds plaintext secrets
	}()
	if err := os.Chmod(reportPath, 0600); err != nil {
		return nil, fmt.Errorf("failed to secure report file: %w", err)
	}

	cmd := exec.CommandContext(ctx, s.binaryPath, s.args(root, reportPath)...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, wrapGitleaksError(err, stderr.String())
	}

	data, err := os.ReadFile(reportPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read gitleaks report: %w", err)
	}
	findings, err := ParseReportBytes(data)
	if err != nil {
		return nil, fmt.Errorf("%w (gitleaks %s; 8.18.0 or later recommended)", err, s.version)
	}
	return &scanner.Report{Raw: data, Findings: findings}, nil
}

func (s *Scanner) args(root, reportPath string) []string {
	args := []string{
		"detect",
		"--source", root,
		"--report-format", "json",
		"--report-path", reportPath,
		"--exit-code", "0",
		"--no-banner",
	}
	if s.noGit {
		args = append(args, "--no-git")
	} else if s.logOpts != "" {
		args = append(args, "--log-opts", s.logOpts)
	}
	configPath := s.configPath
	if configPath == "" {
		configPath = DetectConfigPath(root)
	}
	if configPath != "" {
		args = append(args, "--config", configPath)
	}
	return args
}

func wrapGitleaksError(err error, stderr string) error {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		errorMsg := fmt.Sprintf("gitleaks failed (exit code %d)", exitErr.ExitCode())
		switch {
		case contains(stderr, "config"), contains(stderr, ".toml"):
			errorMsg += "\n\nConfig file error detected. Check your .gitleaks.toml file:\n" +
				"  - Verify TOML syntax is valid\n" +
				"  - Check that all regex patterns are properly escaped"
		case contains(stderr, "permission denied"):
			errorMsg += "\n\nPermission denied. Check:\n" +
				"  - Gitleaks binary has execute permissions\n" +
				"  - You have read access to the repository"
		case contains(stderr, "not a git repository"):
			errorMsg += "\n\nSource is not a git repository; use --no-git to scan files."
		}
		errorMsg += fmt.Sprintf("\n\nGitleaks error output:\n%s", stderr)
		return errors.New(errorMsg)
	}
	return fmt.Errorf("gitleaks execution failed: %w\n\nError output:\n%s", err, stderr)
}

// DetectConfigPath returns the first gitleaks config found in the repository.
func DetectConfigPath(repoRoot string) string {
	candidates := []string{
		filepath.Join(repoRoot, ".gitleaks.toml"),
		filepath.Join(repoRoot, ".gitleaks", "config.toml"),
		filepath.Join(repoRoot, ".github", ".gitleaks.toml"),
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

func contains(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
