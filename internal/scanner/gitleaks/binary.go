package gitleaks

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	semver "github.com/blang/semver/v4"
)

// ErrVersionMismatch is returned by CheckVersion.
var ErrVersionMismatch = errors.New("unsupported gitleaks version")

// BinaryManager locates the gitleaks binary.
type BinaryManager struct {
	customPath string
	binDir     string
}

// NewBinaryManager creates a binary manager. customPath, when set, is the
// only location considered.
func NewBinaryManager(customPath string) *BinaryManager {
	home, _ := os.UserHomeDir()
	return &BinaryManager{customPath: customPath, binDir: filepath.Join(home, ".gitzen", "bin")}
}

// Find returns the custom path if set, else gitleaks from $PATH, else
// ~/.gitzen/bin/gitleaks.
func (bm *BinaryManager) Find() (string, error) {
	if bm.customPath != "" {
		if _, err := os.Stat(bm.customPath); err != nil {
			return "", fmt.Errorf("custom gitleaks path not found: %s", bm.customPath)
		}
		return bm.customPath, nil
	}
	if p, err := exec.LookPath("gitleaks"); err == nil {
		return p, nil
	}
	name := "gitleaks"
	if runtime.GOOS == "windows" {
		name += ".exe"
	}
	local := filepath.Join(bm.binDir, name)
	if _, err := os.Stat(local); err != nil {
		return "", fmt.Errorf("gitleaks binary not found in PATH or %s", bm.binDir)
	}
	return local, nil
}

// Version runs `gitleaks version` and returns e.g. "8.18.0".
func (bm *BinaryManager) Version(binaryPath string) (string, error) {
	out, err := exec.Command(binaryPath, "version").Output()
	if err != nil {
		return "", fmt.Errorf("gitleaks version: %w", err)
	}
	return parseVersion(string(out)), nil
}

func parseVersion(out string) string {
	v, _, _ := strings.Cut(strings.TrimSpace(out), "\n")
	v = strings.TrimPrefix(strings.TrimSpace(v), "version ")
	return strings.TrimPrefix(v, "v")
}

// CheckVersion accepts found when it shares min's major version and is not
// older. The report format changed across majors.
func CheckVersion(found, min string) error {
	want, err := semver.ParseTolerant(min)
	if err != nil {
		return fmt.Errorf("invalid minimum gitleaks version %q: %w", min, err)
	}
	got, err := semver.ParseTolerant(found)
	if err != nil {
		return fmt.Errorf("%w: cannot parse %q", ErrVersionMismatch, found)
	}
	if got.Major != want.Major || got.LT(want) {
		return fmt.Errorf("%w: found %s, need >= %s and < %d.0.0", ErrVersionMismatch, got, want, want.Major+1)
	}
	return nil
}
