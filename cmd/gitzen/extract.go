package gitzen

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/gitzen/gitzen/internal/scanner/gitleaks"
	"github.com/gitzen/gitzen/internal/types"
)

var flagReport string

func init() {
	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Convert an existing gitleaks JSON report into a metadata document",
		Example: `  gitleaks detect --report-format json --report-path leaks.json --exit-code 0
  gitzen extract --report leaks.json --repository org/repo --branch main --out gitzen.json
  cat leaks.json | GITZEN_REPOSITORY=org/repo gitzen extract --report - --json`,
		Args: cobra.NoArgs,
		RunE: runExtract,
	}
	cmd.Flags().StringVarP(&flagReport, "report", "r", "", "gitleaks JSON report, or - for stdin")
	_ = cmd.MarkFlagRequired("report")
	addPipelineFlags(cmd)
	rootCmd.AddCommand(cmd)
}

func runExtract(cmd *cobra.Command, _ []string) error {
	start := time.Now()
	s, err := currentSettings()
	if err != nil {
		return err
	}
	raw, err := readInput(cmd.InOrStdin(), flagReport)
	if err != nil {
		return err
	}
	findings, err := gitleaks.ParseReportBytes(raw)
	if err != nil {
		return err
	}
	sc, err := scanContext(repoMetadata(flagPath), start)
	if err != nil {
		return err
	}
	return process(cmd.Context(), cmd, s, raw, findings, sc, start)
}

func readInput(stdin io.Reader, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read report: %w", err)
	}
	return b, nil
}

func readDocument(path string) (*types.MetadataDocument, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	var doc types.MetadataDocument
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("decode document %s: %w", path, err)
	}
	return &doc, nil
}
