package gitzen

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gitzen/gitzen/internal/privacy"
)

func init() {
	rootCmd.AddCommand(&cobra.Command{
		Use:   "validate FILE...",
		Short: "Check JSON files for fields that could carry secrets or identities",
		Long: "validate walks every key of each JSON file and reports keys on the privacy " +
			"denylist (secret, match, email, author, ...), with their JSON path. Values are never printed.",
		Args: cobra.MinimumNArgs(1),
		RunE: runValidate,
	})
}

func runValidate(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	failed := 0
	for _, path := range args {
		b, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		err = privacy.ValidateJSON(b)
		var ve *privacy.ViolationError
		switch {
		case err == nil:
			fmt.Fprintf(out, "ok    %s\n", path)
		case errors.As(err, &ve):
			failed++
			fmt.Fprintf(out, "FAIL  %s\n", path)
			for _, v := range ve.Violations {
				fmt.Fprintf(out, "      %s\n", v.Path)
			}
		default:
			return fmt.Errorf("%s: %w", path, err)
		}
	}
	if failed > 0 {
		return &failError{msg: fmt.Sprintf("%d of %d files violate the privacy policy", failed, len(args))}
	}
	return nil
}
