package gitzen

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/gitzen/gitzen/internal/metadata"
	"github.com/gitzen/gitzen/internal/store"
)

var (
	flagRelatedDoc        string
	flagRelatedID         string
	flagRelatedSecretHash string
)

func init() {
	cmd := &cobra.Command{
		Use:   "related",
		Short: "Find findings related to a finding, or every occurrence of a secret hash",
		Long: "With --doc and --id, lists findings in the same document that share the finding's " +
			"secret type and directory. With --secret-hash, searches the sqlite document store for " +
			"every stored occurrence of that hash across repositories.",
		Example: `  gitzen related --doc gitzen.json --id sha256:3f1c...
  gitzen related --secret-hash sha256:9a0b... --store-driver sqlite --store-path gitzen.db`,
		Args: cobra.NoArgs,
		RunE: runRelated,
	}
	cmd.Flags().StringVar(&flagRelatedDoc, "doc", "", "metadata document")
	cmd.Flags().StringVar(&flagRelatedID, "id", "", "finding_id within --doc")
	cmd.Flags().StringVar(&flagRelatedSecretHash, "secret-hash", "", "secret_hash to look up in the store")
	cmd.Flags().StringVar(&flagStoreDriver, "store-driver", "", "store driver; lookups need sqlite")
	cmd.Flags().StringVar(&flagStorePath, "store-path", "", "store database file")
	cmd.MarkFlagsRequiredTogether("doc", "id")
	cmd.MarkFlagsMutuallyExclusive("id", "secret-hash")
	cmd.MarkFlagsOneRequired("id", "secret-hash")
	rootCmd.AddCommand(cmd)
}

// secretIndex is implemented by stores that can search by secret hash.
type secretIndex interface {
	FindBySecretHash(ctx context.Context, secretHash string) ([]store.Occurrence, error)
}

func runRelated(cmd *cobra.Command, _ []string) error {
	w := cmd.OutOrStdout()
	if flagRelatedSecretHash != "" {
		return relatedBySecret(cmd.Context(), cmd)
	}

	doc, err := readDocument(flagRelatedDoc)
	if err != nil {
		return err
	}
	rel, err := metadata.Related(doc, flagRelatedID)
	if err != nil {
		return err
	}
	if flagJSON {
		return writeJSON(w, rel)
	}
	if len(rel) == 0 {
		fmt.Fprintln(w, "No related findings")
		return nil
	}
	table := tablewriter.NewWriter(w)
	table.Header("Finding", "Severity", "Rule", "Location")
	for _, f := range rel {
		if err := table.Append([]string{f.FindingID, string(f.Severity), f.SecretType, f.FilePath + ":" + strconv.Itoa(f.LineNumber)}); err != nil {
			return err
		}
	}
	return table.Render()
}

func relatedBySecret(ctx context.Context, cmd *cobra.Command) error {
	s, err := resolveSettings(flagPath, "", flagStoreDriver, flagStorePath, "", "", 0)
	if err != nil {
		return err
	}
	st, err := store.Open(s.store)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()
	idx, ok := st.(secretIndex)
	if !ok {
		return errors.New("secret hash lookup needs the sqlite store (--store-driver sqlite)")
	}
	occ, err := idx.FindBySecretHash(ctx, flagRelatedSecretHash)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if flagJSON {
		return writeJSON(w, occ)
	}
	if len(occ) == 0 {
		fmt.Fprintln(w, "No stored occurrences")
		return nil
	}
	table := tablewriter.NewWriter(w)
	table.Header("Repository", "Branch", "Commit", "Rule", "Location")
	for _, o := range occ {
		if err := table.Append([]string{o.Repository, o.Branch, shortSHA(o.CommitHash), o.SecretType, o.FilePath + ":" + strconv.Itoa(o.LineNumber)}); err != nil {
			return err
		}
	}
	return table.Render()
}

func shortSHA(c string) string {
	if len(c) > 8 {
		return c[:8]
	}
	return c
}
