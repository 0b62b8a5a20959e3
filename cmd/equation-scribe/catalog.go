package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/pdiddy/equation-scribe/internal/catalog"
	"github.com/pdiddy/equation-scribe/pkg/types"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Index and search equation profiles",
	Long: `Catalog maintains a SQLite database over every paper profile, with
full-text search across the LaTeX. Index is incremental: profiles whose
equations.jsonl has not changed since the last run are skipped.`,
}

var catalogIndexCmd = &cobra.Command{
	Use:   "index",
	Short: "Ingest equation profiles into the catalog database",
	RunE:  runCatalogIndex,
}

var catalogQueryCmd = &cobra.Command{
	Use:   "query [terms...]",
	Short: "Search the catalog",
	Long: `Query searches the catalog with FTS5 full-text search over the LaTeX.
Without search terms it lists equations, optionally filtered by paper.`,
	RunE: runCatalogQuery,
}

func init() {
	catalogCmd.PersistentFlags().String("data-root", "profiles", "profiles root holding the catalog database")
	catalogCmd.PersistentFlags().Int("max-results", 0, "maximum query results (default 20)")

	catalogQueryCmd.Flags().String("paper", "", "filter results by paper ID")
	catalogQueryCmd.Flags().Bool("json", false, "print results as JSON")

	catalogCmd.AddCommand(catalogIndexCmd)
	catalogCmd.AddCommand(catalogQueryCmd)
	rootCmd.AddCommand(catalogCmd)
}

func openCatalog(cmd *cobra.Command) (*catalog.Store, error) {
	dataRoot, _ := cmd.Flags().GetString("data-root")
	maxResults, _ := cmd.Flags().GetInt("max-results")

	return catalog.NewStore(types.CatalogConfig{
		DataRoot:   dataRoot,
		MaxResults: maxResults,
	})
}

func runCatalogIndex(cmd *cobra.Command, args []string) error {
	store, err := openCatalog(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	_, err = store.Ingest(cmd.Context(), os.Stdout)
	return err
}

func runCatalogQuery(cmd *cobra.Command, args []string) error {
	paperID, _ := cmd.Flags().GetString("paper")
	asJSON, _ := cmd.Flags().GetBool("json")
	maxResults, _ := cmd.Flags().GetInt("max-results")

	opts := catalog.QueryOptions{
		Query:      strings.Join(args, " "),
		PaperID:    paperID,
		MaxResults: maxResults,
	}
	if opts.IsEmpty() {
		return fmt.Errorf("provide search terms or --paper")
	}

	store, err := openCatalog(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	results, err := store.Retrieve(cmd.Context(), opts)
	if err != nil {
		return err
	}

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(results)
	}

	if len(results) == 0 {
		fmt.Println("No results.")
		return nil
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "EQ_UID\tPAPER\tLATEX")
	for _, r := range results {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", r.EqUID, r.PaperID, truncate(r.Latex, 60))
	}
	return tw.Flush()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
