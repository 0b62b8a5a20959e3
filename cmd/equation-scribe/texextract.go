package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/equation-scribe/internal/profile"
	"github.com/pdiddy/equation-scribe/internal/texscan"
)

var texExtractCmd = &cobra.Command{
	Use:   "tex-extract [tex files...]",
	Short: "Extract display equations from LaTeX sources",
	Long: `Tex-extract scans LaTeX source files for display math (equation, align,
gather and multline environments, \[...\] and $$ blocks) and writes the
extracted expressions to the paper's equations.jsonl profile. The paper ID
defaults to the file stem.`,
	RunE: runTexExtract,
}

func init() {
	texExtractCmd.Flags().String("paper-id", "", "paper ID (default: the tex file stem; only valid with a single file)")
	texExtractCmd.Flags().String("profiles-dir", "profiles", "root directory for paper profiles")
	texExtractCmd.Flags().Bool("force", false, "overwrite an existing equations.jsonl")

	rootCmd.AddCommand(texExtractCmd)
}

func runTexExtract(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("provide one or more .tex files")
	}

	paperID, _ := cmd.Flags().GetString("paper-id")
	profilesDir, _ := cmd.Flags().GetString("profiles-dir")
	force, _ := cmd.Flags().GetBool("force")

	if paperID != "" && len(args) > 1 {
		return fmt.Errorf("--paper-id only applies to a single file")
	}

	failed := 0
	for _, texPath := range args {
		id := paperID
		if id == "" {
			id = strings.TrimSuffix(filepath.Base(texPath), filepath.Ext(texPath))
		}

		regions, err := texscan.ScanFile(texPath)
		if err != nil {
			fmt.Fprintf(os.Stdout, "failed %s: %v\n", id, err)
			failed++
			continue
		}
		records := texscan.ToEquations(regions, id)

		dir, err := profile.PaperDir(profilesDir, id)
		if err != nil {
			return err
		}
		if err := profile.WriteEquations(dir, records, force); err != nil {
			fmt.Fprintf(os.Stdout, "failed %s: %v\n", id, err)
			failed++
			continue
		}
		if err := profile.RegisterPaper(profilesDir, id, "", len(records), true); err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "extracted %s: %d equations\n", id, len(records))
	}

	if failed > 0 {
		return fmt.Errorf("%d file(s) failed", failed)
	}
	return nil
}
