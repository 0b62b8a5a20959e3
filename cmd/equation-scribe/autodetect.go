package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/equation-scribe/internal/detect"
	"github.com/pdiddy/equation-scribe/internal/pdfingest"
	"github.com/pdiddy/equation-scribe/internal/profile"
	"github.com/pdiddy/equation-scribe/internal/tools"
	"github.com/pdiddy/equation-scribe/pkg/types"
)

const defaultMinScore = 0.6

var autodetectCmd = &cobra.Command{
	Use:   "autodetect [pdfs...]",
	Short: "Heuristically detect equation regions in PDF text layers",
	Long: `Autodetect scans each PDF's text layer for equation-like lines (math
symbols, isolation from body text, trailing equation numbers) and writes the
candidates above the score threshold to the paper's equations.jsonl profile.`,
	RunE: runAutodetect,
}

func init() {
	autodetectCmd.Flags().Float64("min-score", defaultMinScore, "minimum candidate score to keep")
	autodetectCmd.Flags().String("profiles-dir", "profiles", "root directory for paper profiles")
	autodetectCmd.Flags().Int("dpi", defaultDPI, "rasterization resolution recorded in the profile")
	autodetectCmd.Flags().Bool("force", false, "overwrite an existing equations.jsonl")

	rootCmd.AddCommand(autodetectCmd)
}

func runAutodetect(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("provide one or more PDF paths")
	}

	minScore, _ := cmd.Flags().GetFloat64("min-score")
	profilesDir, _ := cmd.Flags().GetString("profiles-dir")
	dpi, _ := cmd.Flags().GetInt("dpi")
	force, _ := cmd.Flags().GetBool("force")

	cfg := types.DetectConfig{MinScore: minScore}

	runner := tools.ExecRunner{}
	failed := 0
	for _, pdfPath := range args {
		paperID := strings.TrimSuffix(filepath.Base(pdfPath), filepath.Ext(pdfPath))

		doc, err := pdfingest.Open(runner, pdfPath, dpi)
		if err != nil {
			fmt.Fprintf(os.Stdout, "failed %s: %v\n", paperID, err)
			failed++
			continue
		}

		records, err := detect.AutoDetect(doc, paperID, cfg.MinScore, os.Stdout)
		if err != nil {
			fmt.Fprintf(os.Stdout, "failed %s: %v\n", paperID, err)
			failed++
			continue
		}

		dir, err := profile.PaperDir(profilesDir, paperID)
		if err != nil {
			return err
		}
		if err := profile.WriteEquations(dir, records, force); err != nil {
			fmt.Fprintf(os.Stdout, "failed %s: %v\n", paperID, err)
			failed++
			continue
		}
		if err := profile.RegisterPaper(profilesDir, paperID, filepath.Base(pdfPath), len(records), true); err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "detected %s: %d equations\n", paperID, len(records))
	}

	if failed > 0 {
		return fmt.Errorf("%d paper(s) failed", failed)
	}
	return nil
}
