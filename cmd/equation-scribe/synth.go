package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/equation-scribe/internal/render"
	"github.com/pdiddy/equation-scribe/internal/synth"
	"github.com/pdiddy/equation-scribe/internal/tools"
	"github.com/pdiddy/equation-scribe/pkg/types"
)

var synthCmd = &cobra.Command{
	Use:   "synth",
	Short: "Generate synthetic pages with known equation boxes",
	Long: `Synth renders equations from a built-in corpus (via pdflatex when
available, a bitmap-font fallback otherwise), pastes them onto blank pages at
random non-overlapping positions, and writes COCO annotations plus a per-page
meta sidecar holding the gold LaTeX for each box.`,
	RunE: runSynth,
}

func init() {
	synthCmd.Flags().Int("pages", 0, "number of pages to generate (default 50)")
	synthCmd.Flags().Int("eqs-per-page", 0, "equations pasted per page (default 5)")
	synthCmd.Flags().Int("dpi", 0, "equation rendering resolution (default 150)")
	synthCmd.Flags().Int64("seed", 0, "random seed for equation choice and placement")
	synthCmd.Flags().String("out-images", "synth/images", "output directory for page images")
	synthCmd.Flags().String("out-anns", "synth/instances_all.json", "output COCO annotations path")

	rootCmd.AddCommand(synthCmd)
}

func runSynth(cmd *cobra.Command, args []string) error {
	pages, _ := cmd.Flags().GetInt("pages")
	eqsPerPage, _ := cmd.Flags().GetInt("eqs-per-page")
	dpi, _ := cmd.Flags().GetInt("dpi")
	seed, _ := cmd.Flags().GetInt64("seed")
	outImages, _ := cmd.Flags().GetString("out-images")
	outAnns, _ := cmd.Flags().GetString("out-anns")

	cfg := types.SynthConfig{
		Pages:      pages,
		EqsPerPage: eqsPerPage,
		DPI:        dpi,
		Seed:       seed,
	}

	_, err := synth.Generate(render.New(tools.ExecRunner{}), cfg, outImages, outAnns, os.Stdout)
	return err
}
