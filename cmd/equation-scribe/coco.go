package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/equation-scribe/internal/cocobuild"
	"github.com/pdiddy/equation-scribe/internal/tools"
)

var cocoCmd = &cobra.Command{
	Use:   "coco",
	Short: "Build COCO annotations from equation profiles",
	Long: `Coco walks every equations.jsonl under the profiles root, converts each
box from PDF points to pixels on its rendered page image, and writes a single
COCO annotations file. When the source PDF is available its true page geometry
drives the conversion; otherwise a letter-width fallback is derived from the
image dimensions.`,
	RunE: runCoco,
}

func init() {
	cocoCmd.Flags().String("profiles-dir", "profiles", "root directory for paper profiles")
	cocoCmd.Flags().String("pages-dir", "pages", "directory holding rendered page images")
	cocoCmd.Flags().String("pdf-dir", "", "optional directory holding source PDFs")
	cocoCmd.Flags().Int("dpi", defaultDPI, "rasterization DPI used for the page images")
	cocoCmd.Flags().String("out", "annotations.json", "output COCO annotations path")

	rootCmd.AddCommand(cocoCmd)
}

func runCoco(cmd *cobra.Command, args []string) error {
	profilesDir, _ := cmd.Flags().GetString("profiles-dir")
	pagesDir, _ := cmd.Flags().GetString("pages-dir")
	pdfDir, _ := cmd.Flags().GetString("pdf-dir")
	dpi, _ := cmd.Flags().GetInt("dpi")
	out, _ := cmd.Flags().GetString("out")

	opts := cocobuild.Options{
		ProfilesRoot: profilesDir,
		PagesDir:     pagesDir,
		PDFRoot:      pdfDir,
		DPI:          dpi,
	}

	_, err := cocobuild.Build(tools.ExecRunner{}, opts, out, os.Stdout)
	return err
}
