package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/equation-scribe/internal/pdfingest"
	"github.com/pdiddy/equation-scribe/internal/tools"
	"github.com/pdiddy/equation-scribe/pkg/types"
)

const defaultDPI = 300

var ingestCmd = &cobra.Command{
	Use:   "ingest [pdfs...]",
	Short: "Rasterize PDF pages into per-paper image folders",
	Long: `Ingest opens each PDF with the poppler tools and renders every page as
pages/<paper>/page_0000.png at the configured DPI. The paper ID is the PDF
file stem.`,
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().Int("dpi", defaultDPI, "rasterization resolution")
	ingestCmd.Flags().String("pages-dir", "pages", "output directory for rendered pages")

	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("provide one or more PDF paths")
	}

	dpi, _ := cmd.Flags().GetInt("dpi")
	pagesDir, _ := cmd.Flags().GetString("pages-dir")

	cfg := types.IngestConfig{DPI: dpi, PagesDir: pagesDir}

	runner := tools.ExecRunner{}
	failed := 0
	for _, pdfPath := range args {
		paperID := strings.TrimSuffix(filepath.Base(pdfPath), filepath.Ext(pdfPath))

		doc, err := pdfingest.Open(runner, pdfPath, cfg.DPI)
		if err != nil {
			fmt.Fprintf(os.Stdout, "failed %s: %v\n", paperID, err)
			failed++
			continue
		}

		outDir := filepath.Join(cfg.PagesDir, paperID)
		n, err := doc.RenderPages(outDir)
		if err != nil {
			fmt.Fprintf(os.Stdout, "failed %s: %v\n", paperID, err)
			failed++
			continue
		}
		fmt.Fprintf(os.Stdout, "rendered %s: %d pages -> %s\n", paperID, n, outDir)
	}

	if failed > 0 {
		return fmt.Errorf("%d PDF(s) failed to render", failed)
	}
	return nil
}
