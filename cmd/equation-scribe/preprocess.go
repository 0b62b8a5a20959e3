package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/equation-scribe/internal/preprocess"
	"github.com/pdiddy/equation-scribe/pkg/types"
)

var preprocessCmd = &cobra.Command{
	Use:   "preprocess <in-dir> <out-dir>",
	Short: "Clean up scanned page images",
	Long: `Preprocess converts every image under in-dir to grayscale and applies
the selected cleanup steps (non-local-means denoise, edge-based deskew, CLAHE
contrast enhancement, adaptive binarization), mirroring the directory layout
into out-dir. Outputs are always PNG.`,
	Args: cobra.ExactArgs(2),
	RunE: runPreprocess,
}

func init() {
	preprocessCmd.Flags().Bool("denoise", true, "apply non-local-means denoising")
	preprocessCmd.Flags().Bool("deskew", true, "straighten tilted scans")
	preprocessCmd.Flags().Bool("stretch", true, "apply CLAHE contrast enhancement")
	preprocessCmd.Flags().Bool("binarize", false, "apply a Gaussian-window adaptive threshold")

	rootCmd.AddCommand(preprocessCmd)
}

func runPreprocess(cmd *cobra.Command, args []string) error {
	denoise, _ := cmd.Flags().GetBool("denoise")
	deskew, _ := cmd.Flags().GetBool("deskew")
	stretch, _ := cmd.Flags().GetBool("stretch")
	binarize, _ := cmd.Flags().GetBool("binarize")

	cfg := types.PreprocessConfig{
		Denoise:  denoise,
		Deskew:   deskew,
		Stretch:  stretch,
		Binarize: binarize,
	}

	_, err := preprocess.ProcessFolder(args[0], args[1], cfg, os.Stdout)
	return err
}
