package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/equation-scribe/internal/coco"
	"github.com/pdiddy/equation-scribe/internal/pairs"
)

var pairsCmd = &cobra.Command{
	Use:   "pairs [annotations.json]",
	Short: "Cut image/LaTeX training pairs for the recognizer",
	Long: `Pairs crops every annotated box out of its page image and matches it
against the page's meta sidecar to recover the gold LaTeX, writing the crops
plus a JSONL manifest of image/latex pairs. Boxes that overlap no known
equation are skipped.`,
	Args: cobra.ExactArgs(1),
	RunE: runPairs,
}

func init() {
	pairsCmd.Flags().String("images-root", ".", "directory the COCO image file names resolve against")
	pairsCmd.Flags().String("out-images", "pairs/crops", "output directory for cropped equation images")
	pairsCmd.Flags().String("out-jsonl", "pairs/pairs.jsonl", "output JSONL manifest path")
	pairsCmd.Flags().String("prefix", "pair", "crop file name prefix")

	rootCmd.AddCommand(pairsCmd)
}

func runPairs(cmd *cobra.Command, args []string) error {
	imagesRoot, _ := cmd.Flags().GetString("images-root")
	outImages, _ := cmd.Flags().GetString("out-images")
	outJSONL, _ := cmd.Flags().GetString("out-jsonl")
	prefix, _ := cmd.Flags().GetString("prefix")

	in, err := coco.Load(args[0])
	if err != nil {
		return err
	}

	made, err := pairs.Make(in, imagesRoot, outImages, outJSONL, prefix, os.Stdout)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "wrote %d pairs -> %s\n", len(made), outJSONL)
	return nil
}
