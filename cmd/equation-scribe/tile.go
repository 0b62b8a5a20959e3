package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/equation-scribe/internal/coco"
	"github.com/pdiddy/equation-scribe/internal/tile"
	"github.com/pdiddy/equation-scribe/pkg/types"
)

var tileCmd = &cobra.Command{
	Use:   "tile [annotations.json]",
	Short: "Cut page images into fixed-size detector tiles",
	Long: `Tile slides a window over every page image in the COCO file, clips
annotations to each window (dropping slivers below the area threshold), keeps
a random fraction of empty tiles as hard negatives, and writes the tile images
plus a renumbered COCO file.`,
	Args: cobra.ExactArgs(1),
	RunE: runTile,
}

func init() {
	tileCmd.Flags().Int("tile-size", 0, "tile edge length in pixels (default 1024)")
	tileCmd.Flags().Int("stride", 0, "window step in pixels (default 512)")
	tileCmd.Flags().Float64("min-area-frac", 0, "minimum clipped-area fraction to keep a box (default 0.25)")
	tileCmd.Flags().Float64("keep-empty-prob", 0.05, "probability of keeping an empty tile")
	tileCmd.Flags().Int64("seed", 0, "random seed for the empty-tile lottery")
	tileCmd.Flags().String("images-root", ".", "directory the COCO image file names resolve against")
	tileCmd.Flags().String("out-images", "tiles/images", "output directory for tile images")
	tileCmd.Flags().String("out-anns", "tiles/instances_tiles.json", "output COCO annotations path")

	rootCmd.AddCommand(tileCmd)
}

func runTile(cmd *cobra.Command, args []string) error {
	tileSize, _ := cmd.Flags().GetInt("tile-size")
	stride, _ := cmd.Flags().GetInt("stride")
	minAreaFrac, _ := cmd.Flags().GetFloat64("min-area-frac")
	keepEmptyProb, _ := cmd.Flags().GetFloat64("keep-empty-prob")
	seed, _ := cmd.Flags().GetInt64("seed")
	imagesRoot, _ := cmd.Flags().GetString("images-root")
	outImages, _ := cmd.Flags().GetString("out-images")
	outAnns, _ := cmd.Flags().GetString("out-anns")

	in, err := coco.Load(args[0])
	if err != nil {
		return err
	}

	cfg := types.TileConfig{
		TileSize:      tileSize,
		Stride:        stride,
		MinAreaFrac:   minAreaFrac,
		KeepEmptyProb: keepEmptyProb,
		Seed:          seed,
	}

	_, err = tile.Generate(in, imagesRoot, outImages, outAnns, cfg, os.Stdout)
	return err
}
