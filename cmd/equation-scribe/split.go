package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/equation-scribe/internal/coco"
	"github.com/pdiddy/equation-scribe/internal/split"
	"github.com/pdiddy/equation-scribe/pkg/types"
)

const defaultValFrac = 0.2

var splitCmd = &cobra.Command{
	Use:   "split [annotations.json]",
	Short: "Split COCO annotations into train and val sets by paper",
	Long: `Split assigns whole papers to either train or val so no paper leaks
across the boundary, then writes the train and val annotation files.
The shuffle is seeded, so the same input and seed reproduce the same split.`,
	Args: cobra.ExactArgs(1),
	RunE: runSplit,
}

func init() {
	splitCmd.Flags().Float64("val-frac", defaultValFrac, "fraction of papers held out for validation")
	splitCmd.Flags().Int64("seed", 0, "random seed for the paper shuffle")
	splitCmd.Flags().String("out-train", "instances_train.json", "output path for the train set")
	splitCmd.Flags().String("out-val", "instances_val.json", "output path for the val set")

	rootCmd.AddCommand(splitCmd)
}

func runSplit(cmd *cobra.Command, args []string) error {
	valFrac, _ := cmd.Flags().GetFloat64("val-frac")
	seed, _ := cmd.Flags().GetInt64("seed")
	outTrain, _ := cmd.Flags().GetString("out-train")
	outVal, _ := cmd.Flags().GetString("out-val")

	f, err := coco.Load(args[0])
	if err != nil {
		return err
	}

	result, err := split.Split(f, types.SplitConfig{ValFrac: valFrac, Seed: seed})
	if err != nil {
		return err
	}

	if err := result.Train.Save(outTrain); err != nil {
		return err
	}
	if err := result.Val.Save(outVal); err != nil {
		return err
	}

	result.PrintSummary(os.Stdout)
	return nil
}
