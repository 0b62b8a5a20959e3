package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/equation-scribe/internal/tools"
	"github.com/pdiddy/equation-scribe/internal/yolo"
	"github.com/pdiddy/equation-scribe/pkg/types"
)

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Train the equation detector with the yolo CLI",
	Long: `Train shells out to the ultralytics yolo CLI with the exported dataset.
When the yolo binary is not on PATH the command prints the invocation it would
have run and exits successfully, so the data pipeline can be exercised on
machines without a training environment.`,
	RunE: runTrain,
}

func init() {
	trainCmd.Flags().String("model", "", "base model weights (default yolov8s.pt)")
	trainCmd.Flags().String("data", "", "path to the Ultralytics dataset YAML")
	trainCmd.Flags().Int("epochs", 0, "training epochs (default 50)")
	trainCmd.Flags().Int("imgsz", 0, "training image size (default 1024)")
	trainCmd.Flags().Int("batch", 0, "batch size (default 8)")
	trainCmd.Flags().String("device", "", "compute device, e.g. 0 or cpu (default cpu)")
	trainCmd.Flags().String("name", "", "training run name (default derived from the model)")

	rootCmd.AddCommand(trainCmd)
}

func runTrain(cmd *cobra.Command, args []string) error {
	model, _ := cmd.Flags().GetString("model")
	data, _ := cmd.Flags().GetString("data")
	epochs, _ := cmd.Flags().GetInt("epochs")
	imgsz, _ := cmd.Flags().GetInt("imgsz")
	batch, _ := cmd.Flags().GetInt("batch")
	device, _ := cmd.Flags().GetString("device")
	name, _ := cmd.Flags().GetString("name")

	cfg := types.TrainConfig{
		Model:     model,
		Data:      data,
		Epochs:    epochs,
		ImageSize: imgsz,
		Batch:     batch,
		Device:    device,
		RunName:   name,
	}

	_, err := yolo.Train(tools.ExecRunner{}, cfg, os.Stdout)
	return err
}
