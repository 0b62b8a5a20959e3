package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pdiddy/equation-scribe/internal/coco"
	"github.com/pdiddy/equation-scribe/internal/dataset"
)

var datasetCmd = &cobra.Command{
	Use:   "dataset",
	Short: "Export and check Ultralytics datasets",
}

var datasetExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export COCO splits to Ultralytics layout",
	Long: `Export copies the train and val images into images/<split>/, writes one
normalized label file per image under labels/<split>/ (empty files for
negatives), and emits the dataset.yaml the yolo trainer consumes.`,
	RunE: runDatasetExport,
}

var datasetCheckCmd = &cobra.Command{
	Use:   "check [dataset.yaml]",
	Short: "Verify dataset files exist and labels are well-formed",
	Long: `Check verifies an exported dataset: every image has a label file and
every label line is a valid normalized box. With --coco it instead verifies
that every image a COCO file references exists on disk.`,
	RunE: runDatasetCheck,
}

func init() {
	datasetExportCmd.Flags().String("train", "instances_train.json", "train split COCO file")
	datasetExportCmd.Flags().String("val", "instances_val.json", "val split COCO file")
	datasetExportCmd.Flags().String("images-root", ".", "directory the COCO image file names resolve against")
	datasetExportCmd.Flags().String("out", "dataset", "output dataset root")

	datasetCheckCmd.Flags().String("coco", "", "check a COCO annotations file instead of an exported dataset")
	datasetCheckCmd.Flags().String("images-root", ".", "directory the COCO image file names resolve against")

	datasetCmd.AddCommand(datasetExportCmd)
	datasetCmd.AddCommand(datasetCheckCmd)
	rootCmd.AddCommand(datasetCmd)
}

func runDatasetExport(cmd *cobra.Command, args []string) error {
	trainPath, _ := cmd.Flags().GetString("train")
	valPath, _ := cmd.Flags().GetString("val")
	imagesRoot, _ := cmd.Flags().GetString("images-root")
	out, _ := cmd.Flags().GetString("out")

	train, err := coco.Load(trainPath)
	if err != nil {
		return err
	}
	val, err := coco.Load(valPath)
	if err != nil {
		return err
	}

	if err := dataset.Export(train, "train", out, imagesRoot, os.Stdout); err != nil {
		return err
	}
	if err := dataset.Export(val, "val", out, imagesRoot, os.Stdout); err != nil {
		return err
	}

	yamlPath := filepath.Join(out, "dataset.yaml")
	if err := dataset.WriteYAML(yamlPath, out, train.Categories); err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "wrote %s\n", yamlPath)
	return nil
}

func runDatasetCheck(cmd *cobra.Command, args []string) error {
	cocoPath, _ := cmd.Flags().GetString("coco")
	imagesRoot, _ := cmd.Flags().GetString("images-root")

	if cocoPath != "" {
		f, err := coco.Load(cocoPath)
		if err != nil {
			return err
		}
		report := dataset.CheckCOCO(f, imagesRoot, os.Stdout)
		if !report.OK() {
			return fmt.Errorf("%d missing image(s)", len(report.Missing))
		}
		return nil
	}

	if len(args) != 1 {
		return fmt.Errorf("provide a dataset.yaml path (or --coco)")
	}
	doc, err := dataset.LoadYAML(args[0])
	if err != nil {
		return err
	}
	report := dataset.CheckExport(doc, os.Stdout)
	if !report.OK() {
		return fmt.Errorf("%d missing file(s), %d bad label(s)", len(report.Missing), len(report.BadLabels))
	}
	return nil
}
