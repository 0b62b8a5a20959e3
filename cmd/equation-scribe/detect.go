package main

import (
	"encoding/json"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/equation-scribe/internal/pdfingest"
	"github.com/pdiddy/equation-scribe/internal/tools"
	"github.com/pdiddy/equation-scribe/internal/yolo"
	"github.com/pdiddy/equation-scribe/pkg/types"
)

var detectCmd = &cobra.Command{
	Use:   "detect <image>",
	Short: "Run the trained detector on a page image",
	Long: `Detect runs yolo inference on one page image and prints the detected
equation boxes as JSON. With --pdf the boxes are also converted back to PDF
points using the source document's page geometry; without it a letter-width
fallback derived from the image is used.`,
	Args: cobra.ExactArgs(1),
	RunE: runDetect,
}

func init() {
	detectCmd.Flags().String("model", "", "path to trained weights (required)")
	detectCmd.Flags().Float64("conf", 0, "confidence threshold (default 0.25)")
	detectCmd.Flags().Float64("iou", 0, "NMS IoU threshold (default 0.5)")
	detectCmd.Flags().Int("max-det", 0, "maximum detections per image (default 300)")
	detectCmd.Flags().String("pdf", "", "source PDF for exact pixel-to-point conversion")
	detectCmd.Flags().Int("page", 0, "zero-based page index within --pdf")
	detectCmd.Flags().Int("dpi", defaultDPI, "DPI the image was rendered at")

	rootCmd.AddCommand(detectCmd)
}

// pdfDetection is one detection with its box echoed in PDF points.
type pdfDetection struct {
	types.Detection
	BBoxPDF [4]float64 `json:"bbox_pdf"`
}

func runDetect(cmd *cobra.Command, args []string) error {
	model, _ := cmd.Flags().GetString("model")
	conf, _ := cmd.Flags().GetFloat64("conf")
	iou, _ := cmd.Flags().GetFloat64("iou")
	maxDet, _ := cmd.Flags().GetInt("max-det")
	pdfPath, _ := cmd.Flags().GetString("pdf")
	page, _ := cmd.Flags().GetInt("page")
	dpi, _ := cmd.Flags().GetInt("dpi")

	if model == "" {
		return fmt.Errorf("--model is required")
	}

	imagePath := args[0]
	imgW, imgH, err := imageSize(imagePath)
	if err != nil {
		return err
	}

	runner := tools.ExecRunner{}
	cfg := types.PredictConfig{Model: model, Conf: conf, IOU: iou, MaxDet: maxDet}
	dets, err := yolo.Predict(runner, imagePath, imgW, imgH, cfg, os.Stderr)
	if err != nil {
		return err
	}

	var tf pdfingest.Transform
	if pdfPath != "" {
		doc, err := pdfingest.Open(runner, pdfPath, dpi)
		if err != nil {
			return err
		}
		tf, err = doc.PageTransform(page)
		if err != nil {
			return err
		}
	} else {
		tf = pdfingest.FallbackTransform(imgW, imgH)
	}

	out := make([]pdfDetection, 0, len(dets))
	for _, d := range dets {
		x0, y0 := tf.PxToPt(d.XYXY[0], d.XYXY[1])
		x1, y1 := tf.PxToPt(d.XYXY[2], d.XYXY[3])
		out = append(out, pdfDetection{
			Detection: d,
			BBoxPDF:   [4]float64{x0, y0, x1, y1},
		})
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func imageSize(path string) (int, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, fmt.Errorf("decoding %s: %w", path, err)
	}
	return cfg.Width, cfg.Height, nil
}
