// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package yolo drives the external Ultralytics CLI for detector training
// and inference. Training streams the trainer's output; prediction parses
// the saved label files back into pixel-coordinate detections.
package yolo

import (
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/pdiddy/equation-scribe/internal/tools"
	"github.com/pdiddy/equation-scribe/pkg/types"
)

// Binary is the Ultralytics CLI entrypoint.
const Binary = "yolo"

// DefaultRunName derives a training run name from the model weights,
// e.g. "eq_detector_yolov8s_1a2b3c4d".
func DefaultRunName(model string) string {
	base := strings.TrimSuffix(filepath.Base(model), filepath.Ext(model))
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("eq_detector_%s_%s", base, suffix)
}

// Train runs a detector training job, streaming the trainer output to w.
// When the yolo binary is not installed a warning is printed and no error
// returned, so pipeline demos run end to end on machines without it.
// Returns the run name used.
func Train(r tools.Runner, cfg types.TrainConfig, w io.Writer) (string, error) {
	if cfg.Model == "" {
		cfg.Model = "yolov8s.pt"
	}
	if cfg.Epochs <= 0 {
		cfg.Epochs = 50
	}
	if cfg.ImageSize <= 0 {
		cfg.ImageSize = 1024
	}
	if cfg.Batch <= 0 {
		cfg.Batch = 8
	}
	if cfg.Device == "" {
		cfg.Device = "cpu"
	}
	runName := cfg.RunName
	if runName == "" {
		runName = DefaultRunName(cfg.Model)
	}

	if !tools.Available(r, Binary) {
		fmt.Fprintf(w, "warning: %s not found on PATH; skipping training (run name would be %s)\n", Binary, runName)
		return runName, nil
	}
	if cfg.Data == "" {
		return "", fmt.Errorf("no dataset yaml given")
	}

	args := []string{
		"task=detect", "mode=train",
		"model=" + cfg.Model,
		"data=" + cfg.Data,
		"epochs=" + strconv.Itoa(cfg.Epochs),
		"imgsz=" + strconv.Itoa(cfg.ImageSize),
		"batch=" + strconv.Itoa(cfg.Batch),
		"device=" + cfg.Device,
		"name=" + runName,
	}
	fmt.Fprintf(w, "starting training run %s\n", runName)
	if err := r.Stream(w, Binary, args...); err != nil {
		return "", fmt.Errorf("training run %s: %w", runName, err)
	}
	return runName, nil
}

// Predict runs detector inference on one image and returns the parsed
// detections in pixel coordinates, sorted by descending confidence.
func Predict(r tools.Runner, imagePath string, imgW, imgH int, cfg types.PredictConfig, w io.Writer) ([]types.Detection, error) {
	if cfg.Model == "" {
		return nil, fmt.Errorf("no model weights given")
	}
	if !tools.Available(r, Binary) {
		return nil, fmt.Errorf("%s not found on PATH", Binary)
	}
	if cfg.Conf <= 0 {
		cfg.Conf = 0.25
	}
	if cfg.IOU <= 0 {
		cfg.IOU = 0.5
	}
	if cfg.MaxDet <= 0 {
		cfg.MaxDet = 300
	}

	// Predictions go to a temp project dir so the label file location is
	// known regardless of the yolo working directory.
	project, err := os.MkdirTemp("", "eqpredict-*")
	if err != nil {
		return nil, fmt.Errorf("creating prediction dir: %w", err)
	}
	defer os.RemoveAll(project)

	args := []string{
		"task=detect", "mode=predict",
		"model=" + cfg.Model,
		"source=" + imagePath,
		"conf=" + strconv.FormatFloat(cfg.Conf, 'g', -1, 64),
		"iou=" + strconv.FormatFloat(cfg.IOU, 'g', -1, 64),
		"max_det=" + strconv.Itoa(cfg.MaxDet),
		"save_txt=True", "save_conf=True", "save=False",
		"project=" + project, "name=out",
	}
	if err := r.Stream(w, Binary, args...); err != nil {
		return nil, fmt.Errorf("yolo predict on %s: %w", imagePath, err)
	}

	stem := strings.TrimSuffix(filepath.Base(imagePath), filepath.Ext(imagePath))
	labelPath := filepath.Join(project, "out", "labels", stem+".txt")
	data, err := os.ReadFile(labelPath)
	if err != nil {
		if os.IsNotExist(err) {
			// No detections above threshold.
			return nil, nil
		}
		return nil, fmt.Errorf("reading predictions: %w", err)
	}

	dets, err := ParseLabels(string(data), imgW, imgH)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", labelPath, err)
	}
	return dets, nil
}

// ParseLabels converts saved prediction lines ("class xc yc w h [conf]",
// normalized) into pixel-coordinate detections, sorted by descending
// confidence.
func ParseLabels(content string, imgW, imgH int) ([]types.Detection, error) {
	if imgW <= 0 || imgH <= 0 {
		return nil, fmt.Errorf("bad image size %dx%d", imgW, imgH)
	}

	var out []types.Detection
	for i, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 5 && len(fields) != 6 {
			return nil, fmt.Errorf("line %d: %d fields", i+1, len(fields))
		}

		cls, err := strconv.Atoi(fields[0])
		if err != nil {
			return nil, fmt.Errorf("line %d: bad class %q", i+1, fields[0])
		}
		vals := make([]float64, 0, 5)
		for _, f := range fields[1:] {
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: bad value %q", i+1, f)
			}
			vals = append(vals, v)
		}

		xc := vals[0] * float64(imgW)
		yc := vals[1] * float64(imgH)
		bw := vals[2] * float64(imgW)
		bh := vals[3] * float64(imgH)
		det := types.Detection{
			XYXY: [4]float64{
				round2(xc - bw/2), round2(yc - bh/2),
				round2(xc + bw/2), round2(yc + bh/2),
			},
			Class: cls,
		}
		if len(vals) == 5 {
			det.Conf = vals[4]
		}
		out = append(out, det)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Conf > out[j].Conf })
	return out, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
