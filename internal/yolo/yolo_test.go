// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package yolo

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/pdiddy/equation-scribe/pkg/types"
)

// fakeYOLO pretends to be the yolo CLI. It records invocations and, for
// predict runs, writes canned label files into the project directory.
type fakeYOLO struct {
	present bool
	calls   [][]string
	labels  string // label file content written on predict
	fail    bool
}

func (f *fakeYOLO) LookPath(bin string) (string, error) {
	if f.present {
		return "/usr/bin/" + bin, nil
	}
	return "", fmt.Errorf("%s: not found", bin)
}

func (f *fakeYOLO) Run(bin string, args ...string) error {
	return f.Stream(io.Discard, bin, args...)
}

func (f *fakeYOLO) Output(bin string, args ...string) ([]byte, error) {
	return nil, f.Stream(io.Discard, bin, args...)
}

func (f *fakeYOLO) Stream(w io.Writer, bin string, args ...string) error {
	f.calls = append(f.calls, append([]string{bin}, args...))
	if f.fail {
		return fmt.Errorf("exit status 1")
	}

	var project, name, source string
	mode := ""
	for _, a := range args {
		switch {
		case strings.HasPrefix(a, "mode="):
			mode = strings.TrimPrefix(a, "mode=")
		case strings.HasPrefix(a, "project="):
			project = strings.TrimPrefix(a, "project=")
		case strings.HasPrefix(a, "name="):
			name = strings.TrimPrefix(a, "name=")
		case strings.HasPrefix(a, "source="):
			source = strings.TrimPrefix(a, "source=")
		}
	}
	if mode == "predict" && project != "" {
		stem := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
		dir := filepath.Join(project, name, "labels")
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
		return os.WriteFile(filepath.Join(dir, stem+".txt"), []byte(f.labels), 0o644)
	}
	return nil
}

func TestDefaultRunName(t *testing.T) {
	got := DefaultRunName("weights/yolov8s.pt")
	if !regexp.MustCompile(`^eq_detector_yolov8s_[0-9a-f]{8}$`).MatchString(got) {
		t.Errorf("run name = %q", got)
	}
	if DefaultRunName("yolov8s.pt") == DefaultRunName("yolov8s.pt") {
		t.Error("run names should be unique")
	}
}

func TestTrain_BuildsCommand(t *testing.T) {
	fake := &fakeYOLO{present: true}
	var out bytes.Buffer

	runName, err := Train(fake, types.TrainConfig{
		Model: "yolov8s.pt", Data: "dataset.yaml",
		Epochs: 10, ImageSize: 640, Batch: 4, Device: "cpu", RunName: "myrun",
	}, &out)
	if err != nil {
		t.Fatalf("Train: %v", err)
	}
	if runName != "myrun" {
		t.Errorf("run name = %q", runName)
	}
	if len(fake.calls) != 1 {
		t.Fatalf("got %d invocations, want 1", len(fake.calls))
	}
	call := fake.calls[0]
	want := []string{"yolo", "task=detect", "mode=train", "model=yolov8s.pt",
		"data=dataset.yaml", "epochs=10", "imgsz=640", "batch=4", "device=cpu", "name=myrun"}
	if strings.Join(call, " ") != strings.Join(want, " ") {
		t.Errorf("command = %v\nwant      %v", call, want)
	}
}

func TestTrain_MissingBinaryWarnsAndSucceeds(t *testing.T) {
	fake := &fakeYOLO{present: false}
	var out bytes.Buffer

	runName, err := Train(fake, types.TrainConfig{Model: "yolov8s.pt", Data: "d.yaml"}, &out)
	if err != nil {
		t.Fatalf("missing binary should not be an error: %v", err)
	}
	if len(fake.calls) != 0 {
		t.Errorf("training was invoked anyway: %v", fake.calls)
	}
	if !strings.Contains(out.String(), "warning") || !strings.Contains(out.String(), runName) {
		t.Errorf("warning missing:\n%s", out.String())
	}
}

func TestTrain_Defaults(t *testing.T) {
	fake := &fakeYOLO{present: true}
	var out bytes.Buffer

	runName, err := Train(fake, types.TrainConfig{Data: "d.yaml"}, &out)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(runName, "eq_detector_yolov8s_") {
		t.Errorf("default run name = %q", runName)
	}
	cmd := strings.Join(fake.calls[len(fake.calls)-1], " ")
	for _, want := range []string{"model=yolov8s.pt", "epochs=50", "imgsz=1024", "batch=8", "device=cpu"} {
		if !strings.Contains(cmd, want) {
			t.Errorf("command missing %q: %s", want, cmd)
		}
	}
}

func TestTrain_FailurePropagates(t *testing.T) {
	fake := &fakeYOLO{present: true, fail: true}
	var out bytes.Buffer
	if _, err := Train(fake, types.TrainConfig{Data: "d.yaml"}, &out); err == nil {
		t.Error("trainer failure not propagated")
	}
}

func TestParseLabels(t *testing.T) {
	content := "0 0.5 0.5 0.25 0.25 0.9\n1 0.1 0.1 0.05 0.05 0.95\n"
	dets, err := ParseLabels(content, 1000, 800)
	if err != nil {
		t.Fatalf("ParseLabels: %v", err)
	}
	if len(dets) != 2 {
		t.Fatalf("got %d detections", len(dets))
	}

	// Sorted by descending confidence.
	if dets[0].Conf != 0.95 || dets[0].Class != 1 {
		t.Errorf("first detection = %+v", dets[0])
	}

	// 0.5/0.5 center with 0.25/0.25 extent on 1000x800.
	want := [4]float64{375, 300, 625, 500}
	if dets[1].XYXY != want {
		t.Errorf("xyxy = %v, want %v", dets[1].XYXY, want)
	}
}

func TestParseLabels_NoConfColumn(t *testing.T) {
	dets, err := ParseLabels("0 0.5 0.5 0.2 0.2\n", 100, 100)
	if err != nil {
		t.Fatal(err)
	}
	if len(dets) != 1 || dets[0].Conf != 0 {
		t.Errorf("dets = %+v", dets)
	}
}

func TestParseLabels_Errors(t *testing.T) {
	if _, err := ParseLabels("0 0.5 0.5\n", 100, 100); err == nil {
		t.Error("short line accepted")
	}
	if _, err := ParseLabels("x 0.5 0.5 0.2 0.2\n", 100, 100); err == nil {
		t.Error("bad class accepted")
	}
	if _, err := ParseLabels("0 0.5 0.5 0.2 0.2\n", 0, 100); err == nil {
		t.Error("zero image size accepted")
	}
}

func TestPredict(t *testing.T) {
	fake := &fakeYOLO{present: true, labels: "0 0.5 0.5 0.5 0.5 0.8\n"}
	var out bytes.Buffer

	dets, err := Predict(fake, "pages/page_0000.png", 200, 200,
		types.PredictConfig{Model: "best.pt"}, &out)
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if len(dets) != 1 {
		t.Fatalf("got %d detections", len(dets))
	}
	if dets[0].XYXY != [4]float64{50, 50, 150, 150} {
		t.Errorf("xyxy = %v", dets[0].XYXY)
	}
	if dets[0].Conf != 0.8 || dets[0].Class != 0 {
		t.Errorf("detection = %+v", dets[0])
	}

	cmd := strings.Join(fake.calls[len(fake.calls)-1], " ")
	for _, want := range []string{"mode=predict", "model=best.pt", "source=pages/page_0000.png",
		"conf=0.25", "iou=0.5", "max_det=300", "save_txt=True", "save_conf=True"} {
		if !strings.Contains(cmd, want) {
			t.Errorf("command missing %q: %s", want, cmd)
		}
	}
}

func TestPredict_MissingBinary(t *testing.T) {
	fake := &fakeYOLO{present: false}
	var out bytes.Buffer
	if _, err := Predict(fake, "a.png", 100, 100, types.PredictConfig{Model: "best.pt"}, &out); err == nil {
		t.Error("missing binary should be an error for predict")
	}
}
