// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package split

import (
	"bytes"
	"strings"
	"testing"

	"github.com/pdiddy/equation-scribe/internal/coco"
	"github.com/pdiddy/equation-scribe/pkg/types"
)

func TestPaperFromFilename(t *testing.T) {
	tests := []struct {
		fname string
		want  string
	}{
		{"2301.04567_page_0003.png", "2301.04567"},
		{"images/2301.04567_page_0003.png", "2301.04567"},
		{"papers/2301.04567/page_0003.png", "2301.04567"},
		{"synth_0001.png", "synth"},
		{"lonely.png", "lonely"},
	}
	for _, tt := range tests {
		if got := PaperFromFilename(tt.fname); got != tt.want {
			t.Errorf("PaperFromFilename(%q) = %q, want %q", tt.fname, got, tt.want)
		}
	}
}

// dataset builds a COCO file with nAnns annotations per page and two
// pages per paper.
func dataset(papers []string, nAnns int) *coco.File {
	f := coco.New("split test")
	imageID := 1
	annID := 1
	for _, paper := range papers {
		for pg := 0; pg < 2; pg++ {
			f.Images = append(f.Images, coco.Image{
				ID:       imageID,
				FileName: paper + "_page_000" + string(rune('0'+pg)) + ".png",
				Width:    100, Height: 100,
			})
			for i := 0; i < nAnns; i++ {
				f.Annotations = append(f.Annotations, coco.Annotation{
					ID: annID, ImageID: imageID, CategoryID: coco.CategoryDisplay,
					BBox: []float64{1, 1, 10, 10}, Area: 100,
					Segmentation: []any{},
				})
				annID++
			}
			imageID++
		}
	}
	return f
}

func TestSplit_NoPaperLeaks(t *testing.T) {
	f := dataset([]string{"a", "b", "c", "d", "e"}, 2)

	res, err := Split(f, types.SplitConfig{ValFrac: 0.2, Seed: 1})
	if err != nil {
		t.Fatalf("Split: %v", err)
	}

	if len(res.ValPapers) != 1 {
		t.Errorf("got %d val papers, want 1", len(res.ValPapers))
	}
	if len(res.TrainPapers) != 4 {
		t.Errorf("got %d train papers, want 4", len(res.TrainPapers))
	}

	valSet := make(map[string]bool)
	for _, p := range res.ValPapers {
		valSet[p] = true
	}
	for _, img := range res.Train.Images {
		if valSet[PaperFromFilename(img.FileName)] {
			t.Errorf("val paper leaked into train split: %s", img.FileName)
		}
	}
	for _, img := range res.Val.Images {
		if !valSet[PaperFromFilename(img.FileName)] {
			t.Errorf("train paper leaked into val split: %s", img.FileName)
		}
	}

	// Nothing lost: image and annotation totals are preserved.
	if got := len(res.Train.Images) + len(res.Val.Images); got != len(f.Images) {
		t.Errorf("images: %d after split, %d before", got, len(f.Images))
	}
	if got := len(res.Train.Annotations) + len(res.Val.Annotations); got != len(f.Annotations) {
		t.Errorf("annotations: %d after split, %d before", got, len(f.Annotations))
	}

	// Categories carry over unchanged.
	if len(res.Train.Categories) != 2 || len(res.Val.Categories) != 2 {
		t.Error("categories not carried into splits")
	}
}

func TestSplit_AnnotationsFollowImages(t *testing.T) {
	f := dataset([]string{"a", "b"}, 3)

	res, err := Split(f, types.SplitConfig{ValFrac: 0.5, Seed: 9})
	if err != nil {
		t.Fatal(err)
	}

	for _, side := range []*coco.File{res.Train, res.Val} {
		byID := side.ImagesByID()
		for _, ann := range side.Annotations {
			if _, ok := byID[ann.ImageID]; !ok {
				t.Errorf("annotation %d references image %d missing from its split", ann.ID, ann.ImageID)
			}
		}
	}
}

func TestSplit_SeedReproducible(t *testing.T) {
	f := dataset([]string{"a", "b", "c", "d", "e", "f", "g", "h"}, 1)

	first, err := Split(f, types.SplitConfig{ValFrac: 0.25, Seed: 123})
	if err != nil {
		t.Fatal(err)
	}
	second, err := Split(f, types.SplitConfig{ValFrac: 0.25, Seed: 123})
	if err != nil {
		t.Fatal(err)
	}

	if strings.Join(first.ValPapers, ",") != strings.Join(second.ValPapers, ",") {
		t.Errorf("same seed gave different val papers: %v vs %v", first.ValPapers, second.ValPapers)
	}

	third, err := Split(f, types.SplitConfig{ValFrac: 0.25, Seed: 456})
	if err != nil {
		t.Fatal(err)
	}
	if len(third.ValPapers) != len(first.ValPapers) {
		t.Errorf("val paper count depends on seed: %d vs %d", len(third.ValPapers), len(first.ValPapers))
	}
}

func TestSplit_MinimumOneValPaper(t *testing.T) {
	// 2 papers at 20% rounds down to 0; the floor keeps one.
	f := dataset([]string{"a", "b"}, 1)
	res, err := Split(f, types.SplitConfig{ValFrac: 0.2, Seed: 1})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.ValPapers) != 1 || len(res.TrainPapers) != 1 {
		t.Errorf("got %d val / %d train papers, want 1 / 1", len(res.ValPapers), len(res.TrainPapers))
	}
}

func TestSplit_Errors(t *testing.T) {
	if _, err := Split(coco.New("empty"), types.SplitConfig{ValFrac: 0.2}); err == nil {
		t.Error("expected error for empty dataset")
	}

	one := dataset([]string{"only"}, 1)
	if _, err := Split(one, types.SplitConfig{ValFrac: 0.2, Seed: 1}); err == nil {
		t.Error("expected error when no training papers remain")
	}

	f := dataset([]string{"a", "b"}, 1)
	if _, err := Split(f, types.SplitConfig{ValFrac: 1.5}); err == nil {
		t.Error("expected error for val fraction above 1")
	}
}

func TestPrintSummary(t *testing.T) {
	f := dataset([]string{"a", "b", "c", "d", "e"}, 2)
	res, err := Split(f, types.SplitConfig{ValFrac: 0.2, Seed: 1})
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	res.PrintSummary(&buf)
	out := buf.String()
	if !strings.Contains(out, "train: 4 papers, 8 images, 16 annotations") {
		t.Errorf("train line missing or wrong:\n%s", out)
	}
	if !strings.Contains(out, "val: 1 papers, 2 images, 4 annotations") {
		t.Errorf("val line missing or wrong:\n%s", out)
	}
}
