// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package coco

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func sampleFile() *File {
	f := New("test dataset")
	f.Images = []Image{
		{ID: 1, FileName: "paperA_page_0001.png", Width: 800, Height: 1200},
		{ID: 2, FileName: "paperB_page_0001.png", Width: 800, Height: 1200},
	}
	f.Annotations = []Annotation{
		{ID: 1, ImageID: 1, CategoryID: CategoryDisplay, BBox: []float64{10, 20, 100, 50}, Area: 5000, Segmentation: []any{}},
		{ID: 2, ImageID: 1, CategoryID: CategoryInline, BBox: []float64{200, 20, 40, 15}, Area: 600, Segmentation: []any{}},
		{ID: 3, ImageID: 2, CategoryID: CategoryDisplay, BBox: []float64{50, 60, 80, 40}, Area: 3200, Segmentation: []any{}},
	}
	return f
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "anns", "instances_all.json")

	in := sampleFile()
	if err := in.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	// No .tmp leftover.
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Errorf("temporary file left behind")
	}

	out, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if diff := cmp.Diff(in, out); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadMissing(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestAnnotationsByImage(t *testing.T) {
	f := sampleFile()
	byImage := f.AnnotationsByImage()
	if got := len(byImage[1]); got != 2 {
		t.Errorf("image 1: got %d annotations, want 2", got)
	}
	if got := len(byImage[2]); got != 1 {
		t.Errorf("image 2: got %d annotations, want 1", got)
	}
}

func TestXYXYToBBox(t *testing.T) {
	tests := []struct {
		name           string
		x0, y0, x1, y1 float64
		want           []float64
	}{
		{"normal", 10, 20, 110, 70, []float64{10, 20, 100, 50}},
		{"degenerate width", 50, 20, 40, 70, []float64{50, 20, 0, 50}},
		{"degenerate height", 10, 70, 110, 60, []float64{10, 70, 100, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := XYXYToBBox(tt.x0, tt.y0, tt.x1, tt.y1)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestResolveImagePath(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "page_0001.png"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	// Basename resolution under root.
	if got := ResolveImagePath(filepath.Join("elsewhere", "page_0001.png"), root); got != filepath.Join(root, "page_0001.png") {
		t.Errorf("basename resolution failed, got %q", got)
	}
	// Missing everywhere.
	if got := ResolveImagePath("missing.png", root); got != "" {
		t.Errorf("expected empty path for missing image, got %q", got)
	}
}
