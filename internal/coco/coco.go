// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package coco reads and writes COCO-format object detection annotations,
// the interchange format every detector stage consumes. The schema is
// fixed by the external trainer and preserved verbatim.
package coco

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Category IDs used throughout the detector dataset.
const (
	CategoryDisplay = 1
	CategoryInline  = 2
)

// File is a complete COCO annotations document.
type File struct {
	Info        Info         `json:"info"`
	Licenses    []any        `json:"licenses"`
	Images      []Image      `json:"images"`
	Annotations []Annotation `json:"annotations"`
	Categories  []Category   `json:"categories"`
}

// Info is the COCO dataset header.
type Info struct {
	Description string `json:"description"`
	Version     string `json:"version,omitempty"`
	Year        int    `json:"year,omitempty"`
}

// Image is one COCO image record.
type Image struct {
	ID       int    `json:"id"`
	FileName string `json:"file_name"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
}

// Annotation is one COCO box annotation. BBox is [x, y, w, h] in pixels.
type Annotation struct {
	ID           int       `json:"id"`
	ImageID      int       `json:"image_id"`
	CategoryID   int       `json:"category_id"`
	BBox         []float64 `json:"bbox"`
	Area         float64   `json:"area"`
	IsCrowd      int       `json:"iscrowd"`
	Segmentation []any     `json:"segmentation"`
}

// Category is one COCO category record.
type Category struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// EquationCategories returns the two-class category list the detector is
// trained on.
func EquationCategories() []Category {
	return []Category{
		{ID: CategoryDisplay, Name: "display"},
		{ID: CategoryInline, Name: "inline"},
	}
}

// New returns an empty File with the given description and the equation
// category list.
func New(description string) *File {
	return &File{
		Info:        Info{Description: description, Version: "1.0"},
		Licenses:    []any{},
		Images:      []Image{},
		Annotations: []Annotation{},
		Categories:  EquationCategories(),
	}
}

// Load reads a COCO annotations file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading COCO file: %w", err)
	}
	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing COCO file %s: %w", path, err)
	}
	return &f, nil
}

// Save writes the annotations to path via a temporary file and rename, so
// a crash mid-write never leaves a truncated dataset behind.
func (f *File) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding COCO file: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing COCO file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replacing COCO file: %w", err)
	}
	return nil
}

// AnnotationsByImage groups annotations by their image ID.
func (f *File) AnnotationsByImage() map[int][]Annotation {
	byImage := make(map[int][]Annotation)
	for _, a := range f.Annotations {
		byImage[a.ImageID] = append(byImage[a.ImageID], a)
	}
	return byImage
}

// ImagesByID indexes image records by ID.
func (f *File) ImagesByID() map[int]Image {
	byID := make(map[int]Image, len(f.Images))
	for _, img := range f.Images {
		byID[img.ID] = img
	}
	return byID
}

// XYXYToBBox converts corner coordinates to a COCO [x, y, w, h] box,
// clamping negative extents to zero.
func XYXYToBBox(x0, y0, x1, y1 float64) []float64 {
	w := x1 - x0
	if w < 0 {
		w = 0
	}
	h := y1 - y0
	if h < 0 {
		h = 0
	}
	return []float64{x0, y0, w, h}
}

// ResolveImagePath locates the image referenced by a COCO record. The
// file_name is tried as-is, then its basename under root, then the full
// relative path under root. Empty string means not found.
func ResolveImagePath(fileName, root string) string {
	if _, err := os.Stat(fileName); err == nil {
		return fileName
	}
	if root == "" {
		return ""
	}
	candidate := filepath.Join(root, filepath.Base(fileName))
	if _, err := os.Stat(candidate); err == nil {
		return candidate
	}
	candidate = filepath.Join(root, fileName)
	if _, err := os.Stat(candidate); err == nil {
		return candidate
	}
	return ""
}
