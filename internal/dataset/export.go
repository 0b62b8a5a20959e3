// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package dataset converts COCO annotations into the Ultralytics folder
// layout the external trainer consumes, and verifies exported datasets
// before a training run burns hours on a broken path.
package dataset

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/equation-scribe/internal/coco"
)

// YAML is the dataset descriptor the trainer reads.
type YAML struct {
	Path  string         `yaml:"path"`
	Train string         `yaml:"train"`
	Val   string         `yaml:"val"`
	Names map[int]string `yaml:"names"`
}

// Export writes one split ("train" or "val") of a COCO file into root:
// images are copied to images/<split>/ and a label txt per image goes to
// labels/<split>/. Labels are "class x_center y_center w h" with
// normalized coordinates and class = category_id - 1. Images that cannot
// be located under imagesRoot are reported to w and skipped.
func Export(f *coco.File, split, root, imagesRoot string, w io.Writer) error {
	imgDir := filepath.Join(root, "images", split)
	lblDir := filepath.Join(root, "labels", split)
	for _, d := range []string{imgDir, lblDir} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", d, err)
		}
	}

	annByImage := f.AnnotationsByImage()
	exported := 0
	for _, img := range f.Images {
		src := coco.ResolveImagePath(img.FileName, imagesRoot)
		if src == "" {
			fmt.Fprintf(w, "skipping missing image: %s\n", img.FileName)
			continue
		}
		base := filepath.Base(src)
		if err := copyFile(src, filepath.Join(imgDir, base)); err != nil {
			return err
		}

		var b strings.Builder
		for _, ann := range annByImage[img.ID] {
			line, ok := LabelLine(ann, img.Width, img.Height)
			if !ok {
				continue
			}
			b.WriteString(line)
			b.WriteByte('\n')
		}
		stem := strings.TrimSuffix(base, filepath.Ext(base))
		if err := os.WriteFile(filepath.Join(lblDir, stem+".txt"), []byte(b.String()), 0o644); err != nil {
			return fmt.Errorf("writing label file: %w", err)
		}
		exported++
	}

	fmt.Fprintf(w, "%s: exported %d images to %s\n", split, exported, imgDir)
	return nil
}

// LabelLine formats one annotation as an Ultralytics label line. Returns
// ok=false for degenerate boxes or image sizes.
func LabelLine(ann coco.Annotation, imgW, imgH int) (string, bool) {
	if imgW <= 0 || imgH <= 0 || len(ann.BBox) != 4 {
		return "", false
	}
	x, y, bw, bh := ann.BBox[0], ann.BBox[1], ann.BBox[2], ann.BBox[3]
	if bw <= 0 || bh <= 0 {
		return "", false
	}
	xc := (x + bw/2) / float64(imgW)
	yc := (y + bh/2) / float64(imgH)
	nw := bw / float64(imgW)
	nh := bh / float64(imgH)
	return fmt.Sprintf("%d %.6f %.6f %.6f %.6f", ann.CategoryID-1, xc, yc, nw, nh), true
}

// WriteYAML writes the dataset descriptor to path. Class names come from
// the COCO categories, shifted to zero-based IDs.
func WriteYAML(path, root string, categories []coco.Category) error {
	names := make(map[int]string, len(categories))
	for _, c := range categories {
		names[c.ID-1] = c.Name
	}
	doc := YAML{
		Path:  root,
		Train: "images/train",
		Val:   "images/val",
		Names: names,
	}
	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encoding dataset yaml: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// LoadYAML reads a dataset descriptor.
func LoadYAML(path string) (*YAML, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading dataset yaml: %w", err)
	}
	var doc YAML
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &doc, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening %s: %w", src, err)
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("creating %s: %w", dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copying %s: %w", src, err)
	}
	return out.Close()
}
