// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package dataset

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pdiddy/equation-scribe/internal/coco"
)

// CheckReport summarizes a dataset verification pass.
type CheckReport struct {
	Images    int
	Labels    int
	Missing   []string
	BadLabels []string
}

// OK reports whether the dataset passed.
func (r *CheckReport) OK() bool {
	return len(r.Missing) == 0 && len(r.BadLabels) == 0
}

// CheckCOCO verifies that every image a COCO file references exists,
// as-is or under root.
func CheckCOCO(f *coco.File, root string, w io.Writer) *CheckReport {
	rep := &CheckReport{}
	for _, img := range f.Images {
		rep.Images++
		if coco.ResolveImagePath(img.FileName, root) == "" {
			rep.Missing = append(rep.Missing, img.FileName)
			if len(rep.Missing) <= 20 {
				fmt.Fprintf(w, "MISSING: %s\n", img.FileName)
			}
		}
	}
	fmt.Fprintf(w, "checked %d images, %d missing\n", rep.Images, len(rep.Missing))
	return rep
}

// CheckExport verifies an Ultralytics layout: every image under
// images/<split> exists and every label file under labels/<split> parses
// as "class xc yc w h" lines with values in range.
func CheckExport(doc *YAML, w io.Writer) *CheckReport {
	rep := &CheckReport{}
	for _, split := range []string{doc.Train, doc.Val} {
		imgDir := filepath.Join(doc.Path, split)
		lblDir := filepath.Join(doc.Path, strings.Replace(split, "images", "labels", 1))

		entries, err := os.ReadDir(imgDir)
		if err != nil {
			rep.Missing = append(rep.Missing, imgDir)
			fmt.Fprintf(w, "MISSING: %s\n", imgDir)
			continue
		}
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			rep.Images++
			stem := strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))
			lblPath := filepath.Join(lblDir, stem+".txt")
			data, err := os.ReadFile(lblPath)
			if err != nil {
				rep.Missing = append(rep.Missing, lblPath)
				fmt.Fprintf(w, "MISSING: %s\n", lblPath)
				continue
			}
			rep.Labels++
			if err := checkLabelFile(string(data)); err != nil {
				rep.BadLabels = append(rep.BadLabels, lblPath)
				fmt.Fprintf(w, "BAD LABEL: %s: %v\n", lblPath, err)
			}
		}
	}
	fmt.Fprintf(w, "checked %d images, %d label files: %d missing, %d bad\n",
		rep.Images, rep.Labels, len(rep.Missing), len(rep.BadLabels))
	return rep
}

// checkLabelFile validates every line of an Ultralytics label file.
// Empty files are valid: they mark negative examples.
func checkLabelFile(content string) error {
	for i, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 5 {
			return fmt.Errorf("line %d: %d fields, want 5", i+1, len(fields))
		}
		cls, err := strconv.Atoi(fields[0])
		if err != nil || cls < 0 {
			return fmt.Errorf("line %d: bad class %q", i+1, fields[0])
		}
		for _, f := range fields[1:] {
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return fmt.Errorf("line %d: bad value %q", i+1, f)
			}
			if v < 0 || v > 1 {
				return fmt.Errorf("line %d: value %v out of [0, 1]", i+1, v)
			}
		}
	}
	return nil
}
