// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pairs crops annotated equation regions out of page images and
// pairs each crop with its gold LaTeX, producing the recognition training
// set. Gold LaTeX comes from the page meta sidecars written by the
// synthetic generator; annotations without one are skipped.
package pairs

import (
	"encoding/json"
	"fmt"
	"image"
	"image/draw"
	_ "image/jpeg"
	"image/png"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/pdiddy/equation-scribe/internal/coco"
	"github.com/pdiddy/equation-scribe/internal/synth"
	"github.com/pdiddy/equation-scribe/pkg/types"
)

// minOverlap is the minimum fraction of an annotation's area a gold
// equation box must cover to be matched.
const minOverlap = 0.25

// MatchLatex finds the gold LaTeX for an annotation bbox [x, y, w, h] by
// overlap with the page meta equations. The equation covering the largest
// fraction of the annotation's area wins; below minOverlap nothing
// matches and the empty string is returned.
func MatchLatex(meta *types.PageMeta, bbox []float64) string {
	if meta == nil || len(bbox) != 4 {
		return ""
	}
	ax0, ay0 := bbox[0], bbox[1]
	ax1, ay1 := ax0+bbox[2], ay0+bbox[3]
	annArea := bbox[2] * bbox[3]
	if annArea <= 0 {
		return ""
	}

	best := ""
	bestFrac := 0.0
	for _, eq := range meta.Eqs {
		ix0 := max(ax0, eq.BBox[0])
		iy0 := max(ay0, eq.BBox[1])
		ix1 := min(ax1, eq.BBox[2])
		iy1 := min(ay1, eq.BBox[3])
		if ix1 <= ix0 || iy1 <= iy0 {
			continue
		}
		frac := (ix1 - ix0) * (iy1 - iy0) / annArea
		if frac > bestFrac {
			bestFrac = frac
			best = eq.Latex
		}
	}
	if bestFrac < minOverlap {
		return ""
	}
	return best
}

// CropBox clips a COCO bbox to the image and crops it. Returns the crop
// and the integer clip rectangle, or ok=false when the clipped box is
// degenerate.
func CropBox(img image.Image, bbox []float64) (crop *image.RGBA, rect image.Rectangle, ok bool) {
	w := img.Bounds().Dx()
	h := img.Bounds().Dy()
	x0 := int(math.Round(bbox[0]))
	y0 := int(math.Round(bbox[1]))
	x1 := int(math.Round(bbox[0] + bbox[2]))
	y1 := int(math.Round(bbox[1] + bbox[3]))

	x0 = clamp(x0, 0, w-1)
	y0 = clamp(y0, 0, h-1)
	x1 = clamp(x1, 1, w)
	y1 = clamp(y1, 1, h)
	if x1 <= x0 || y1 <= y0 {
		return nil, image.Rectangle{}, false
	}

	rect = image.Rect(x0, y0, x1, y1)
	crop = image.NewRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	draw.Draw(crop, crop.Bounds(), img, rect.Min.Add(img.Bounds().Min), draw.Src)
	return crop, rect, true
}

// Make walks the COCO annotations, crops every annotation that has gold
// LaTeX, writes crops to outImages and one JSON line per pair to
// outJSONL. imagesRoot resolves relative image paths; prefix names the
// crop files (prefix_<annID>_<x0>_<y0>_<x1>_<y1>.png). Returns the pairs
// written.
func Make(in *coco.File, imagesRoot, outImages, outJSONL, prefix string, w io.Writer) ([]types.Pair, error) {
	if prefix == "" {
		prefix = "pair"
	}
	if err := os.MkdirAll(outImages, 0o755); err != nil {
		return nil, fmt.Errorf("creating %s: %w", outImages, err)
	}

	imagesByID := in.ImagesByID()

	// Cache page images and sidecars: annotations of one page arrive together.
	var (
		cachedPath string
		cachedImg  image.Image
		cachedMeta *types.PageMeta
	)

	var out []types.Pair
	for _, ann := range in.Annotations {
		rec, ok := imagesByID[ann.ImageID]
		if !ok {
			continue
		}
		path := coco.ResolveImagePath(rec.FileName, imagesRoot)
		if path == "" {
			fmt.Fprintf(w, "warning: image file not found: %s; skipping\n", rec.FileName)
			continue
		}

		if path != cachedPath {
			img, err := loadImage(path)
			if err != nil {
				fmt.Fprintf(w, "warning: unreadable image %s: %v; skipping\n", path, err)
				continue
			}
			meta, err := synth.LoadMeta(path)
			if err != nil {
				fmt.Fprintf(w, "warning: bad meta sidecar for %s: %v\n", path, err)
				meta = nil
			}
			cachedPath, cachedImg, cachedMeta = path, img, meta
		}

		latex := MatchLatex(cachedMeta, ann.BBox)
		if latex == "" {
			continue
		}

		crop, rect, ok := CropBox(cachedImg, ann.BBox)
		if !ok {
			continue
		}
		name := fmt.Sprintf("%s_%d_%d_%d_%d_%d.png", prefix, ann.ID, rect.Min.X, rect.Min.Y, rect.Max.X, rect.Max.Y)
		cropPath := filepath.Join(outImages, name)
		if err := saveImage(crop, cropPath); err != nil {
			return nil, err
		}
		out = append(out, types.Pair{Image: cropPath, Latex: latex})
	}

	if err := writeJSONL(out, outJSONL); err != nil {
		return nil, err
	}
	fmt.Fprintf(w, "Wrote %d pairs to %s\n", len(out), outJSONL)
	return out, nil
}

// ReadJSONL loads a pairs file.
func ReadJSONL(path string) ([]types.Pair, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening pairs file: %w", err)
	}
	defer f.Close()

	var out []types.Pair
	dec := json.NewDecoder(f)
	for dec.More() {
		var p types.Pair
		if err := dec.Decode(&p); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
		out = append(out, p)
	}
	return out, nil
}

func writeJSONL(pairs []types.Pair, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetEscapeHTML(false)
	for _, p := range pairs {
		if err := enc.Encode(p); err != nil {
			return fmt.Errorf("writing pair: %w", err)
		}
	}
	return nil
}

func loadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	return img, err
}

func saveImage(img image.Image, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	return nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
