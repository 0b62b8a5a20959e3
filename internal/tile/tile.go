// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package tile cuts page images into overlapping square crops sized for
// the detector, clipping annotations into tile coordinates. Empty tiles
// are mostly discarded; a small seeded fraction survives as hard
// negatives.
package tile

import (
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/equation-scribe/internal/coco"
	"github.com/pdiddy/equation-scribe/pkg/types"
)

// clippedAnn is an annotation translated into tile coordinates.
type clippedAnn struct {
	bbox       [4]float64 // x, y, w, h
	categoryID int
}

// tileSpec is one crop window over a page, with the annotations kept in it.
type tileSpec struct {
	index int
	box   [4]int // x0, y0, x1, y1 in page pixels
	annos []clippedAnn
}

// positions returns the window origins along one axis: a stride walk from
// zero, plus a final position snapped to the far edge so the whole page is
// covered.
func positions(extent, tileSize, stride int) []int {
	var pos []int
	for p := 0; p < max(1, extent-tileSize+1); p += stride {
		pos = append(pos, p)
	}
	if len(pos) == 0 || pos[len(pos)-1]+tileSize < extent {
		pos = append(pos, max(0, extent-tileSize))
	}
	return pos
}

// collectTiles slides the crop window over a W x H page and decides, per
// window, which annotations to keep. An annotation survives clipping when
// at least minAreaFrac of its area falls inside the window. Windows with
// no surviving annotations are kept with probability keepEmptyProb.
func collectTiles(w, h int, anns []coco.Annotation, cfg types.TileConfig, rng *rand.Rand) []tileSpec {
	var tiles []tileSpec
	idx := 0
	for _, y0 := range positions(h, cfg.TileSize, cfg.Stride) {
		for _, x0 := range positions(w, cfg.TileSize, cfg.Stride) {
			x1 := min(x0+cfg.TileSize, w)
			y1 := min(y0+cfg.TileSize, h)

			var kept []clippedAnn
			for _, ann := range anns {
				ax0, ay0 := ann.BBox[0], ann.BBox[1]
				ax1, ay1 := ax0+ann.BBox[2], ay0+ann.BBox[3]

				ix0 := max(float64(x0), ax0)
				iy0 := max(float64(y0), ay0)
				ix1 := min(float64(x1), ax1)
				iy1 := min(float64(y1), ay1)
				if ix1 <= ix0 || iy1 <= iy0 {
					continue
				}
				annArea := ann.BBox[2] * ann.BBox[3]
				if annArea <= 0 {
					continue
				}
				if (ix1-ix0)*(iy1-iy0)/annArea < cfg.MinAreaFrac {
					continue
				}
				kept = append(kept, clippedAnn{
					bbox:       [4]float64{ix0 - float64(x0), iy0 - float64(y0), ix1 - ix0, iy1 - iy0},
					categoryID: ann.CategoryID,
				})
			}

			if len(kept) == 0 && rng.Float64() >= cfg.KeepEmptyProb {
				continue
			}
			tiles = append(tiles, tileSpec{index: idx, box: [4]int{x0, y0, x1, y1}, annos: kept})
			idx++
		}
	}
	return tiles
}

// Generate tiles every image in the input COCO file, writes crop images
// to outImages and a renumbered tiled COCO file to outAnns. Images whose
// files cannot be located under imagesRoot are reported to w and skipped.
func Generate(in *coco.File, imagesRoot, outImages, outAnns string, cfg types.TileConfig, w io.Writer) (*coco.File, error) {
	if cfg.TileSize <= 0 {
		cfg.TileSize = 1024
	}
	if cfg.Stride <= 0 {
		cfg.Stride = 512
	}
	if cfg.MinAreaFrac <= 0 {
		cfg.MinAreaFrac = 0.25
	}
	if err := os.MkdirAll(outImages, 0o755); err != nil {
		return nil, fmt.Errorf("creating %s: %w", outImages, err)
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	annByImage := in.AnnotationsByImage()

	out := coco.New("Tiled dataset")
	out.Categories = in.Categories
	nextImageID := 1
	nextAnnID := 1

	for _, img := range in.Images {
		path := coco.ResolveImagePath(img.FileName, imagesRoot)
		if path == "" {
			fmt.Fprintf(w, "skipping missing image: %s\n", img.FileName)
			continue
		}
		page, err := loadImage(path)
		if err != nil {
			fmt.Fprintf(w, "skipping unreadable image %s: %v\n", path, err)
			continue
		}
		pw := page.Bounds().Dx()
		ph := page.Bounds().Dy()

		stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		for _, t := range collectTiles(pw, ph, annByImage[img.ID], cfg, rng) {
			tileName := fmt.Sprintf("%s_tile_%04d.png", stem, t.index)
			tilePath := filepath.Join(outImages, tileName)

			crop := image.Rect(t.box[0], t.box[1], t.box[2], t.box[3]).Add(page.Bounds().Min)
			tw := crop.Dx()
			th := crop.Dy()
			tileImg := image.NewRGBA(image.Rect(0, 0, tw, th))
			draw.Draw(tileImg, tileImg.Bounds(), page, crop.Min, draw.Src)
			if err := saveImage(tileImg, tilePath); err != nil {
				return nil, err
			}

			out.Images = append(out.Images, coco.Image{
				ID:       nextImageID,
				FileName: tilePath,
				Width:    tw,
				Height:   th,
			})
			for _, a := range t.annos {
				out.Annotations = append(out.Annotations, coco.Annotation{
					ID:           nextAnnID,
					ImageID:      nextImageID,
					CategoryID:   a.categoryID,
					BBox:         []float64{a.bbox[0], a.bbox[1], a.bbox[2], a.bbox[3]},
					Area:         a.bbox[2] * a.bbox[3],
					Segmentation: []any{},
				})
				nextAnnID++
			}
			nextImageID++
		}
	}

	if err := out.Save(outAnns); err != nil {
		return nil, err
	}
	fmt.Fprintf(w, "Wrote tiled COCO: %s images=%d anns=%d\n", outAnns, len(out.Images), len(out.Annotations))
	return out, nil
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
