// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package synth generates synthetic training pages: rendered LaTeX
// equations pasted onto blank A4-ish canvases, with COCO annotations and
// per-page gold-LaTeX sidecars for the recognizer.
package synth

import (
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/equation-scribe/internal/coco"
	"github.com/pdiddy/equation-scribe/internal/render"
	"github.com/pdiddy/equation-scribe/pkg/types"
)

// Page canvas size, roughly A4 at 150 DPI.
const (
	pageWidth  = 1240
	pageHeight = 1754
	margin     = 60
)

// pool is the fixed expression set synthetic pages draw from.
var pool = []string{
	`E = mc^2`,
	`\nabla \cdot \mathbf{E} = \rho / \varepsilon_0`,
	`\frac{d}{dx}\sin(x) = \cos(x)`,
	`\int_{0}^{1} x^2 \, dx`,
	`\begin{pmatrix} a & b \\ c & d \end{pmatrix}`,
	`\sum_{n=0}^{\infty} \frac{x^n}{n!}`,
	`a^2 + b^2 = c^2`,
	`\alpha + \beta = \gamma`,
	`\sqrt{\frac{1}{2}}`,
	`\left( \frac{\partial^2}{\partial x^2} + \frac{\partial^2}{\partial y^2} \right) u = 0`,
}

// Generate writes cfg.Pages synthetic pages into outImages, a meta
// sidecar next to each page, and COCO annotations to outAnns. Returns the
// COCO file for inspection. Expressions that fail to render are reported
// to w and skipped.
func Generate(r *render.Renderer, cfg types.SynthConfig, outImages, outAnns string, w io.Writer) (*coco.File, error) {
	if cfg.Pages <= 0 {
		cfg.Pages = 50
	}
	if cfg.EqsPerPage <= 0 {
		cfg.EqsPerPage = 5
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 150
	}
	if err := os.MkdirAll(outImages, 0o755); err != nil {
		return nil, fmt.Errorf("creating %s: %w", outImages, err)
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	out := coco.New("Synthetic equation dataset")

	imageID := 1
	annID := 1

	for pg := 0; pg < cfg.Pages; pg++ {
		pageName := fmt.Sprintf("page_%04d.png", pg)
		pagePath := filepath.Join(outImages, pageName)

		canvas := image.NewRGBA(image.Rect(0, 0, pageWidth, pageHeight))
		draw.Draw(canvas, canvas.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

		var pageEqs []types.PageEquation
		for i := 0; i < cfg.EqsPerPage; i++ {
			expr := pool[rng.Intn(len(pool))]

			tmpPath := filepath.Join(outImages, fmt.Sprintf("tmp_%d_%d.png", pg, i))
			if err := r.Render(expr, tmpPath, cfg.DPI); err != nil {
				fmt.Fprintf(w, "skipping expression (render failed): %s: %v\n", expr, err)
				continue
			}
			eqImg, err := loadPNG(tmpPath)
			os.Remove(tmpPath)
			if err != nil {
				fmt.Fprintf(w, "skipping expression (decode failed): %s: %v\n", expr, err)
				continue
			}

			ew := eqImg.Bounds().Dx()
			eh := eqImg.Bounds().Dy()
			maxX := max(margin, pageWidth-ew-margin)
			maxY := max(margin, pageHeight-eh-margin)
			x := margin + rng.Intn(maxX-margin+1)
			y := margin + rng.Intn(maxY-margin+1)

			dst := image.Rect(x, y, x+ew, y+eh)
			draw.Draw(canvas, dst, eqImg, eqImg.Bounds().Min, draw.Src)

			pageEqs = append(pageEqs, types.PageEquation{
				Latex: expr,
				BBox:  [4]float64{float64(x), float64(y), float64(x + ew), float64(y + eh)},
				Type:  "display",
			})
		}

		if err := savePNG(canvas, pagePath); err != nil {
			return nil, err
		}

		meta := types.PageMeta{
			FileName: pagePath,
			Width:    pageWidth,
			Height:   pageHeight,
			Eqs:      pageEqs,
		}
		if err := writeMeta(pagePath, meta); err != nil {
			return nil, err
		}

		out.Images = append(out.Images, coco.Image{
			ID:       imageID,
			FileName: pagePath,
			Width:    pageWidth,
			Height:   pageHeight,
		})
		for _, eq := range pageEqs {
			bbox := coco.XYXYToBBox(eq.BBox[0], eq.BBox[1], eq.BBox[2], eq.BBox[3])
			out.Annotations = append(out.Annotations, coco.Annotation{
				ID:           annID,
				ImageID:      imageID,
				CategoryID:   coco.CategoryDisplay,
				BBox:         bbox,
				Area:         bbox[2] * bbox[3],
				Segmentation: []any{},
			})
			annID++
		}
		imageID++
	}

	if err := out.Save(outAnns); err != nil {
		return nil, err
	}
	fmt.Fprintf(w, "Wrote %d images and %d annotations to %s\n",
		len(out.Images), len(out.Annotations), outAnns)
	return out, nil
}

// MetaPath returns the sidecar path for a page image
// (page_0001.png -> page_0001.meta.json).
func MetaPath(imagePath string) string {
	ext := filepath.Ext(imagePath)
	return strings.TrimSuffix(imagePath, ext) + ".meta.json"
}

// LoadMeta reads a page's meta sidecar. Missing sidecars return (nil, nil):
// real pages legitimately have no gold LaTeX.
func LoadMeta(imagePath string) (*types.PageMeta, error) {
	data, err := os.ReadFile(MetaPath(imagePath))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading page meta: %w", err)
	}
	var meta types.PageMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", MetaPath(imagePath), err)
	}
	return &meta, nil
}

func writeMeta(imagePath string, meta types.PageMeta) error {
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding page meta: %w", err)
	}
	if err := os.WriteFile(MetaPath(imagePath), data, 0o644); err != nil {
		return fmt.Errorf("writing page meta: %w", err)
	}
	return nil
}

func loadPNG(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return png.Decode(f)
}

func savePNG(img image.Image, path string) error {
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
