// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pdfingest opens PDFs, rasterizes pages, and converts between
// PDF point and pixel coordinates. It shells out to the poppler tools
// (pdfinfo, pdftoppm, pdftotext) through a tools.Runner.
package pdfingest

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/pdiddy/equation-scribe/internal/tools"
)

// PtPerInch is the PDF coordinate unit: 72 points per inch.
const PtPerInch = 72.0

// DefaultPageWidthPt is the US-letter page width assumed when converting
// coordinates without access to the source PDF.
const DefaultPageWidthPt = 612.0

// PageSize is one page's dimensions in PDF points.
type PageSize struct {
	Width  float64
	Height float64
}

// Doc is an opened PDF: its path, page count, per-page geometry, and the
// DPI used for rasterization.
type Doc struct {
	Path     string
	NumPages int
	DPI      int

	pages  []PageSize
	runner tools.Runner
}

// pageSizeLine matches pdfinfo output like
// "Page    3 size: 612 x 792 pts (letter)".
var pageSizeLine = regexp.MustCompile(`^Page\s+(\d+)\s+size:\s+([\d.]+)\s+x\s+([\d.]+)\s+pts`)

// Open verifies the PDF exists, reads its page count and per-page sizes
// with pdfinfo, and returns a Doc. A PDF with zero pages is an error.
func Open(r tools.Runner, path string, dpi int) (*Doc, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("PDF not found: %s", path)
	}
	if dpi <= 0 {
		dpi = 300
	}

	out, err := r.Output("pdfinfo", "-f", "1", "-l", "-1", path)
	if err != nil {
		return nil, fmt.Errorf("pdfinfo on %s: %w", path, err)
	}

	var pages []PageSize
	for _, line := range strings.Split(string(out), "\n") {
		m := pageSizeLine.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		w, _ := strconv.ParseFloat(m[2], 64)
		h, _ := strconv.ParseFloat(m[3], 64)
		pages = append(pages, PageSize{Width: w, Height: h})
	}
	if len(pages) == 0 {
		return nil, fmt.Errorf("PDF has zero pages: %s", path)
	}

	return &Doc{
		Path:     path,
		NumPages: len(pages),
		DPI:      dpi,
		pages:    pages,
		runner:   r,
	}, nil
}

// PageSizePoints returns (width, height) of page i in PDF points.
// Page indices are zero-based.
func (d *Doc) PageSizePoints(i int) (float64, float64, error) {
	if i < 0 || i >= d.NumPages {
		return 0, 0, fmt.Errorf("page index %d out of range [0, %d)", i, d.NumPages)
	}
	return d.pages[i].Width, d.pages[i].Height, nil
}

// renderedPage matches pdftoppm output names like "page-07.png".
var renderedPage = regexp.MustCompile(`^page-(\d+)\.png$`)

// RenderPages rasterizes every page into outDir as page_0000.png,
// page_0001.png, ... (zero-based) at the document DPI. Returns the number
// of pages rendered.
func (d *Doc) RenderPages(outDir string) (int, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return 0, fmt.Errorf("creating %s: %w", outDir, err)
	}

	prefix := filepath.Join(outDir, "page")
	if err := d.runner.Run("pdftoppm", "-png", "-r", strconv.Itoa(d.DPI), d.Path, prefix); err != nil {
		return 0, fmt.Errorf("rasterizing %s: %w", d.Path, err)
	}

	// pdftoppm numbers pages from 1 with count-dependent padding; rename
	// to the pipeline's zero-based fixed-width convention.
	entries, err := os.ReadDir(outDir)
	if err != nil {
		return 0, fmt.Errorf("listing %s: %w", outDir, err)
	}
	rendered := 0
	for _, e := range entries {
		m := renderedPage.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil || n < 1 {
			continue
		}
		dst := filepath.Join(outDir, fmt.Sprintf("page_%04d.png", n-1))
		if err := os.Rename(filepath.Join(outDir, e.Name()), dst); err != nil {
			return rendered, fmt.Errorf("renaming page image: %w", err)
		}
		rendered++
	}
	if rendered == 0 {
		return 0, fmt.Errorf("pdftoppm produced no pages for %s", d.Path)
	}
	return rendered, nil
}

// Transform converts between top-origin PDF points and pixels for one
// page at a fixed DPI. Both systems share the top-left origin, so the
// mapping is a pure scale.
type Transform struct {
	// Scale is pixels per point.
	Scale float64

	// PageHeightPt is the page height in points, needed to flip into the
	// PDF-native bottom-left origin.
	PageHeightPt float64
}

// PageTransform returns the transform for page i at the document DPI.
func (d *Doc) PageTransform(i int) (Transform, error) {
	_, h, err := d.PageSizePoints(i)
	if err != nil {
		return Transform{}, err
	}
	return Transform{Scale: float64(d.DPI) / PtPerInch, PageHeightPt: h}, nil
}

// FallbackTransform derives a transform from a page image's pixel size
// alone, assuming a DefaultPageWidthPt-wide page with height taken from
// the image aspect ratio. Used when the source PDF is unavailable.
func FallbackTransform(imgW, imgH int) Transform {
	heightPt := DefaultPageWidthPt * float64(imgH) / float64(imgW)
	return Transform{
		Scale:        float64(imgW) / DefaultPageWidthPt,
		PageHeightPt: heightPt,
	}
}

// PtToPx maps a top-origin point coordinate to pixels.
func (t Transform) PtToPx(xPt, yPt float64) (float64, float64) {
	return xPt * t.Scale, yPt * t.Scale
}

// PxToPt maps pixels back to top-origin points.
func (t Transform) PxToPt(xPx, yPx float64) (float64, float64) {
	return xPx / t.Scale, yPx / t.Scale
}

// PxToPDFNative maps pixels to PDF-native coordinates (bottom-left
// origin, y growing upward), the system PDF viewers and TeX use.
func (t Transform) PxToPDFNative(xPx, yPx float64) (float64, float64) {
	xPt, yPt := t.PxToPt(xPx, yPx)
	return xPt, t.PageHeightPt - yPt
}

// BoxPtToPx maps a top-origin [x0,y0,x1,y1] point box to pixels, clipped
// to the image bounds. ok is false when the clipped box is degenerate.
func (t Transform) BoxPtToPx(box [4]float64, imgW, imgH int) (out [4]float64, ok bool) {
	x0, y0 := t.PtToPx(box[0], box[1])
	x1, y1 := t.PtToPx(box[2], box[3])
	if x1 < x0 {
		x0, x1 = x1, x0
	}
	if y1 < y0 {
		y0, y1 = y1, y0
	}
	x0 = clamp(x0, 0, float64(imgW-1))
	y0 = clamp(y0, 0, float64(imgH-1))
	x1 = clamp(x1, 0, float64(imgW))
	y1 = clamp(y1, 0, float64(imgH))
	if x1 <= x0 || y1 <= y0 {
		return out, false
	}
	return [4]float64{x0, y0, x1, y1}, true
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
