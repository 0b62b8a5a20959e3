// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package render rasterizes LaTeX math expressions to PNG. The primary
// route compiles a standalone document with pdflatex and converts it with
// pdftoppm; when TeX is unavailable a built-in glyph renderer produces a
// deterministic placeholder image so synthetic data generation still works.
package render

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/pdiddy/equation-scribe/internal/tools"
)

// latexPackages are included in every standalone document.
var latexPackages = []string{"amsmath", "amssymb", "amsfonts", "bm"}

// Renderer rasterizes expressions. The zero value is not usable; call New.
type Renderer struct {
	runner tools.Runner

	// ForceFallback skips the TeX route entirely. Used by tests and by
	// synthetic generation on machines without TeX.
	ForceFallback bool
}

// New returns a Renderer using r for external tools.
func New(r tools.Runner) *Renderer {
	return &Renderer{runner: r}
}

// needsFullLatex reports whether expr uses constructs the fallback cannot
// approximate and a real TeX engine should handle.
func needsFullLatex(expr string) bool {
	for _, marker := range []string{`\begin`, `\matrix`, `\displaystyle`, `\cases`, `\align`, "\n"} {
		if strings.Contains(expr, marker) {
			return true
		}
	}
	return false
}

// texAvailable reports whether both pdflatex and pdftoppm are on PATH.
func (r *Renderer) texAvailable() bool {
	return tools.Available(r.runner, "pdflatex") && tools.Available(r.runner, "pdftoppm")
}

// Render rasterizes expr to a PNG at outPath. The TeX route is used when
// available; otherwise the glyph fallback. dpi controls resolution on
// both routes.
func (r *Renderer) Render(expr, outPath string, dpi int) error {
	if dpi <= 0 {
		dpi = 150
	}
	if !r.ForceFallback && r.texAvailable() {
		texDPI := dpi
		if needsFullLatex(expr) && texDPI < 300 {
			texDPI = 300
		}
		if err := r.renderTeX(expr, outPath, texDPI); err == nil {
			return nil
		}
		// TeX failed on this expression; fall through to the glyph route.
	}
	return renderFallback(expr, outPath, dpi)
}

// mathBlock wraps expr for the standalone document: display math for
// environment-style input, inline math for short expressions, and as-is
// when the input already carries delimiters.
func mathBlock(expr string) string {
	s := strings.TrimSpace(expr)
	alreadyMath := strings.HasPrefix(s, "$") || strings.HasPrefix(s, `\(`) || strings.HasPrefix(s, `\[`)
	switch {
	case alreadyMath:
		return s
	case needsFullLatex(s):
		return "\\[\n" + s + "\n\\]"
	default:
		return `\(` + s + `\)`
	}
}

// texDocument builds the standalone LaTeX source for expr.
func texDocument(expr string) string {
	var b strings.Builder
	b.WriteString("\\documentclass[varwidth=true, border=2pt]{standalone}\n")
	fmt.Fprintf(&b, "\\usepackage{%s}\n", strings.Join(latexPackages, ","))
	b.WriteString("\\begin{document}\n")
	b.WriteString(mathBlock(expr))
	b.WriteString("\n\\end{document}\n")
	return b.String()
}

// renderTeX compiles expr with pdflatex and converts the PDF to PNG.
func (r *Renderer) renderTeX(expr, outPath string, dpi int) error {
	td, err := os.MkdirTemp("", "eqrender-*")
	if err != nil {
		return fmt.Errorf("creating temp dir: %w", err)
	}
	defer os.RemoveAll(td)

	texFile := filepath.Join(td, "eq.tex")
	if err := os.WriteFile(texFile, []byte(texDocument(expr)), 0o644); err != nil {
		return fmt.Errorf("writing tex source: %w", err)
	}

	if err := r.runner.Run("pdflatex",
		"-interaction=nonstopmode", "-halt-on-error",
		"-output-directory", td, texFile,
	); err != nil {
		return fmt.Errorf("pdflatex: %w", err)
	}

	pdfFile := filepath.Join(td, "eq.pdf")
	if _, err := os.Stat(pdfFile); err != nil {
		return fmt.Errorf("pdflatex produced no PDF for %q", expr)
	}

	prefix := filepath.Join(td, "eqimg")
	if err := r.runner.Run("pdftoppm", "-png", "-singlefile", "-r", strconv.Itoa(dpi), pdfFile, prefix); err != nil {
		return fmt.Errorf("pdftoppm: %w", err)
	}

	data, err := os.ReadFile(prefix + ".png")
	if err != nil {
		return fmt.Errorf("reading rendered PNG: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	if err := os.WriteFile(outPath, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", outPath, err)
	}
	return nil
}

// renderFallback draws expr with a fixed 7x13 glyph face onto a white
// background and scales by dpi/150. Deterministic: the same expression
// and dpi always produce the same image.
func renderFallback(expr, outPath string, dpi int) error {
	const pad = 6
	face := basicfont.Face7x13

	w := font.MeasureString(face, expr).Ceil() + 2*pad
	h := face.Metrics().Height.Ceil() + 2*pad
	if w < 2*pad+1 {
		w = 2*pad + 1
	}

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, xdraw.Src)

	drawer := font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.Black),
		Face: face,
		Dot:  fixed.P(pad, pad+face.Metrics().Ascent.Ceil()),
	}
	drawer.DrawString(expr)

	out := image.Image(img)
	if dpi != 150 {
		sw := w * dpi / 150
		sh := h * dpi / 150
		if sw < 1 {
			sw = 1
		}
		if sh < 1 {
			sh = 1
		}
		scaled := image.NewRGBA(image.Rect(0, 0, sw, sh))
		xdraw.NearestNeighbor.Scale(scaled, scaled.Bounds(), img, img.Bounds(), xdraw.Src, nil)
		out = scaled
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("creating %s: %w", outPath, err)
	}
	defer f.Close()
	if err := png.Encode(f, out); err != nil {
		return fmt.Errorf("encoding PNG: %w", err)
	}
	return nil
}
