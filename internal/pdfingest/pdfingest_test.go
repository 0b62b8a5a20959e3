// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pdfingest

import (
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"testing"
)

// fakeRunner fakes the poppler tools. pdfinfo and pdftotext return canned
// output; pdftoppm writes empty page files the way poppler names them.
type fakeRunner struct {
	pages    int
	infoErr  error
	bboxXML  string
	lastArgs []string
}

func (f *fakeRunner) LookPath(bin string) (string, error) { return "/usr/bin/" + bin, nil }

func (f *fakeRunner) Run(bin string, args ...string) error {
	f.lastArgs = append([]string{bin}, args...)
	if bin != "pdftoppm" {
		return fmt.Errorf("unexpected binary %s", bin)
	}
	prefix := args[len(args)-1]
	for i := 1; i <= f.pages; i++ {
		name := fmt.Sprintf("%s-%d.png", prefix, i)
		if err := os.WriteFile(name, []byte("png"), 0o644); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeRunner) Output(bin string, args ...string) ([]byte, error) {
	f.lastArgs = append([]string{bin}, args...)
	switch bin {
	case "pdfinfo":
		if f.infoErr != nil {
			return nil, f.infoErr
		}
		var out string
		for i := 1; i <= f.pages; i++ {
			out += fmt.Sprintf("Page    %d size: 612 x 792 pts (letter)\n", i)
		}
		out += "Pages:          " + fmt.Sprint(f.pages) + "\n"
		return []byte(out), nil
	case "pdftotext":
		return []byte(f.bboxXML), nil
	}
	return nil, fmt.Errorf("unexpected binary %s", bin)
}

func (f *fakeRunner) Stream(w io.Writer, bin string, args ...string) error {
	return fmt.Errorf("unexpected stream call")
}

func writePDF(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "paper.pdf")
	if err := os.WriteFile(path, []byte("%PDF-1.5"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestOpen(t *testing.T) {
	path := writePDF(t)
	doc, err := Open(&fakeRunner{pages: 3}, path, 300)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if doc.NumPages != 3 {
		t.Errorf("NumPages = %d, want 3", doc.NumPages)
	}
	w, h, err := doc.PageSizePoints(1)
	if err != nil {
		t.Fatal(err)
	}
	if w != 612 || h != 792 {
		t.Errorf("page size = %v x %v, want 612 x 792", w, h)
	}
	if _, _, err := doc.PageSizePoints(3); err == nil {
		t.Error("expected out-of-range error")
	}
}

func TestOpen_Errors(t *testing.T) {
	if _, err := Open(&fakeRunner{pages: 1}, "/no/such.pdf", 300); err == nil {
		t.Error("expected error for missing file")
	}
	if _, err := Open(&fakeRunner{pages: 0}, writePDF(t), 300); err == nil {
		t.Error("expected error for zero pages")
	}
}

func TestRenderPages(t *testing.T) {
	doc, err := Open(&fakeRunner{pages: 2}, writePDF(t), 150)
	if err != nil {
		t.Fatal(err)
	}
	outDir := filepath.Join(t.TempDir(), "pages")
	n, err := doc.RenderPages(outDir)
	if err != nil {
		t.Fatalf("RenderPages: %v", err)
	}
	if n != 2 {
		t.Errorf("rendered %d pages, want 2", n)
	}
	for _, name := range []string{"page_0000.png", "page_0001.png"} {
		if _, err := os.Stat(filepath.Join(outDir, name)); err != nil {
			t.Errorf("missing %s", name)
		}
	}
}

func TestTransformRoundTrip(t *testing.T) {
	doc, err := Open(&fakeRunner{pages: 1}, writePDF(t), 300)
	if err != nil {
		t.Fatal(err)
	}
	tr, err := doc.PageTransform(0)
	if err != nil {
		t.Fatal(err)
	}

	// 300 DPI over 72 pt/in.
	xPx, yPx := tr.PtToPx(72, 144)
	if xPx != 300 || yPx != 600 {
		t.Errorf("PtToPx(72,144) = (%v,%v), want (300,600)", xPx, yPx)
	}
	xPt, yPt := tr.PxToPt(xPx, yPx)
	if math.Abs(xPt-72) > 1e-9 || math.Abs(yPt-144) > 1e-9 {
		t.Errorf("round trip = (%v,%v), want (72,144)", xPt, yPt)
	}

	// Native PDF coordinates flip around the page height.
	_, yNative := tr.PxToPDFNative(xPx, yPx)
	if math.Abs(yNative-(792-144)) > 1e-9 {
		t.Errorf("native y = %v, want %v", yNative, 792-144)
	}
}

func TestFallbackTransform(t *testing.T) {
	// A 1224x1584 image of a 612x792 pt page: 2 px per pt.
	tr := FallbackTransform(1224, 1584)
	if math.Abs(tr.Scale-2) > 1e-9 {
		t.Errorf("scale = %v, want 2", tr.Scale)
	}
	if math.Abs(tr.PageHeightPt-792) > 1e-9 {
		t.Errorf("page height = %v, want 792", tr.PageHeightPt)
	}
}

func TestBoxPtToPx(t *testing.T) {
	tr := Transform{Scale: 2, PageHeightPt: 792}

	box, ok := tr.BoxPtToPx([4]float64{10, 20, 50, 40}, 1224, 1584)
	if !ok {
		t.Fatal("expected valid box")
	}
	want := [4]float64{20, 40, 100, 80}
	if box != want {
		t.Errorf("box = %v, want %v", box, want)
	}

	// Zero-width box is rejected.
	if _, ok := tr.BoxPtToPx([4]float64{10, 20, 10, 40}, 1224, 1584); ok {
		t.Error("expected degenerate box to be rejected")
	}
}
