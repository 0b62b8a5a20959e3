// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package cocobuild converts equation profiles (equations.jsonl with
// bbox_pdf boxes) into COCO detector annotations over rendered page
// images.
package cocobuild

import (
	"fmt"
	"image"
	_ "image/png"
	"io"
	"os"
	"path/filepath"

	"github.com/pdiddy/equation-scribe/internal/coco"
	"github.com/pdiddy/equation-scribe/internal/pdfingest"
	"github.com/pdiddy/equation-scribe/internal/profile"
	"github.com/pdiddy/equation-scribe/internal/tools"
)

// Options configures a build.
type Options struct {
	// ProfilesRoot holds per-paper directories with equations.jsonl.
	ProfilesRoot string

	// PagesDir holds rendered page images, either per-paper subfolders
	// (<pages>/<paper>/page_0000.png) or flat (<paper>_page_0000.png).
	PagesDir string

	// PDFRoot optionally holds the source PDFs (<paper>.pdf). When a PDF
	// is found its true page geometry drives the coordinate conversion;
	// otherwise a letter-width fallback derived from the image is used.
	PDFRoot string

	// DPI is the rasterization DPI used when PDFs are available.
	DPI int
}

// Build walks every equations.jsonl under opts.ProfilesRoot, converts each
// box from PDF points to pixels on its resolved page image, and writes a
// COCO file to outPath. Papers or pages whose images cannot be found are
// reported to w and skipped.
func Build(r tools.Runner, opts Options, outPath string, w io.Writer) (*coco.File, error) {
	files, err := profile.FindEquationFiles(opts.ProfilesRoot)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no equations.jsonl found under %s", opts.ProfilesRoot)
	}

	out := coco.New("Equation detector dataset")
	imageIDs := make(map[string]int)
	nextAnnID := 1

	for _, eqFile := range files {
		paperDir := filepath.Dir(eqFile)
		paperID := filepath.Base(paperDir)

		eqs, err := profile.ReadEquations(eqFile)
		if err != nil {
			fmt.Fprintf(w, "skipping %s: %v\n", eqFile, err)
			continue
		}

		doc := openPDF(r, opts, paperID)

		for _, eq := range eqs {
			for _, box := range eq.Boxes {
				imgPath := resolvePageImage(opts.PagesDir, paperDir, paperID, box.Page)
				if imgPath == "" {
					fmt.Fprintf(w, "no page image for %s page %d; skipping box\n", paperID, box.Page)
					continue
				}
				imgW, imgH, err := imageSize(imgPath)
				if err != nil {
					fmt.Fprintf(w, "unreadable page image %s: %v\n", imgPath, err)
					continue
				}

				var tf pdfingest.Transform
				if doc != nil {
					if t, err := doc.PageTransform(box.Page); err == nil {
						tf = t
					} else {
						tf = pdfingest.FallbackTransform(imgW, imgH)
					}
				} else {
					tf = pdfingest.FallbackTransform(imgW, imgH)
				}

				px, ok := tf.BoxPtToPx(box.BBoxPDF, imgW, imgH)
				if !ok {
					continue
				}

				imgID, seen := imageIDs[imgPath]
				if !seen {
					imgID = len(out.Images) + 1
					imageIDs[imgPath] = imgID
					out.Images = append(out.Images, coco.Image{
						ID:       imgID,
						FileName: imgPath,
						Width:    imgW,
						Height:   imgH,
					})
				}

				bbox := coco.XYXYToBBox(px[0], px[1], px[2], px[3])
				out.Annotations = append(out.Annotations, coco.Annotation{
					ID:           nextAnnID,
					ImageID:      imgID,
					CategoryID:   coco.CategoryDisplay,
					BBox:         bbox,
					Area:         bbox[2] * bbox[3],
					Segmentation: []any{},
				})
				nextAnnID++
			}
		}
	}

	if err := out.Save(outPath); err != nil {
		return nil, err
	}
	fmt.Fprintf(w, "Wrote COCO annotations to %s (%d images, %d annotations)\n",
		outPath, len(out.Images), len(out.Annotations))
	return out, nil
}

// openPDF opens the paper's source PDF when PDFRoot is set and the file
// exists. Any failure just means fallback coordinate conversion.
func openPDF(r tools.Runner, opts Options, paperID string) *pdfingest.Doc {
	if opts.PDFRoot == "" {
		return nil
	}
	path := filepath.Join(opts.PDFRoot, paperID+".pdf")
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	doc, err := pdfingest.Open(r, path, opts.DPI)
	if err != nil {
		return nil
	}
	return doc
}

// resolvePageImage tries the known page image locations in priority order:
// per-paper subfolder, flat shared folder, then the profile's own images/
// directory.
func resolvePageImage(pagesDir, paperDir, paperID string, page int) string {
	var candidates []string
	if pagesDir != "" {
		candidates = append(candidates,
			filepath.Join(pagesDir, paperID, fmt.Sprintf("page_%04d.png", page)),
			filepath.Join(pagesDir, fmt.Sprintf("%s_page_%04d.png", paperID, page)),
		)
	}
	candidates = append(candidates, filepath.Join(paperDir, "images", fmt.Sprintf("page_%04d.png", page)))

	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c
		}
	}
	return ""
}

func imageSize(path string) (int, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()
	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, err
	}
	return cfg.Width, cfg.Height, nil
}
