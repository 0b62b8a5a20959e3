// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package preprocess cleans up scanned page images before detection:
// grayscale conversion plus optional denoising, deskewing, contrast
// enhancement, and adaptive binarization, all via OpenCV.
package preprocess

import (
	"fmt"
	"image"
	"image/color"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gocv.io/x/gocv"

	"github.com/pdiddy/equation-scribe/pkg/types"
)

// ToGray converts src to 8-bit single-channel grayscale. Already-gray
// inputs are cloned.
func ToGray(src gocv.Mat) gocv.Mat {
	if src.Channels() == 1 {
		return src.Clone()
	}
	dst := gocv.NewMat()
	gocv.CvtColor(src, &dst, gocv.ColorBGRToGray)
	return dst
}

// Denoise applies fast non-local-means denoising, which works well on
// scanned pages: h=10, 7px template window, 21px search window.
func Denoise(g gocv.Mat) gocv.Mat {
	dst := gocv.NewMat()
	gocv.FastNlMeansDenoisingWithParams(g, &dst, 10, 7, 21)
	return dst
}

// Deskew levels a tilted scan: Canny edges feed a minimum-area rectangle
// whose angle drives an affine rotation about the page center. Pages with
// fewer than 10 edge pixels are returned unchanged.
func Deskew(g gocv.Mat) gocv.Mat {
	blur := gocv.NewMat()
	defer blur.Close()
	gocv.GaussianBlur(g, &blur, image.Pt(3, 3), 0, 0, gocv.BorderDefault)

	edges := gocv.NewMat()
	defer edges.Close()
	gocv.Canny(blur, &edges, 50, 150)

	if gocv.CountNonZero(edges) < 10 {
		return g.Clone()
	}

	pts := gocv.NewMat()
	defer pts.Close()
	gocv.FindNonZero(edges, &pts)
	pv := gocv.NewPointVectorFromMat(pts)
	defer pv.Close()

	angle := gocv.MinAreaRect(pv).Angle
	if angle < -45 {
		angle = -(90 + angle)
	} else {
		angle = -angle
	}

	center := image.Pt(g.Cols()/2, g.Rows()/2)
	m := gocv.GetRotationMatrix2D(center, angle, 1.0)
	defer m.Close()

	dst := gocv.NewMat()
	gocv.WarpAffineWithParams(g, &dst, m, image.Pt(g.Cols(), g.Rows()),
		gocv.InterpolationCubic, gocv.BorderReplicate, color.RGBA{})
	return dst
}

// CLAHE applies contrast-limited adaptive histogram equalization
// (clip limit 2.0, 8x8 tiles).
func CLAHE(g gocv.Mat) gocv.Mat {
	c := gocv.NewCLAHEWithParams(2.0, image.Pt(8, 8))
	defer c.Close()
	dst := gocv.NewMat()
	c.Apply(g, &dst)
	return dst
}

// AdaptiveThreshold binarizes with a Gaussian-weighted window: a pixel
// goes black when it is at least c levels darker than the weighted mean
// of the window x window block around it. Even window sizes are bumped to
// the next odd value; windows below 3 fall back to the default 25.
func AdaptiveThreshold(g gocv.Mat, window int, c float32) gocv.Mat {
	if window < 3 {
		window = 25
	}
	if window%2 == 0 {
		window++
	}
	dst := gocv.NewMat()
	gocv.AdaptiveThreshold(g, &dst, 255, gocv.AdaptiveThresholdGaussian, gocv.ThresholdBinary, window, c)
	return dst
}

// Process runs the configured cleanup steps on one image.
func Process(src gocv.Mat, cfg types.PreprocessConfig) gocv.Mat {
	g := ToGray(src)
	if cfg.Denoise {
		next := Denoise(g)
		g.Close()
		g = next
	}
	if cfg.Deskew {
		next := Deskew(g)
		g.Close()
		g = next
	}
	if cfg.Stretch {
		next := CLAHE(g)
		g.Close()
		g = next
	}
	if cfg.Binarize {
		next := AdaptiveThreshold(g, 25, 10)
		g.Close()
		g = next
	}
	return g
}

var imageExts = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".tif": true, ".tiff": true,
}

// ProcessFolder cleans every image under inDir and writes the results
// under outDir, mirroring the directory layout. Output is always PNG.
// Returns the number of images processed.
func ProcessFolder(inDir, outDir string, cfg types.PreprocessConfig, w io.Writer) (int, error) {
	count := 0
	err := filepath.WalkDir(inDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !imageExts[strings.ToLower(filepath.Ext(path))] {
			return nil
		}

		rel, err := filepath.Rel(inDir, path)
		if err != nil {
			return err
		}
		outPath := filepath.Join(outDir, strings.TrimSuffix(rel, filepath.Ext(rel))+".png")
		if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}

		img := gocv.IMRead(path, gocv.IMReadGrayScale)
		if img.Empty() {
			fmt.Fprintf(w, "skipping unreadable image %s\n", path)
			return nil
		}
		defer img.Close()

		out := Process(img, cfg)
		defer out.Close()
		if ok := gocv.IMWrite(outPath, out); !ok {
			return fmt.Errorf("writing %s", outPath)
		}
		count++
		return nil
	})
	if err != nil {
		return count, err
	}
	fmt.Fprintf(w, "Preprocessed %d images -> %s\n", count, outDir)
	return count, nil
}
