// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package split divides a COCO dataset into train and validation subsets
// grouped by paper, so pages of one paper never leak across the split.
package split

import (
	"fmt"
	"io"
	"math"
	"math/rand"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"gonum.org/v1/gonum/stat"

	"github.com/pdiddy/equation-scribe/internal/coco"
	"github.com/pdiddy/equation-scribe/pkg/types"
)

// paperPattern matches the "paperid_page_0001.png" naming convention.
var paperPattern = regexp.MustCompile(`^(.+?)_page_\d{1,4}\.`)

// PaperFromFilename infers the paper ID an image belongs to. It tries
// the paperid_page_NNNN convention first, then the parent directory,
// then the stem before the first underscore.
func PaperFromFilename(fname string) string {
	base := filepath.Base(fname)
	if m := paperPattern.FindStringSubmatch(base); m != nil {
		return m[1]
	}
	if dir := filepath.Base(filepath.Dir(fname)); dir != "." && dir != string(filepath.Separator) {
		return dir
	}
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if i := strings.Index(stem, "_"); i > 0 {
		return stem[:i]
	}
	return stem
}

// Result holds the two split halves and their paper assignment.
type Result struct {
	Train       *coco.File
	Val         *coco.File
	TrainPapers []string
	ValPapers   []string
}

// Split partitions f by paper. Papers are shuffled with the seeded RNG
// and max(1, round(papers*valFrac)) of them go to validation. Image and
// annotation records are carried over unchanged.
func Split(f *coco.File, cfg types.SplitConfig) (*Result, error) {
	if len(f.Images) == 0 {
		return nil, fmt.Errorf("dataset has no images")
	}
	valFrac := cfg.ValFrac
	if valFrac <= 0 {
		valFrac = 0.2
	}
	if valFrac >= 1 {
		return nil, fmt.Errorf("val fraction %v must be below 1", valFrac)
	}

	paperImages := make(map[string][]int)
	for _, img := range f.Images {
		paper := PaperFromFilename(img.FileName)
		paperImages[paper] = append(paperImages[paper], img.ID)
	}

	papers := make([]string, 0, len(paperImages))
	for p := range paperImages {
		papers = append(papers, p)
	}
	// Sort before shuffling so the seeded shuffle is reproducible
	// regardless of map iteration order.
	sort.Strings(papers)
	rand.New(rand.NewSource(cfg.Seed)).Shuffle(len(papers), func(i, j int) {
		papers[i], papers[j] = papers[j], papers[i]
	})

	nVal := int(float64(len(papers)) * valFrac)
	if nVal < 1 {
		nVal = 1
	}
	if nVal >= len(papers) {
		return nil, fmt.Errorf("val fraction %v leaves no training papers (%d papers total)", valFrac, len(papers))
	}

	valPapers := papers[:nVal]
	trainPapers := papers[nVal:]

	res := &Result{
		Train:       subset(f, paperImages, trainPapers),
		Val:         subset(f, paperImages, valPapers),
		TrainPapers: append([]string(nil), trainPapers...),
		ValPapers:   append([]string(nil), valPapers...),
	}
	sort.Strings(res.TrainPapers)
	sort.Strings(res.ValPapers)
	return res, nil
}

// subset copies the image and annotation records of the given papers.
func subset(f *coco.File, paperImages map[string][]int, papers []string) *coco.File {
	imagesByID := f.ImagesByID()
	keep := make(map[int]bool)

	out := &coco.File{
		Info:        f.Info,
		Licenses:    f.Licenses,
		Images:      []coco.Image{},
		Annotations: []coco.Annotation{},
		Categories:  f.Categories,
	}
	for _, paper := range papers {
		for _, id := range paperImages[paper] {
			out.Images = append(out.Images, imagesByID[id])
			keep[id] = true
		}
	}
	for _, ann := range f.Annotations {
		if keep[ann.ImageID] {
			out.Annotations = append(out.Annotations, ann)
		}
	}
	return out
}

// PrintSummary reports per-split image and annotation counts plus the
// mean and standard deviation of annotations per paper, a quick check
// that one annotation-heavy paper did not capture the validation split.
func (r *Result) PrintSummary(w io.Writer) {
	printSide(w, "train", r.Train, r.TrainPapers)
	printSide(w, "val", r.Val, r.ValPapers)
}

func printSide(w io.Writer, name string, f *coco.File, papers []string) {
	perPaper := make(map[string]float64)
	imagePaper := make(map[int]string)
	for _, img := range f.Images {
		imagePaper[img.ID] = PaperFromFilename(img.FileName)
	}
	for _, ann := range f.Annotations {
		perPaper[imagePaper[ann.ImageID]]++
	}

	counts := make([]float64, 0, len(papers))
	for _, p := range papers {
		counts = append(counts, perPaper[p])
	}

	mean, std := stat.MeanStdDev(counts, nil)
	if len(counts) < 2 || math.IsNaN(std) {
		std = 0
	}

	fmt.Fprintf(w, "%s: %d papers, %d images, %d annotations (%.1f ± %.1f anns/paper)\n",
		name, len(papers), len(f.Images), len(f.Annotations), mean, std)
}
