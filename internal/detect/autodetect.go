// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package detect

import (
	"fmt"
	"io"

	"github.com/pdiddy/equation-scribe/internal/pdfingest"
	"github.com/pdiddy/equation-scribe/internal/profile"
	"github.com/pdiddy/equation-scribe/pkg/types"
)

// AutoDetect runs the heuristic detector over every page of doc and
// returns equation records above minScore. The raw extracted text stands
// in for LaTeX until a later refinement pass. Pages without a text layer
// are reported to w and skipped.
func AutoDetect(doc *pdfingest.Doc, paperID string, minScore float64, w io.Writer) ([]types.Equation, error) {
	if minScore <= 0 {
		minScore = 0.6
	}

	var records []types.Equation
	for page := 0; page < doc.NumPages; page++ {
		spans, err := doc.PageSpans(page)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", page, err)
		}
		if len(spans) == 0 {
			fmt.Fprintf(w, "page %d: no text layer, skipping\n", page)
			continue
		}

		pageWidth, _, err := doc.PageSizePoints(page)
		if err != nil {
			return nil, err
		}

		for _, cand := range FindCandidates(spans, pageWidth) {
			if cand.Score < minScore {
				continue
			}
			records = append(records, types.Equation{
				EqUID:   profile.CanonicalHash(cand.Text),
				PaperID: paperID,
				Latex:   cand.Text,
				Boxes: []types.Box{{
					Page:    page,
					BBoxPDF: cand.BBox,
				}},
			})
		}
	}
	return records, nil
}
