// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package detect implements the first-pass heuristic equation detector:
// it clusters a page's word spans into lines, scores each line for
// "mathiness", and keeps centered, math-heavy lines as candidates.
package detect

import (
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/pdiddy/equation-scribe/internal/pdfingest"
)

// yBinPt is the vertical bin width used to cluster words into lines.
const yBinPt = 3.0

var (
	mathGlyphs = runeSet("∑∫∂∇±≈≠≤≥∞√→←×•°≃≅≡⊂⊃⊆⊇∈∉∪∩∧∨¬⇒⇔⊗⊕…")
	opChars    = runeSet("=+-/*^_|()[]{}<>")

	latexHints = []string{
		`\frac`, `\cdot`, `\nabla`, `\sum`, `\int`, `\partial`,
		`\sqrt`, `\leq`, `\geq`,
	}
)

func runeSet(s string) map[rune]bool {
	set := make(map[rune]bool, len(s))
	for _, r := range s {
		set[r] = true
	}
	return set
}

func isGreek(r rune) bool {
	return unicode.In(r, unicode.Greek)
}

// MathyScore rates how equation-like a line of text is. Math glyphs,
// Greek letters, and operator characters count toward the score; LaTeX
// command hints count triple; every letter, Greek included, counts in
// the diluting denominator.
func MathyScore(s string) float64 {
	if len(s) == 0 {
		return 0
	}
	var mathy, alpha int
	for _, r := range s {
		if mathGlyphs[r] || isGreek(r) || opChars[r] {
			mathy++
		}
		if unicode.IsLetter(r) {
			alpha++
		}
	}
	for _, hint := range latexHints {
		if strings.Contains(s, hint) {
			mathy += 3
		}
	}
	return float64(mathy+1) / float64(alpha+5)
}

// Candidate is one scored equation candidate on a page.
type Candidate struct {
	// Text is the line text, words joined left to right.
	Text string

	// BBox is the union box [x0,y0,x1,y1] in top-origin PDF points.
	BBox [4]float64

	// Score is the mathiness score plus centeredness bonus.
	Score float64
}

// FindCandidates clusters spans into lines by vertical position, scores
// each line, and returns candidates above a small floor, strongest first.
// pageWidth is the page width in points, used for the centeredness bonus
// display equations earn.
func FindCandidates(spans []pdfingest.Span, pageWidth float64) []Candidate {
	if len(spans) == 0 {
		return nil
	}

	lines := make(map[float64][]pdfingest.Span)
	for _, s := range spans {
		key := math.Round(s.BBox[1]/yBinPt) * yBinPt
		lines[key] = append(lines[key], s)
	}

	var candidates []Candidate
	for _, words := range lines {
		sort.Slice(words, func(i, j int) bool {
			return words[i].BBox[0] < words[j].BBox[0]
		})

		box := words[0].BBox
		parts := make([]string, len(words))
		for i, w := range words {
			parts[i] = w.Text
			box[0] = math.Min(box[0], w.BBox[0])
			box[1] = math.Min(box[1], w.BBox[1])
			box[2] = math.Max(box[2], w.BBox[2])
			box[3] = math.Max(box[3], w.BBox[3])
		}
		text := strings.Join(parts, " ")

		score := MathyScore(text)

		// Display equations tend to sit near the horizontal center.
		cx := 0.5 * (box[0] + box[2])
		centerDev := math.Abs(cx-pageWidth/2) / (pageWidth / 2)
		bonus := math.Max(0, 0.3-centerDev)

		total := score + bonus
		if total >= 0.1 {
			candidates = append(candidates, Candidate{
				Text:  text,
				BBox:  box,
				Score: math.Round(total*1000) / 1000,
			})
		}
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})
	return candidates
}
