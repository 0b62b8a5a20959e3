// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package texscan finds display-math regions in LaTeX sources. Papers
// with TeX available (arXiv) yield exact gold LaTeX this way, far better
// than heuristic text-layer detection.
package texscan

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/pdiddy/equation-scribe/internal/profile"
	"github.com/pdiddy/equation-scribe/pkg/types"
)

// Region is one display-math block with its 1-based source line range.
type Region struct {
	StartLine int
	EndLine   int
	Latex     string
}

var (
	displayBegin = regexp.MustCompile(`\\begin\{(equation|align|gather|multline)\*?\}`)
	displayEnd   = regexp.MustCompile(`\\end\{(equation|align|gather|multline)\*?\}`)
)

// FindRegions scans TeX source text for display-math regions: numbered
// environments, \[...\] blocks, and $$...$$ blocks. Unterminated regions
// are ignored.
func FindRegions(src string) []Region {
	lines := strings.Split(src, "\n")
	var regions []Region

	i := 0
	for i < len(lines) {
		if displayBegin.MatchString(lines[i]) {
			end, ok := findEnvEnd(lines, i)
			if !ok {
				i++
				continue
			}
			regions = append(regions, Region{
				StartLine: i + 1,
				EndLine:   end + 1,
				Latex:     strings.Join(lines[i:end+1], "\n"),
			})
			i = end + 1
			continue
		}

		if strings.Contains(lines[i], `\[`) {
			if end, ok := findLineContaining(lines, i, `\]`); ok {
				regions = append(regions, Region{
					StartLine: i + 1,
					EndLine:   end + 1,
					Latex:     strings.Join(lines[i:end+1], "\n"),
				})
				i = end + 1
				continue
			}
		}

		// $$ opens a block only when the line holds an odd count.
		if strings.Count(lines[i], "$$")%2 == 1 {
			if end, ok := findDollarClose(lines, i); ok {
				regions = append(regions, Region{
					StartLine: i + 1,
					EndLine:   end + 1,
					Latex:     strings.Join(lines[i:end+1], "\n"),
				})
				i = end + 1
				continue
			}
		}
		i++
	}
	return regions
}

// findEnvEnd locates the \end matching the \begin at line start, tracking
// nesting depth.
func findEnvEnd(lines []string, start int) (int, bool) {
	depth := 0
	for j := start; j < len(lines); j++ {
		if displayBegin.MatchString(lines[j]) {
			depth++
		}
		if displayEnd.MatchString(lines[j]) {
			depth--
			if depth <= 0 {
				return j, true
			}
		}
	}
	return 0, false
}

func findLineContaining(lines []string, start int, marker string) (int, bool) {
	for j := start; j < len(lines); j++ {
		if strings.Contains(lines[j], marker) {
			return j, true
		}
	}
	return 0, false
}

func findDollarClose(lines []string, start int) (int, bool) {
	for j := start + 1; j < len(lines); j++ {
		if strings.Count(lines[j], "$$")%2 == 1 {
			return j, true
		}
	}
	return 0, false
}

// ScanFile reads a TeX source and returns its display-math regions.
func ScanFile(path string) ([]Region, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading TeX source: %w", err)
	}
	return FindRegions(string(data)), nil
}

// ToEquations converts regions into profile records for paperID. Boxes
// are left empty: TeX extraction yields exact LaTeX, not page geometry.
func ToEquations(regions []Region, paperID string) []types.Equation {
	out := make([]types.Equation, 0, len(regions))
	for _, r := range regions {
		latex := strings.TrimSpace(r.Latex)
		out = append(out, types.Equation{
			EqUID:   profile.CanonicalHash(latex),
			PaperID: paperID,
			Latex:   latex,
			Notes:   fmt.Sprintf("tex lines %d-%d", r.StartLine, r.EndLine),
		})
	}
	return out
}
