// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pdfingest

import (
	"encoding/xml"
	"fmt"
)

// Span is one word from a page's text layer. BBox is [x0,y0,x1,y1] in
// top-origin PDF points (pdftotext reports yMin from the page top).
type Span struct {
	Text string
	Page int
	BBox [4]float64
}

// bboxDoc mirrors the XHTML document pdftotext -bbox emits.
type bboxDoc struct {
	XMLName xml.Name `xml:"html"`
	Body    struct {
		Doc struct {
			Pages []bboxPage `xml:"page"`
		} `xml:"doc"`
	} `xml:"body"`
}

type bboxPage struct {
	Width  float64    `xml:"width,attr"`
	Height float64    `xml:"height,attr"`
	Words  []bboxWord `xml:"word"`
}

type bboxWord struct {
	XMin float64 `xml:"xMin,attr"`
	YMin float64 `xml:"yMin,attr"`
	XMax float64 `xml:"xMax,attr"`
	YMax float64 `xml:"yMax,attr"`
	Text string  `xml:",chardata"`
}

// PageSpans extracts the word spans of page i via pdftotext's bbox mode.
// Scanned pages with no text layer yield an empty slice, not an error.
func (d *Doc) PageSpans(i int) ([]Span, error) {
	if i < 0 || i >= d.NumPages {
		return nil, fmt.Errorf("page index %d out of range [0, %d)", i, d.NumPages)
	}
	page := fmt.Sprintf("%d", i+1)
	out, err := d.runner.Output("pdftotext", "-bbox", "-f", page, "-l", page, d.Path, "-")
	if err != nil {
		return nil, fmt.Errorf("extracting text layer: %w", err)
	}
	return parseSpans(out, i)
}

// parseSpans decodes pdftotext -bbox XML into spans for page index.
func parseSpans(data []byte, page int) ([]Span, error) {
	var doc bboxDoc
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing pdftotext output: %w", err)
	}

	var spans []Span
	for _, p := range doc.Body.Doc.Pages {
		for _, w := range p.Words {
			if w.Text == "" {
				continue
			}
			spans = append(spans, Span{
				Text: w.Text,
				Page: page,
				BBox: [4]float64{w.XMin, w.YMin, w.XMax, w.YMax},
			})
		}
	}
	return spans, nil
}
