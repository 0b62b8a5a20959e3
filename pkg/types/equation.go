// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Box locates one occurrence of an equation on a PDF page.
type Box struct {
	// Page is the zero-based page index.
	Page int `json:"page" yaml:"page"`

	// BBoxPDF is [x0, y0, x1, y1] in PDF points with a top-left origin
	// (the y axis grows downward, matching page images).
	BBoxPDF [4]float64 `json:"bbox_pdf" yaml:"bbox_pdf"`
}

// Equation is one profile record from a paper's equations.jsonl.
type Equation struct {
	// EqUID is a stable short hash of the equation text.
	EqUID string `json:"eq_uid" yaml:"eq_uid"`

	// PaperID identifies the paper the equation came from.
	PaperID string `json:"paper_id" yaml:"paper_id"`

	// Latex is the equation source. For heuristic detections this starts
	// out as the raw extracted text and is refined by later passes.
	Latex string `json:"latex" yaml:"latex"`

	// Notes holds free-form reviewer notes.
	Notes string `json:"notes" yaml:"notes"`

	// Boxes lists the page locations of the equation.
	Boxes []Box `json:"boxes" yaml:"boxes"`
}

// Pair is one recognition training sample: a cropped equation image and
// its gold LaTeX.
type Pair struct {
	Image string `json:"image"`
	Latex string `json:"latex"`
}

// Detection is one detector output box in pixel coordinates.
type Detection struct {
	// XYXY is [x0, y0, x1, y1] in pixels.
	XYXY [4]float64 `json:"xyxy"`

	// Conf is the detector confidence.
	Conf float64 `json:"conf"`

	// Class is the zero-based detector class (0=display, 1=inline).
	Class int `json:"cls"`
}

// PageEquation is one equation pasted onto a synthetic page, recorded in
// the page's meta sidecar as gold truth for the recognizer.
type PageEquation struct {
	Latex string `json:"latex"`

	// BBox is [x0, y0, x1, y1] in page pixels.
	BBox [4]float64 `json:"bbox"`

	// Type is "display" or "inline".
	Type string `json:"type"`
}

// PageMeta is the sidecar written next to each synthetic page image.
type PageMeta struct {
	FileName string         `json:"file_name"`
	Width    int            `json:"width"`
	Height   int            `json:"height"`
	Eqs      []PageEquation `json:"eqs"`
}
