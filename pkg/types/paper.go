// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types holds record and configuration types shared across the
// pipeline stages.
package types

// Paper holds metadata and file paths for a fetched paper.
type Paper struct {
	// ID is a slug derived from the paper identifier (e.g. "2301.07041").
	ID string `json:"id" yaml:"id"`

	// SourceURL is the URL from which the paper was downloaded.
	SourceURL string `json:"source_url" yaml:"source_url"`

	// PDFPath is the local filesystem path to the downloaded PDF.
	PDFPath string `json:"pdf_path" yaml:"pdf_path"`

	// Source identifies where the PDF came from (currently always "arxiv").
	Source string `json:"source,omitempty" yaml:"source,omitempty"`
}
