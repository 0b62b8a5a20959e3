// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fetch downloads paper PDFs from arXiv IDs or direct URLs for
// dataset building.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/pdiddy/equation-scribe/internal/httputil"
	"github.com/pdiddy/equation-scribe/pkg/types"
)

// rawDir is the subdirectory under the papers base for raw PDFs.
const rawDir = "raw"

// BatchResult holds the outcome of a batch fetch run.
type BatchResult struct {
	Downloaded int
	Skipped    int
	Failed     int
	Papers     []*types.Paper
}

// Total returns the total number of identifiers processed.
func (r BatchResult) Total() int {
	return r.Downloaded + r.Skipped + r.Failed
}

// HasFailures reports whether any papers failed.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0
}

// FetchPaper resolves a single identifier (arXiv ID or direct PDF URL)
// and downloads the PDF. If the PDF already exists on disk the download
// is skipped; the skipped return value reports which happened.
func FetchPaper(client *http.Client, identifier string, cfg types.FetchConfig, w io.Writer) (paper *types.Paper, skipped bool, err error) {
	idType, normalized := Classify(identifier)
	if idType == TypeUnknown {
		return nil, false, fmt.Errorf("unrecognized identifier: %q (expected an arXiv ID or PDF URL)", identifier)
	}

	slug := Slug(idType, normalized)
	pdfPath := filepath.Join(cfg.PapersDir, rawDir, slug+".pdf")

	if _, err := os.Stat(pdfPath); err == nil {
		fmt.Fprintf(w, "skipped: %s (already exists)\n", slug)
		return &types.Paper{ID: slug, PDFPath: pdfPath, Source: idType.String()}, true, nil
	}

	if err := os.MkdirAll(filepath.Join(cfg.PapersDir, rawDir), 0o755); err != nil {
		return nil, false, fmt.Errorf("creating papers directory: %w", err)
	}

	pdfURL := PDFURL(idType, normalized)
	fmt.Fprintf(w, "downloading: %s\n", slug)

	if err := downloadFile(client, pdfURL, pdfPath, cfg); err != nil {
		return nil, false, fmt.Errorf("downloading %s: %w", slug, err)
	}

	return &types.Paper{
		ID:        slug,
		SourceURL: pdfURL,
		PDFPath:   pdfPath,
		Source:    idType.String(),
	}, false, nil
}

// FetchBatch processes multiple identifiers, printing per-item status and
// returning a summary. It continues after individual failures and applies
// a delay between consecutive downloads.
func FetchBatch(client *http.Client, identifiers []string, cfg types.FetchConfig, w io.Writer) BatchResult {
	var result BatchResult
	for i, id := range identifiers {
		if i > 0 && cfg.DownloadDelay > 0 {
			time.Sleep(cfg.DownloadDelay)
		}
		paper, wasSkipped, err := FetchPaper(client, id, cfg, w)
		if err != nil {
			fmt.Fprintf(w, "failed:  %s (%v)\n", id, err)
			result.Failed++
			continue
		}
		if wasSkipped {
			result.Skipped++
		} else {
			result.Downloaded++
		}
		result.Papers = append(result.Papers, paper)
	}
	fmt.Fprintf(w, "\nBatch summary: %d downloaded, %d skipped, %d failed (total: %d)\n",
		result.Downloaded, result.Skipped, result.Failed, result.Total())
	return result
}

// downloadFile fetches url to destPath via a temporary file, renamed on
// success so an interrupted download never leaves a partial PDF behind.
// Rate-limit responses are retried with backoff.
func downloadFile(client *http.Client, url, destPath string, cfg types.FetchConfig) error {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", cfg.UserAgent)
	req.Header.Set("Accept", "application/pdf")

	resp, err := httputil.DoWithRetry(context.Background(), client, req, 0)
	if err != nil {
		return fmt.Errorf("HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP %d from %s", resp.StatusCode, url)
	}

	tmpFile, err := os.CreateTemp(filepath.Dir(destPath), ".fetch-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmpFile.Name()

	if _, err := io.Copy(tmpFile, resp.Body); err != nil {
		tmpFile.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing PDF: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, destPath); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("renaming PDF into place: %w", err)
	}
	return nil
}
