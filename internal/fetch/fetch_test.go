// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pdiddy/equation-scribe/pkg/types"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		in       string
		wantType IdentifierType
		wantID   string
	}{
		{"2301.07041", TypeArxiv, "2301.07041"},
		{"arXiv:2301.07041", TypeArxiv, "2301.07041"},
		{"2301.07041v2", TypeArxiv, "2301.07041v2"},
		{" 2301.07041 ", TypeArxiv, "2301.07041"},
		{"https://example.org/papers/main.pdf", TypeURL, "https://example.org/papers/main.pdf"},
		{"http://example.org/main.pdf", TypeURL, "http://example.org/main.pdf"},
		{"ftp://example.org/main.pdf", TypeUnknown, "ftp://example.org/main.pdf"},
		{"10.1145/1234567.1234568", TypeUnknown, "10.1145/1234567.1234568"},
		{"not-a-paper", TypeUnknown, "not-a-paper"},
		{"", TypeUnknown, ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			gotType, gotID := Classify(tt.in)
			if gotType != tt.wantType || gotID != tt.wantID {
				t.Errorf("Classify(%q) = (%v, %q), want (%v, %q)", tt.in, gotType, gotID, tt.wantType, tt.wantID)
			}
		})
	}
}

func TestSlug(t *testing.T) {
	tests := []struct {
		idType IdentifierType
		in     string
		want   string
	}{
		{TypeArxiv, "2301.07041v2", "2301.07041v2"},
		{TypeURL, "https://example.org/papers/main.pdf", "main"},
	}
	for _, tt := range tests {
		if got := Slug(tt.idType, tt.in); got != tt.want {
			t.Errorf("Slug(%v, %q) = %q, want %q", tt.idType, tt.in, got, tt.want)
		}
	}

	// A URL with no usable basename falls back to a hash slug.
	if got := Slug(TypeURL, "https://example.org/"); !strings.HasPrefix(got, "url-") {
		t.Errorf("Slug for bare URL = %q, want a url- hash slug", got)
	}
}

func TestPDFURL(t *testing.T) {
	if got := PDFURL(TypeArxiv, "2301.07041"); got != arxivPDFBase+"2301.07041" {
		t.Errorf("arXiv PDFURL = %q", got)
	}
	direct := "https://example.org/main.pdf"
	if got := PDFURL(TypeURL, direct); got != direct {
		t.Errorf("direct PDFURL = %q, want the URL unchanged", got)
	}
}

func testConfig(dir string) types.FetchConfig {
	return types.FetchConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   5 * time.Second,
			UserAgent: "equation-scribe/test",
		},
		PapersDir: dir,
	}
}

func TestFetchPaper_DownloadAndSkip(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("%PDF-1.5 fake"))
	}))
	defer ts.Close()

	oldBase := arxivPDFBase
	arxivPDFBase = ts.URL + "/pdf/"
	defer func() { arxivPDFBase = oldBase }()

	dir := t.TempDir()
	cfg := testConfig(dir)
	var log bytes.Buffer

	paper, skipped, err := FetchPaper(ts.Client(), "2301.07041", cfg, &log)
	if err != nil {
		t.Fatalf("FetchPaper: %v", err)
	}
	if skipped {
		t.Error("first fetch reported skipped")
	}
	data, err := os.ReadFile(paper.PDFPath)
	if err != nil {
		t.Fatalf("reading downloaded PDF: %v", err)
	}
	if !strings.HasPrefix(string(data), "%PDF") {
		t.Errorf("unexpected PDF content %q", data)
	}

	// No temp files left next to the PDF.
	entries, _ := os.ReadDir(filepath.Join(dir, "raw"))
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".tmp") {
			t.Errorf("temp file left behind: %s", e.Name())
		}
	}

	// Second fetch skips.
	_, skipped, err = FetchPaper(ts.Client(), "2301.07041", cfg, &log)
	if err != nil {
		t.Fatalf("second FetchPaper: %v", err)
	}
	if !skipped {
		t.Error("second fetch did not skip")
	}
}

func TestFetchPaper_DirectURL(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("%PDF-1.5 fake"))
	}))
	defer ts.Close()

	dir := t.TempDir()
	var log bytes.Buffer
	paper, skipped, err := FetchPaper(ts.Client(), ts.URL+"/papers/survey.pdf", testConfig(dir), &log)
	if err != nil {
		t.Fatalf("FetchPaper: %v", err)
	}
	if skipped {
		t.Error("fresh download reported skipped")
	}
	if paper.ID != "survey" {
		t.Errorf("paper ID = %q, want the URL basename", paper.ID)
	}
	if paper.Source != "url" {
		t.Errorf("paper source = %q, want url", paper.Source)
	}
	if _, err := os.Stat(filepath.Join(dir, "raw", "survey.pdf")); err != nil {
		t.Errorf("missing downloaded PDF: %v", err)
	}
}

func TestFetchPaper_HTTPError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer ts.Close()

	oldBase := arxivPDFBase
	arxivPDFBase = ts.URL + "/pdf/"
	defer func() { arxivPDFBase = oldBase }()

	dir := t.TempDir()
	var log bytes.Buffer
	_, _, err := FetchPaper(ts.Client(), "2301.99999", testConfig(dir), &log)
	if err == nil || !strings.Contains(err.Error(), "HTTP 404") {
		t.Fatalf("expected HTTP 404 error, got %v", err)
	}
	// Failed download leaves no PDF.
	if _, err := os.Stat(filepath.Join(dir, "raw", "2301.99999.pdf")); !os.IsNotExist(err) {
		t.Error("partial PDF left behind after failure")
	}
}

func TestFetchBatch_ContinuesAfterFailure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("%PDF-1.5 fake"))
	}))
	defer ts.Close()

	oldBase := arxivPDFBase
	arxivPDFBase = ts.URL + "/pdf/"
	defer func() { arxivPDFBase = oldBase }()

	var log bytes.Buffer
	result := FetchBatch(ts.Client(), []string{"2301.07041", "bogus", "2302.00001"}, testConfig(t.TempDir()), &log)

	if result.Downloaded != 2 || result.Failed != 1 {
		t.Errorf("result = %+v, want 2 downloaded, 1 failed", result)
	}
	if !result.HasFailures() {
		t.Error("HasFailures should be true")
	}
	if !strings.Contains(log.String(), "Batch summary: 2 downloaded, 0 skipped, 1 failed") {
		t.Errorf("missing summary line in %q", log.String())
	}
}
