// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package profile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// IndexFile is the registry file name at the profiles root.
const IndexFile = "index.json"

// IndexEntry describes one registered paper.
type IndexEntry struct {
	PaperID      string `json:"paper_id"`
	PDFBasename  string `json:"pdf_basename"`
	ProfilesDir  string `json:"profiles_dir"`
	NumEquations int    `json:"num_equations,omitempty"`
	CreatedAt    string `json:"created_at"`
	UpdatedAt    string `json:"updated_at"`
}

// Index maps paper IDs to entries and PDF basenames back to paper IDs, so
// re-ingesting the same PDF under a second ID is caught early.
type Index struct {
	Version       int                   `json:"version"`
	Papers        map[string]IndexEntry `json:"papers"`
	ByPDFBasename map[string]string     `json:"by_pdf_basename"`
}

// LoadIndex reads root/index.json, returning an empty index when the file
// does not exist yet.
func LoadIndex(root string) (*Index, error) {
	idx := &Index{
		Version:       1,
		Papers:        map[string]IndexEntry{},
		ByPDFBasename: map[string]string{},
	}
	data, err := os.ReadFile(filepath.Join(root, IndexFile))
	if err != nil {
		if os.IsNotExist(err) {
			return idx, nil
		}
		return nil, fmt.Errorf("reading index: %w", err)
	}
	if err := json.Unmarshal(data, idx); err != nil {
		return nil, fmt.Errorf("parsing index: %w", err)
	}
	if idx.Papers == nil {
		idx.Papers = map[string]IndexEntry{}
	}
	if idx.ByPDFBasename == nil {
		idx.ByPDFBasename = map[string]string{}
	}
	if idx.Version == 0 {
		idx.Version = 1
	}
	return idx, nil
}

// SaveIndex writes the index atomically via temp file and rename.
func SaveIndex(root string, idx *Index) error {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return fmt.Errorf("creating profiles root: %w", err)
	}
	data, err := json.MarshalIndent(idx, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding index: %w", err)
	}
	path := filepath.Join(root, IndexFile)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing index: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replacing index: %w", err)
	}
	return nil
}

// RegisterPaper records a paper in the index. Without force it refuses to
// re-register an existing paper ID or to associate a PDF basename that
// already belongs to a different paper.
func RegisterPaper(root, paperID, pdfBasename string, numEquations int, force bool) error {
	idx, err := LoadIndex(root)
	if err != nil {
		return err
	}

	if existing, ok := idx.ByPDFBasename[pdfBasename]; ok && existing != paperID && !force {
		return fmt.Errorf("PDF %q is already associated with paper %q", pdfBasename, existing)
	}
	if _, ok := idx.Papers[paperID]; ok && !force {
		return fmt.Errorf("paper %q already exists in index (use --force to overwrite)", paperID)
	}

	now := time.Now().UTC().Format(time.RFC3339)
	entry, ok := idx.Papers[paperID]
	if !ok {
		entry.CreatedAt = now
	}
	entry.PaperID = paperID
	entry.PDFBasename = pdfBasename
	entry.ProfilesDir = paperID
	entry.UpdatedAt = now
	if numEquations >= 0 {
		entry.NumEquations = numEquations
	}

	idx.Papers[paperID] = entry
	idx.ByPDFBasename[pdfBasename] = paperID

	return SaveIndex(root, idx)
}
