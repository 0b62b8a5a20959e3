// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package profile manages per-paper equation profiles: a directory per
// paper holding equations.jsonl, plus a root-level index.json registry.
package profile

import (
	"bufio"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/pdiddy/equation-scribe/pkg/types"
)

// EquationsFile is the per-paper JSONL file name.
const EquationsFile = "equations.jsonl"

// CanonicalHash returns a stable 16-hex-digit identifier for text.
func CanonicalHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return fmt.Sprintf("%x", sum)[:16]
}

// PaperDir returns root/paperID, creating it if needed.
func PaperDir(root, paperID string) (string, error) {
	dir := filepath.Join(root, paperID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating paper directory: %w", err)
	}
	return dir, nil
}

// WriteEquations writes records to dir/equations.jsonl. If the file exists
// and force is false an error is returned; with force the old file is
// rotated to a timestamped backup first.
func WriteEquations(dir string, records []types.Equation, force bool) error {
	path := filepath.Join(dir, EquationsFile)
	if _, err := os.Stat(path); err == nil {
		if !force {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
		backup := fmt.Sprintf("%s.bak.%d", path, time.Now().Unix())
		if err := os.Rename(path, backup); err != nil {
			return fmt.Errorf("rotating existing profile: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	for _, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return fmt.Errorf("writing equation record: %w", err)
		}
	}
	return nil
}

// AppendEquation appends one record to dir/equations.jsonl.
func AppendEquation(dir string, rec types.Equation) error {
	path := filepath.Join(dir, EquationsFile)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()
	if err := json.NewEncoder(f).Encode(rec); err != nil {
		return fmt.Errorf("appending equation record: %w", err)
	}
	return nil
}

// ReadEquations reads all records from an equations.jsonl file. Blank
// lines are skipped.
func ReadEquations(path string) ([]types.Equation, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	var records []types.Equation
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	line := 0
	for sc.Scan() {
		line++
		text := sc.Bytes()
		if len(text) == 0 {
			continue
		}
		var rec types.Equation
		if err := json.Unmarshal(text, &rec); err != nil {
			return nil, fmt.Errorf("%s line %d: %w", path, line, err)
		}
		records = append(records, rec)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return records, nil
}

// FindEquationFiles walks root and returns every equations.jsonl path,
// sorted by directory walk order.
func FindEquationFiles(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && d.Name() == EquationsFile {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", root, err)
	}
	return files, nil
}
