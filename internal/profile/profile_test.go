// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package profile

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pdiddy/equation-scribe/pkg/types"
)

func sampleRecords() []types.Equation {
	return []types.Equation{
		{
			EqUID:   CanonicalHash("E = mc^2"),
			PaperID: "paperA",
			Latex:   "E = mc^2",
			Boxes:   []types.Box{{Page: 0, BBoxPDF: [4]float64{72, 100, 200, 120}}},
		},
		{
			EqUID:   CanonicalHash("a^2 + b^2 = c^2"),
			PaperID: "paperA",
			Latex:   "a^2 + b^2 = c^2",
			Boxes:   []types.Box{{Page: 1, BBoxPDF: [4]float64{80, 300, 240, 330}}},
		},
	}
}

func TestCanonicalHash(t *testing.T) {
	h := CanonicalHash("E = mc^2")
	if len(h) != 16 {
		t.Fatalf("hash length = %d, want 16", len(h))
	}
	if h != CanonicalHash("E = mc^2") {
		t.Error("hash is not stable")
	}
	if h == CanonicalHash("E = mc^3") {
		t.Error("distinct inputs collided")
	}
}

func TestWriteReadEquations(t *testing.T) {
	dir, err := PaperDir(t.TempDir(), "paperA")
	if err != nil {
		t.Fatal(err)
	}

	recs := sampleRecords()
	if err := WriteEquations(dir, recs, false); err != nil {
		t.Fatalf("WriteEquations: %v", err)
	}

	got, err := ReadEquations(filepath.Join(dir, EquationsFile))
	if err != nil {
		t.Fatalf("ReadEquations: %v", err)
	}
	if len(got) != len(recs) {
		t.Fatalf("got %d records, want %d", len(got), len(recs))
	}
	if got[0].Latex != recs[0].Latex || got[1].EqUID != recs[1].EqUID {
		t.Errorf("records do not round-trip: %+v", got)
	}
}

func TestWriteEquations_RefusesOverwrite(t *testing.T) {
	dir, err := PaperDir(t.TempDir(), "paperA")
	if err != nil {
		t.Fatal(err)
	}
	if err := WriteEquations(dir, sampleRecords(), false); err != nil {
		t.Fatal(err)
	}

	err = WriteEquations(dir, sampleRecords(), false)
	if err == nil || !strings.Contains(err.Error(), "--force") {
		t.Fatalf("expected overwrite refusal, got %v", err)
	}

	// Force rotates the old file to a backup.
	if err := WriteEquations(dir, sampleRecords()[:1], true); err != nil {
		t.Fatalf("forced overwrite: %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	backups := 0
	for _, e := range entries {
		if strings.Contains(e.Name(), ".bak.") {
			backups++
		}
	}
	if backups != 1 {
		t.Errorf("got %d backup files, want 1", backups)
	}
}

func TestFindEquationFiles(t *testing.T) {
	root := t.TempDir()
	for _, paper := range []string{"paperA", "paperB"} {
		dir, err := PaperDir(root, paper)
		if err != nil {
			t.Fatal(err)
		}
		if err := WriteEquations(dir, sampleRecords(), false); err != nil {
			t.Fatal(err)
		}
	}

	files, err := FindEquationFiles(root)
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 2 {
		t.Fatalf("got %d files, want 2", len(files))
	}
}

func TestRegisterPaper(t *testing.T) {
	root := t.TempDir()

	if err := RegisterPaper(root, "paperA", "paperA.pdf", 3, false); err != nil {
		t.Fatalf("RegisterPaper: %v", err)
	}

	idx, err := LoadIndex(root)
	if err != nil {
		t.Fatal(err)
	}
	entry, ok := idx.Papers["paperA"]
	if !ok {
		t.Fatal("paperA missing from index")
	}
	if entry.NumEquations != 3 || entry.PDFBasename != "paperA.pdf" {
		t.Errorf("unexpected entry: %+v", entry)
	}
	if idx.ByPDFBasename["paperA.pdf"] != "paperA" {
		t.Error("reverse mapping missing")
	}

	// Same paper again without force is refused.
	if err := RegisterPaper(root, "paperA", "paperA.pdf", 3, false); err == nil {
		t.Error("expected duplicate-paper error")
	}

	// Same PDF under a different paper ID is refused.
	if err := RegisterPaper(root, "paperA2", "paperA.pdf", 1, false); err == nil {
		t.Error("expected pdf-conflict error")
	}

	// Force updates in place, preserving created_at.
	if err := RegisterPaper(root, "paperA", "paperA.pdf", 5, true); err != nil {
		t.Fatalf("forced re-register: %v", err)
	}
	idx, err = LoadIndex(root)
	if err != nil {
		t.Fatal(err)
	}
	updated := idx.Papers["paperA"]
	if updated.NumEquations != 5 {
		t.Errorf("num_equations = %d, want 5", updated.NumEquations)
	}
	if updated.CreatedAt != entry.CreatedAt {
		t.Errorf("created_at changed on update")
	}
}

func TestLoadIndex_Empty(t *testing.T) {
	idx, err := LoadIndex(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if idx.Version != 1 || idx.Papers == nil || idx.ByPDFBasename == nil {
		t.Errorf("empty index not initialized: %+v", idx)
	}
}
