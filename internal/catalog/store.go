// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package catalog maintains a searchable SQLite index over every
// equation profile: full-text search on the LaTeX plus paper-level
// filters.
package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/equation-scribe/internal/profile"
	"github.com/pdiddy/equation-scribe/pkg/types"
)

const dbFile = "catalog.db"

// Store manages the equation catalog SQLite database.
type Store struct {
	db         *sql.DB
	dataRoot   string
	maxResults int
}

// NewStore opens or creates the catalog database at
// dataRoot/catalog.db and ensures the schema exists.
func NewStore(cfg types.CatalogConfig) (*Store, error) {
	if err := os.MkdirAll(cfg.DataRoot, 0o755); err != nil {
		return nil, fmt.Errorf("creating data root: %w", err)
	}

	dbPath := filepath.Join(cfg.DataRoot, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 20
	}

	s := &Store{
		db:         db,
		dataRoot:   cfg.DataRoot,
		maxResults: maxResults,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS papers (
			id TEXT PRIMARY KEY,
			pdf_basename TEXT,
			num_equations INTEGER,
			created_at TEXT,
			updated_at TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS equations (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			eq_uid TEXT NOT NULL,
			paper_id TEXT NOT NULL REFERENCES papers(id),
			latex TEXT NOT NULL,
			notes TEXT,
			boxes TEXT,
			UNIQUE(paper_id, eq_uid)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_equations_paper_id ON equations(paper_id)`,
		`CREATE TABLE IF NOT EXISTS indexing_status (
			paper_id TEXT PRIMARY KEY,
			file_mod_time TEXT
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	// FTS5 virtual table over the LaTeX, kept in sync with triggers.
	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='equations_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}

	if ftsExists == 0 {
		ftsStatements := []string{
			`CREATE VIRTUAL TABLE equations_fts USING fts5(latex, content=equations, content_rowid=rowid)`,
			`CREATE TRIGGER equations_ai AFTER INSERT ON equations BEGIN
				INSERT INTO equations_fts(rowid, latex) VALUES (new.rowid, new.latex);
			END`,
			`CREATE TRIGGER equations_ad AFTER DELETE ON equations BEGIN
				INSERT INTO equations_fts(equations_fts, rowid, latex) VALUES('delete', old.rowid, old.latex);
			END`,
			`CREATE TRIGGER equations_au AFTER UPDATE ON equations BEGIN
				INSERT INTO equations_fts(equations_fts, rowid, latex) VALUES('delete', old.rowid, old.latex);
				INSERT INTO equations_fts(rowid, latex) VALUES (new.rowid, new.latex);
			END`,
		}
		for _, stmt := range ftsStatements {
			if _, err := s.db.Exec(stmt); err != nil {
				return fmt.Errorf("creating FTS infrastructure: %w", err)
			}
		}
	}

	return nil
}

// IngestSummary holds counts from a catalog indexing run.
type IngestSummary struct {
	Indexed int
	Updated int
	Skipped int
	Failed  int
}

// Total returns the number of profiles processed.
func (s IngestSummary) Total() int {
	return s.Indexed + s.Updated + s.Skipped + s.Failed
}

// Ingest walks every equations.jsonl under the data root and populates
// the database, skipping files unchanged since the last run.
func (s *Store) Ingest(ctx context.Context, w io.Writer) (IngestSummary, error) {
	files, err := profile.FindEquationFiles(s.dataRoot)
	if err != nil {
		return IngestSummary{}, err
	}

	idx, err := profile.LoadIndex(s.dataRoot)
	if err != nil {
		return IngestSummary{}, err
	}

	var summary IngestSummary

	for _, path := range files {
		select {
		case <-ctx.Done():
			return summary, ctx.Err()
		default:
		}

		paperID := filepath.Base(filepath.Dir(path))

		info, err := os.Stat(path)
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", paperID, err)
			summary.Failed++
			continue
		}
		modTime := info.ModTime().UTC().Format(time.RFC3339Nano)

		var storedModTime string
		err = s.db.QueryRowContext(ctx,
			`SELECT file_mod_time FROM indexing_status WHERE paper_id = ?`, paperID,
		).Scan(&storedModTime)

		if err == nil && storedModTime == modTime {
			fmt.Fprintf(w, "skipped %s\n", paperID)
			summary.Skipped++
			continue
		}
		isUpdate := err == nil

		eqs, err := profile.ReadEquations(path)
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", paperID, err)
			summary.Failed++
			continue
		}

		entry := idx.Papers[paperID]
		if err := s.ingestPaper(ctx, paperID, eqs, entry, modTime, isUpdate); err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", paperID, err)
			summary.Failed++
			continue
		}

		if isUpdate {
			fmt.Fprintf(w, "updated %s (%d equations)\n", paperID, len(eqs))
			summary.Updated++
		} else {
			fmt.Fprintf(w, "indexing %s (%d equations)\n", paperID, len(eqs))
			summary.Indexed++
		}
	}

	fmt.Fprintf(w, "\nindexed: %d, updated: %d, skipped: %d, failed: %d\n",
		summary.Indexed, summary.Updated, summary.Skipped, summary.Failed)

	return summary, nil
}

func (s *Store) ingestPaper(ctx context.Context, paperID string, eqs []types.Equation, entry profile.IndexEntry, modTime string, isUpdate bool) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if isUpdate {
		if _, err := tx.ExecContext(ctx, `DELETE FROM equations WHERE paper_id = ?`, paperID); err != nil {
			return fmt.Errorf("deleting old equations: %w", err)
		}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO papers (id, pdf_basename, num_equations, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			pdf_basename=excluded.pdf_basename, num_equations=excluded.num_equations,
			updated_at=excluded.updated_at`,
		paperID, entry.PDFBasename, len(eqs), entry.CreatedAt, entry.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upserting paper: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR REPLACE INTO equations (eq_uid, paper_id, latex, notes, boxes)
		 VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, eq := range eqs {
		boxesJSON, _ := json.Marshal(eq.Boxes)
		if _, err := stmt.ExecContext(ctx, eq.EqUID, paperID, eq.Latex, eq.Notes, string(boxesJSON)); err != nil {
			return fmt.Errorf("inserting equation %s: %w", eq.EqUID, err)
		}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO indexing_status (paper_id, file_mod_time) VALUES (?, ?)
		 ON CONFLICT(paper_id) DO UPDATE SET file_mod_time=excluded.file_mod_time`,
		paperID, modTime,
	)
	if err != nil {
		return fmt.Errorf("updating indexing status: %w", err)
	}

	return tx.Commit()
}
