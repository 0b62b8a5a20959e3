// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pdiddy/equation-scribe/pkg/types"
)

// QueryOptions holds parameters for catalog queries.
type QueryOptions struct {
	// Query is the FTS5 full-text search string over the LaTeX.
	Query string

	// PaperID filters by paper.
	PaperID string

	// MaxResults limits result count. Zero uses the store default.
	MaxResults int
}

// IsEmpty reports whether the query has no search terms or filters.
func (q QueryOptions) IsEmpty() bool {
	return q.Query == "" && q.PaperID == ""
}

// QueryResult is one matching equation with its paper context.
type QueryResult struct {
	types.Equation
	PDFBasename string `json:"pdf_basename,omitempty"`
}

// Retrieve queries the catalog with optional full-text search and a
// paper filter. Full-text results are ranked by relevance; filter-only
// results sort by paper then equation UID.
func (s *Store) Retrieve(ctx context.Context, opts QueryOptions) ([]QueryResult, error) {
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = s.maxResults
	}

	var (
		qb     strings.Builder
		args   []any
		useFTS = opts.Query != ""
	)

	if useFTS {
		qb.WriteString(
			`SELECT e.eq_uid, e.paper_id, e.latex, e.notes, e.boxes, p.pdf_basename
			FROM equations_fts
			JOIN equations e ON e.rowid = equations_fts.rowid
			LEFT JOIN papers p ON e.paper_id = p.id
			WHERE equations_fts MATCH ?`)
		args = append(args, opts.Query)
	} else {
		qb.WriteString(
			`SELECT e.eq_uid, e.paper_id, e.latex, e.notes, e.boxes, p.pdf_basename
			FROM equations e
			LEFT JOIN papers p ON e.paper_id = p.id
			WHERE 1=1`)
	}

	if opts.PaperID != "" {
		qb.WriteString(` AND e.paper_id = ?`)
		args = append(args, opts.PaperID)
	}

	if useFTS {
		qb.WriteString(` ORDER BY equations_fts.rank`)
	} else {
		qb.WriteString(` ORDER BY e.paper_id, e.eq_uid`)
	}

	qb.WriteString(` LIMIT ?`)
	args = append(args, maxResults)

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying catalog: %w", err)
	}
	defer rows.Close()

	var results []QueryResult
	for rows.Next() {
		var (
			qr          QueryResult
			notes       sql.NullString
			boxesJSON   sql.NullString
			pdfBasename sql.NullString
		)
		if err := rows.Scan(&qr.EqUID, &qr.PaperID, &qr.Latex, &notes, &boxesJSON, &pdfBasename); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		if notes.Valid {
			qr.Notes = notes.String
		}
		if boxesJSON.Valid {
			if err := json.Unmarshal([]byte(boxesJSON.String), &qr.Boxes); err != nil {
				return nil, fmt.Errorf("decoding boxes for %s: %w", qr.EqUID, err)
			}
		}
		if pdfBasename.Valid {
			qr.PDFBasename = pdfBasename.String
		}
		results = append(results, qr)
	}

	return results, rows.Err()
}
