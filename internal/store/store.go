// Package store persists analysis findings in a SQLite database so the MCP
// surface can answer queries without re-running the pipeline.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"anchorscope/internal/analyze"
	"anchorscope/util"
)

const schema = `
CREATE TABLE IF NOT EXISTS findings (
	id          TEXT PRIMARY KEY,
	file        TEXT NOT NULL,
	struct_name TEXT NOT NULL,
	account     TEXT NOT NULL,
	type_name   TEXT NOT NULL,
	status      TEXT NOT NULL,
	review      INTEGER NOT NULL DEFAULT 0,
	line        INTEGER NOT NULL DEFAULT 0,
	updated_at  TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_findings_file ON findings(file);
CREATE INDEX IF NOT EXISTS idx_findings_status ON findings(status);
`

// Finding is one persisted account classification.
type Finding struct {
	ID         string `json:"id"`
	File       string `json:"file"`
	StructName string `json:"struct_name"`
	Account    string `json:"account"`
	TypeName   string `json:"type_name"`
	Status     string `json:"status"`
	Review     bool   `json:"review"`
	Line       int    `json:"line"`
}

// ConstructSummary aggregates the stored findings of one struct.
type ConstructSummary struct {
	File       string `json:"file"`
	StructName string `json:"struct_name"`
	Accounts   int    `json:"accounts"`
	Undefined  int    `json:"undefined"`
	Review     int    `json:"review"`
}

// Store wraps the findings database.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the findings database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create db dir: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// BulkUpsertResults stores the findings of a run. Idempotent per
// (file, struct, account).
func (s *Store) BulkUpsertResults(ctx context.Context, results []*analyze.Result) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO findings
		(id, file, struct_name, account, type_name, status, review, line, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare upsert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(time.RFC3339)
	for _, res := range results {
		for _, f := range res.Findings {
			id := util.GenerateFindingID(res.SourceFile, res.Construct, f.Account)
			review := 0
			if f.Review {
				review = 1
			}
			if _, err := stmt.ExecContext(ctx, id, res.SourceFile, res.Construct,
				f.Account, f.TypeName, string(f.Status), review, f.Line, now); err != nil {
				return fmt.Errorf("failed to upsert finding: %w", err)
			}
		}
	}

	return tx.Commit()
}

// PruneStaleFiles deletes findings for files no longer present in the scan.
func (s *Store) PruneStaleFiles(ctx context.Context, validFiles []string) error {
	if len(validFiles) == 0 {
		_, err := s.db.ExecContext(ctx, `DELETE FROM findings`)
		return err
	}

	placeholders := strings.Repeat("?,", len(validFiles))
	placeholders = placeholders[:len(placeholders)-1]

	args := make([]any, len(validFiles))
	for i, f := range validFiles {
		args[i] = f
	}

	_, err := s.db.ExecContext(ctx,
		fmt.Sprintf(`DELETE FROM findings WHERE file NOT IN (%s)`, placeholders), args...)
	return err
}

// FindByStatus returns stored findings with the given status, optionally
// including any finding flagged for review regardless of status.
func (s *Store) FindByStatus(ctx context.Context, status string, includeReview bool) ([]*Finding, error) {
	query := `SELECT id, file, struct_name, account, type_name, status, review, line
		FROM findings WHERE status = ?`
	if includeReview {
		query += ` OR review = 1`
	}
	query += ` ORDER BY file, struct_name, line`

	rows, err := s.db.QueryContext(ctx, query, status)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	return scanFindings(rows)
}

// FindingsForStruct returns the stored findings of one struct.
func (s *Store) FindingsForStruct(ctx context.Context, structName string) ([]*Finding, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, file, struct_name, account, type_name, status, review, line
		FROM findings WHERE struct_name = ? ORDER BY file, line`, structName)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	return scanFindings(rows)
}

// ListConstructs summarizes every stored struct.
func (s *Store) ListConstructs(ctx context.Context) ([]*ConstructSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT file, struct_name,
			COUNT(*),
			SUM(CASE WHEN status = 'undefined' THEN 1 ELSE 0 END),
			SUM(review)
		FROM findings GROUP BY file, struct_name ORDER BY file, struct_name`)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var out []*ConstructSummary
	for rows.Next() {
		c := &ConstructSummary{}
		if err := rows.Scan(&c.File, &c.StructName, &c.Accounts, &c.Undefined, &c.Review); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func scanFindings(rows *sql.Rows) ([]*Finding, error) {
	var out []*Finding
	for rows.Next() {
		f := &Finding{}
		var review int
		if err := rows.Scan(&f.ID, &f.File, &f.StructName, &f.Account, &f.TypeName,
			&f.Status, &review, &f.Line); err != nil {
			return nil, err
		}
		f.Review = review == 1
		out = append(out, f)
	}
	return out, rows.Err()
}
