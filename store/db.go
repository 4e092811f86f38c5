package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// ExportRecord is one composite image written to disk.
type ExportRecord struct {
	ID         string `json:"id"`
	Filename   string `json:"filename"`
	Path       string `json:"path"`
	Format     string `json:"format"`
	Size       int    `json:"size"`
	Title      string `json:"title,omitempty"`
	SourceText string `json:"source_text"`
	CreatedAt  int64  `json:"created_at"`
}

// ExportLog manages SQLite storage for the export ledger.
type ExportLog struct {
	db *sql.DB
}

const createExportsTable = `
CREATE TABLE IF NOT EXISTS exports (
    id TEXT PRIMARY KEY,
    filename TEXT NOT NULL,
    path TEXT NOT NULL,
    format TEXT NOT NULL,
    size INTEGER NOT NULL DEFAULT 0,
    title TEXT NOT NULL DEFAULT '',
    source_text TEXT NOT NULL DEFAULT '',
    created_at INTEGER NOT NULL
);
`

const createIndexes = `
CREATE INDEX IF NOT EXISTS idx_exports_created_at ON exports(created_at);
`

// NewExportLog opens (or creates) the SQLite database at dbPath, initialises
// the schema and returns a ready-to-use ExportLog.
func NewExportLog(dbPath string) (*ExportLog, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Verify the connection is alive.
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	for _, stmt := range []string{createExportsTable, createIndexes} {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec schema statement: %w", err)
		}
	}

	return &ExportLog{db: db}, nil
}

// Record inserts rec, assigning an ID and timestamp when they are unset, and
// returns the stored record.
func (s *ExportLog) Record(ctx context.Context, rec ExportRecord) (ExportRecord, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt == 0 {
		rec.CreatedAt = time.Now().UnixMilli()
	}

	const query = `
		INSERT INTO exports
			(id, filename, path, format, size, title, source_text, created_at)
		VALUES
			(?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query,
		rec.ID,
		rec.Filename,
		rec.Path,
		rec.Format,
		rec.Size,
		rec.Title,
		rec.SourceText,
		rec.CreatedAt,
	)
	if err != nil {
		return ExportRecord{}, fmt.Errorf("record export: %w", err)
	}
	return rec, nil
}

// List returns the most recent exports first.
func (s *ExportLog) List(ctx context.Context, limit int) ([]ExportRecord, error) {
	const query = `
		SELECT id, filename, path, format, size, title, source_text, created_at
		FROM exports
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?
	`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list exports: %w", err)
	}
	defer rows.Close()

	var recs []ExportRecord
	for rows.Next() {
		var r ExportRecord
		if err := rows.Scan(
			&r.ID, &r.Filename, &r.Path, &r.Format,
			&r.Size, &r.Title, &r.SourceText, &r.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan export row: %w", err)
		}
		recs = append(recs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate export rows: %w", err)
	}
	return recs, nil
}

// Close closes the underlying database connection.
func (s *ExportLog) Close() error {
	return s.db.Close()
}
