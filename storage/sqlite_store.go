package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

type SQLiteStore struct {
	db *sql.DB
}

// Download records one page body written to disk.
type Download struct {
	ID           int64
	PageID       string
	Title        string
	SpaceKey     string
	Path         string
	Bytes        int64
	DownloadedAt time.Time
}

var ErrInvalidDownload = errors.New("invalid download record")

// timestampLayout is fixed width so downloaded_at sorts lexically.
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.ensureSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) ensureSchema() error {
	const schema = `
CREATE TABLE IF NOT EXISTS downloads (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	page_id TEXT NOT NULL,
	title TEXT NOT NULL,
	space_key TEXT NOT NULL DEFAULT '',
	path TEXT NOT NULL,
	bytes INTEGER NOT NULL CHECK(bytes >= 0),
	downloaded_at TEXT NOT NULL
);
`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := s.db.Exec(`CREATE INDEX IF NOT EXISTS downloads_page_id ON downloads(page_id);`); err != nil {
		return fmt.Errorf("create page_id index: %w", err)
	}
	return nil
}

// InsertDownload stores one record and returns its row ID. A zero
// DownloadedAt is replaced by the current time.
func (s *SQLiteStore) InsertDownload(d Download) (int64, error) {
	if strings.TrimSpace(d.PageID) == "" || strings.TrimSpace(d.Path) == "" {
		return 0, fmt.Errorf("%w: page id and path are required", ErrInvalidDownload)
	}
	if d.Bytes < 0 {
		return 0, fmt.Errorf("%w: negative size", ErrInvalidDownload)
	}
	if d.DownloadedAt.IsZero() {
		d.DownloadedAt = time.Now()
	}

	const insertStmt = `
INSERT INTO downloads (
	page_id,
	title,
	space_key,
	path,
	bytes,
	downloaded_at
) VALUES (?, ?, ?, ?, ?, ?);`

	res, err := s.db.Exec(
		insertStmt,
		d.PageID,
		d.Title,
		d.SpaceKey,
		d.Path,
		d.Bytes,
		d.DownloadedAt.UTC().Format(timestampLayout),
	)
	if err != nil {
		return 0, fmt.Errorf("insert download: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("read inserted row id: %w", err)
	}
	return id, nil
}

// ListDownloads returns the most recent records first. limit <= 0 means all.
func (s *SQLiteStore) ListDownloads(limit int) ([]Download, error) {
	query := `
SELECT
	id,
	page_id,
	title,
	space_key,
	path,
	bytes,
	downloaded_at
FROM downloads
ORDER BY downloaded_at DESC, id DESC`
	args := []any{}
	if limit > 0 {
		query += "\nLIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.Query(query+";", args...)
	if err != nil {
		return nil, fmt.Errorf("query downloads: %w", err)
	}
	defer rows.Close()

	out := make([]Download, 0, 32)
	for rows.Next() {
		var (
			d     Download
			atRaw string
		)
		if err := rows.Scan(&d.ID, &d.PageID, &d.Title, &d.SpaceKey, &d.Path, &d.Bytes, &atRaw); err != nil {
			return nil, fmt.Errorf("scan download: %w", err)
		}
		d.DownloadedAt, err = time.Parse(timestampLayout, atRaw)
		if err != nil {
			return nil, fmt.Errorf("parse downloaded_at %q: %w", atRaw, err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate downloads: %w", err)
	}

	return out, nil
}

func (s *SQLiteStore) DeleteAllDownloads() (int64, error) {
	res, err := s.db.Exec(`DELETE FROM downloads;`)
	if err != nil {
		return 0, fmt.Errorf("delete downloads: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("read deleted row count: %w", err)
	}
	return rows, nil
}
