package index

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/starford/blockdoc/internal/apperr"
)

// DocumentRow is a row of the documents table.
type DocumentRow struct {
	Path       string    `json:"path"`
	Title      string    `json:"title"`
	Checksum   string    `json:"checksum"`
	BlockCount int       `json:"block_count"`
	Media      []string  `json:"media"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// SearchResult is one search hit.
type SearchResult struct {
	Path    string `json:"path"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

// Sort orders accepted by ListDocuments.
const (
	SortUpdated = "updated_at"
	SortTitle   = "title"
	SortPath    = "path"
)

var sortClauses = map[string]string{
	SortUpdated: "updated_at DESC, path ASC",
	SortTitle:   "title COLLATE NOCASE ASC, path ASC",
	SortPath:    "path ASC",
}

// UpsertDocument inserts or replaces a document row and its FTS entry in one
// transaction.
func (db *DB) UpsertDocument(d DocumentRow, body string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if d.Media == nil {
		d.Media = []string{}
	}
	mediaJSON, _ := json.Marshal(d.Media)
	if d.UpdatedAt.IsZero() {
		d.UpdatedAt = time.Now()
	}

	_, err = tx.Exec(`
		INSERT INTO documents (path, title, checksum, block_count, media, body, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			title       = excluded.title,
			checksum    = excluded.checksum,
			block_count = excluded.block_count,
			media       = excluded.media,
			body        = excluded.body,
			updated_at  = excluded.updated_at
	`, d.Path, d.Title, d.Checksum, d.BlockCount, string(mediaJSON), body, d.UpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("index: upsert document: %w", err)
	}

	if err := ftsUpsert(tx, d.Path, d.Title, body); err != nil {
		return err
	}
	return tx.Commit()
}

// DeleteDocument removes a document row and its FTS entry.
func (db *DB) DeleteDocument(path string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := ftsDelete(tx, path); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM documents WHERE path = ?`, path); err != nil {
		return fmt.Errorf("index: delete document: %w", err)
	}
	return tx.Commit()
}

// GetDocument returns the row for path or apperr.ErrNotFound.
func (db *DB) GetDocument(path string) (*DocumentRow, error) {
	row := db.conn.QueryRow(`
		SELECT path, title, checksum, block_count, media, updated_at
		FROM documents WHERE path = ?`, path)
	d, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("index: get document: %w", err)
	}
	return d, nil
}

// GetChecksum returns the stored checksum for path, or "" when not indexed.
func (db *DB) GetChecksum(path string) (string, error) {
	var cs string
	err := db.conn.QueryRow(`SELECT checksum FROM documents WHERE path = ?`, path).Scan(&cs)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("index: get checksum: %w", err)
	}
	return cs, nil
}

// AllChecksums returns path -> checksum for every indexed document.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT path, checksum FROM documents`)
	if err != nil {
		return nil, fmt.Errorf("index: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var p, cs string
		if err := rows.Scan(&p, &cs); err != nil {
			return nil, err
		}
		out[p] = cs
	}
	return out, rows.Err()
}

// ListDocuments returns one page of rows and the total row count. limit <= 0
// means 50; unknown sort keys fall back to most recently updated first.
func (db *DB) ListDocuments(limit, offset int, sort string) ([]DocumentRow, int, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	order, ok := sortClauses[sort]
	if !ok {
		order = sortClauses[SortUpdated]
	}

	var total int
	if err := db.conn.QueryRow(`SELECT count(*) FROM documents`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("index: count documents: %w", err)
	}

	rows, err := db.conn.Query(`
		SELECT path, title, checksum, block_count, media, updated_at
		FROM documents ORDER BY `+order+` LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("index: list documents: %w", err)
	}
	defer rows.Close()

	var out []DocumentRow
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *d)
	}
	return out, total, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(s scanner) (*DocumentRow, error) {
	var (
		d     DocumentRow
		media string
	)
	if err := s.Scan(&d.Path, &d.Title, &d.Checksum, &d.BlockCount, &media, &d.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(media), &d.Media); err != nil || d.Media == nil {
		d.Media = []string{}
	}
	return &d, nil
}
