package index

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/starford/vaultport/internal/apperr"
)

// Entry kinds.
const (
	KindDocument = "document"
	KindDatabase = "database"
	KindAsset    = "asset"
)

// Entry statuses.
const (
	StatusConverted = "converted"
	StatusFailed    = "failed"
)

// Entry is one catalogued source.
type Entry struct {
	Source    string    `json:"source"`
	Dest      string    `json:"dest"`
	Kind      string    `json:"kind"`
	Title     string    `json:"title"`
	Tags      []string  `json:"tags"`
	Checksum  string    `json:"checksum"`
	Status    string    `json:"status"`
	Error     string    `json:"error,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ListFilter narrows List. Empty fields match everything.
type ListFilter struct {
	Kind   string
	Status string
	Limit  int
	Offset int
}

// SearchResult represents one search hit.
type SearchResult struct {
	Source  string `json:"source"`
	Dest    string `json:"dest"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

const entryColumns = `source, dest, kind, title, tags, checksum, status, error, updated_at`

// Upsert inserts or replaces an entry, its FTS row, and its outgoing links
// within a transaction.
func (db *DB) Upsert(e Entry, body string, links []string) error {
	if e.Kind == "" {
		e.Kind = KindDocument
	}
	if e.Status == "" {
		e.Status = StatusConverted
	}
	if e.UpdatedAt.IsZero() {
		e.UpdatedAt = time.Now().UTC()
	}
	if e.Tags == nil {
		e.Tags = []string{}
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	tagsJSON, _ := json.Marshal(e.Tags)

	_, err = tx.Exec(`
		INSERT INTO documents (`+entryColumns+`, body)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(source) DO UPDATE SET
			dest       = excluded.dest,
			kind       = excluded.kind,
			title      = excluded.title,
			tags       = excluded.tags,
			checksum   = excluded.checksum,
			status     = excluded.status,
			error      = excluded.error,
			body       = excluded.body,
			updated_at = excluded.updated_at
	`, e.Source, e.Dest, e.Kind, e.Title, string(tagsJSON), e.Checksum, e.Status, e.Error, body, e.UpdatedAt)
	if err != nil {
		return fmt.Errorf("index: upsert entry: %w", err)
	}

	// FTS upsert (no-op when FTS5 tag is absent).
	if err := ftsUpsert(tx, e.Source, e.Title, body, e.Tags); err != nil {
		return err
	}

	if _, err := tx.Exec(`DELETE FROM links WHERE source = ?`, e.Source); err != nil {
		return fmt.Errorf("index: clear links: %w", err)
	}
	if len(links) > 0 {
		stmt, err := tx.Prepare(`INSERT OR IGNORE INTO links (source, target) VALUES (?, ?)`)
		if err != nil {
			return fmt.Errorf("index: prepare link insert: %w", err)
		}
		defer stmt.Close()
		for _, target := range links {
			if _, err := stmt.Exec(e.Source, target); err != nil {
				return fmt.Errorf("index: insert link: %w", err)
			}
		}
	}

	return tx.Commit()
}

// Delete removes an entry, its FTS row, and its outgoing links.
func (db *DB) Delete(source string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	ftsDelete(tx, source)
	_, _ = tx.Exec(`DELETE FROM links WHERE source = ?`, source)
	_, _ = tx.Exec(`DELETE FROM documents WHERE source = ?`, source)

	return tx.Commit()
}

// Get returns the entry for source.
func (db *DB) Get(source string) (*Entry, error) {
	row := db.conn.QueryRow(`SELECT `+entryColumns+` FROM documents WHERE source = ?`, source)
	e, err := scanEntry(row)
	if err != nil {
		return nil, notFound(source, err)
	}
	return e, nil
}

// GetByDest returns the entry written to dest.
func (db *DB) GetByDest(dest string) (*Entry, error) {
	row := db.conn.QueryRow(`SELECT `+entryColumns+` FROM documents WHERE dest = ? ORDER BY updated_at DESC LIMIT 1`, dest)
	e, err := scanEntry(row)
	if err != nil {
		return nil, notFound(dest, err)
	}
	return e, nil
}

// Checksum returns the stored source checksum, or empty string if the
// source is unknown or its last conversion failed.
func (db *DB) Checksum(source string) (string, error) {
	var cs string
	err := db.conn.QueryRow(`SELECT checksum FROM documents WHERE source = ? AND status = ?`, source, StatusConverted).Scan(&cs)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("index: checksum: %w", err)
	}
	return cs, nil
}

// Checksums returns source -> checksum for every entry.
func (db *DB) Checksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT source, checksum FROM documents`)
	if err != nil {
		return nil, fmt.Errorf("index: checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var s, cs string
		if err := rows.Scan(&s, &cs); err != nil {
			return nil, err
		}
		out[s] = cs
	}
	return out, rows.Err()
}

// List returns entries ordered by source plus the total count matching f.
func (db *DB) List(f ListFilter) ([]Entry, int, error) {
	var where []string
	var args []any
	if f.Kind != "" {
		where = append(where, "kind = ?")
		args = append(args, f.Kind)
	}
	if f.Status != "" {
		where = append(where, "status = ?")
		args = append(args, f.Status)
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := db.conn.QueryRow(`SELECT count(*) FROM documents`+clause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("index: count: %w", err)
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := max(f.Offset, 0)
	rows, err := db.conn.Query(`SELECT `+entryColumns+` FROM documents`+clause+` ORDER BY source LIMIT ? OFFSET ?`,
		append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("index: list: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *e)
	}
	return out, total, rows.Err()
}

// Backlinks returns the destinations of converted notes that link to the
// given wikilink target.
func (db *DB) Backlinks(target string) ([]string, error) {
	rows, err := db.conn.Query(`
		SELECT d.dest
		FROM links l JOIN documents d ON d.source = l.source
		WHERE l.target = ?
		ORDER BY d.dest
	`, target)
	if err != nil {
		return nil, fmt.Errorf("index: backlinks: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(s scanner) (*Entry, error) {
	var e Entry
	var tags string
	if err := s.Scan(&e.Source, &e.Dest, &e.Kind, &e.Title, &tags, &e.Checksum, &e.Status, &e.Error, &e.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(tags), &e.Tags); err != nil {
		e.Tags = nil
	}
	return &e, nil
}

func notFound(key string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("index: %w: %s", apperr.ErrNotFound, key)
	}
	return fmt.Errorf("index: get %s: %w", key, err)
}
