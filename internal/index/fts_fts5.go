//go:build sqlite_fts5

package index

import (
	"database/sql"
	"fmt"
	"strings"
)

func initFTS(conn *sql.DB) error {
	_, err := conn.Exec(`
		CREATE VIRTUAL TABLE IF NOT EXISTS documents_fts USING fts5(
			source UNINDEXED,
			title,
			body,
			tags,
			tokenize = 'unicode61 remove_diacritics 2'
		);
	`)
	return err
}

func ftsUpsert(tx *sql.Tx, source, title, body string, tags []string) error {
	_, _ = tx.Exec(`DELETE FROM documents_fts WHERE source = ?`, source)
	_, err := tx.Exec(`INSERT INTO documents_fts (source, title, body, tags) VALUES (?, ?, ?, ?)`,
		source, title, body, strings.Join(tags, " "))
	if err != nil {
		return fmt.Errorf("index: upsert fts: %w", err)
	}
	return nil
}

func ftsDelete(tx *sql.Tx, source string) {
	_, _ = tx.Exec(`DELETE FROM documents_fts WHERE source = ?`, source)
}

// Search performs an FTS5 full-text search and returns matching results with snippets.
func (db *DB) Search(query string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.conn.Query(`
		SELECT documents_fts.source,
		       d.dest,
		       documents_fts.title,
		       snippet(documents_fts, 2, '<b>', '</b>', '...', 64)
		FROM documents_fts JOIN documents d ON d.source = documents_fts.source
		WHERE documents_fts MATCH ? AND d.status = 'converted'
		ORDER BY rank
		LIMIT ?
	`, query, limit)
	if err != nil {
		return nil, fmt.Errorf("index: search: %w", err)
	}
	defer rows.Close()

	var out []SearchResult
	for rows.Next() {
		var r SearchResult
		if err := rows.Scan(&r.Source, &r.Dest, &r.Title, &r.Snippet); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
