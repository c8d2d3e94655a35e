package search

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
	"github.com/nagara-network/metaquery/pkg/db"
	"github.com/nagara-network/metaquery/pkg/log"
	"github.com/nagara-network/metaquery/pkg/metadata"
)

// SQLiteIndex is a local full-text index of off-chain documents. Each
// document is stored once per (index, id) pair.
type SQLiteIndex struct {
	db  *sql.DB
	log *log.Logger
}

// OpenSQLiteIndex opens or creates the index database at path.
func OpenSQLiteIndex(path string) (*SQLiteIndex, error) {
	conn, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("%w: opening %s: %w", ErrStoreConnectionBroken, path, err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 30000",
	}
	for _, pragma := range pragmas {
		if _, err := conn.Exec(pragma); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("%w: applying pragma %q: %w", ErrStoreConnectionBroken, pragma, err)
		}
	}

	if err := db.InitializeDatabase(context.Background(), conn); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("%w: %w", ErrStoreConnectionBroken, err)
	}

	return &SQLiteIndex{db: conn, log: log.ForService("search")}, nil
}

func (s *SQLiteIndex) Close() error {
	return s.db.Close()
}

// Add stores records in index, replacing documents with the same id.
func (s *SQLiteIndex) Add(ctx context.Context, index string, records ...metadata.OffchainRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	del, err := tx.PrepareContext(ctx, `DELETE FROM files_fts WHERE index_name = ? AND id = ?`)
	if err != nil {
		return fmt.Errorf("preparing delete: %w", err)
	}
	defer del.Close()

	ins, err := tx.PrepareContext(ctx, `
		INSERT INTO files_fts (index_name, id, filename, content_type, descriptions, doc)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer ins.Close()

	for _, rec := range records {
		doc, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("encoding %s: %w", rec.ID, err)
		}
		id := rec.ID.String()
		if _, err := del.ExecContext(ctx, index, id); err != nil {
			return fmt.Errorf("replacing %s: %w", id, err)
		}
		if _, err := ins.ExecContext(ctx, index, id, rec.Filename, rec.ContentType, rec.Descriptions, string(doc)); err != nil {
			return fmt.Errorf("inserting %s: %w", id, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO index_loads (index_name, documents, loaded_at)
		VALUES (?, (SELECT COUNT(*) FROM files_fts WHERE index_name = ?), CURRENT_TIMESTAMP)
		ON CONFLICT (index_name) DO UPDATE SET documents = excluded.documents, loaded_at = excluded.loaded_at`,
		index, index); err != nil {
		return fmt.Errorf("recording load of %s: %w", index, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing: %w", err)
	}
	committed = true

	s.log.Debugf("indexed %d documents into %s", len(records), index)
	return nil
}

// Search returns the documents of index matching query, best match first.
// An empty query returns every document in insertion order.
func (s *SQLiteIndex) Search(ctx context.Context, index, query string) ([]metadata.OffchainRecord, error) {
	var (
		rows *sql.Rows
		err  error
	)

	match := ftsQuery(query)
	if match == "" {
		rows, err = s.db.QueryContext(ctx,
			`SELECT doc FROM files_fts WHERE index_name = ? ORDER BY rowid`, index)
	} else {
		rows, err = s.db.QueryContext(ctx, `
			SELECT doc FROM files_fts
			WHERE files_fts MATCH ? AND index_name = ?
			ORDER BY bm25(files_fts), rowid`, match, index)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: searching %s: %w", ErrStoreConnectionBroken, index, err)
	}
	defer rows.Close()

	records := []metadata.OffchainRecord{}
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("%w: scanning %s: %w", ErrStoreConnectionBroken, index, err)
		}
		rec, err := decodeHit(json.RawMessage(doc))
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating %s: %w", ErrStoreConnectionBroken, index, err)
	}
	return records, nil
}

// Count returns the number of documents stored in index.
func (s *SQLiteIndex) Count(ctx context.Context, index string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM files_fts WHERE index_name = ?`, index).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("%w: counting %s: %w", ErrStoreConnectionBroken, index, err)
	}
	return n, nil
}

// LoadedAt reports when index was last written. ok is false for an index
// that was never loaded.
func (s *SQLiteIndex) LoadedAt(ctx context.Context, index string) (t time.Time, ok bool, err error) {
	err = s.db.QueryRowContext(ctx, `SELECT loaded_at FROM index_loads WHERE index_name = ?`, index).Scan(&t)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("%w: reading load time of %s: %w", ErrStoreConnectionBroken, index, err)
	}
	return t, true, nil
}

// ftsQuery turns free text into an FTS5 expression: every whitespace
// separated term becomes a quoted prefix match, all terms required.
func ftsQuery(q string) string {
	fields := strings.Fields(q)
	terms := make([]string, 0, len(fields))
	for _, f := range fields {
		terms = append(terms, `"`+strings.ReplaceAll(f, `"`, `""`)+`"*`)
	}
	return strings.Join(terms, " ")
}
