// Package photodb ingests a photo library's on-disk database into an
// immutable, queryable in-memory index. Two physical schema families are
// supported (a legacy pre-rewrite layout and the modern layout); both map
// onto the same unified model.
package photodb

import (
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/photodex/photodex/pkg/errors"
	_ "modernc.org/sqlite"
)

// Store wraps a read-only connection to an acquired library snapshot.
type Store struct {
	db   *sql.DB
	path string
}

// OpenStore opens a snapshot copy of the library database read-only.
func OpenStore(path string) (*Store, error) {
	slog.Info("store_open", "path", path)

	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?mode=ro", path))
	if err != nil {
		slog.Error("store_open_failed", "path", path, "error", err)
		return nil, errors.DatabaseOpenf("open %s: %v", path, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		slog.Error("store_ping_failed", "path", path, "error", err)
		return nil, errors.DatabaseOpenf("open %s: %v", path, err)
	}
	return &Store{db: db, path: path}, nil
}

// DB exposes the underlying handle for raw row fetching.
func (s *Store) DB() *sql.DB { return s.db }

// Path returns the snapshot file the store was opened from.
func (s *Store) Path() string { return s.path }

// Close closes the database connection.
func (s *Store) Close() error { return s.db.Close() }

// Nullable scan conversions. The ingesters never store sql.Null* values in
// the unified model; absence becomes a nil pointer.

func nullInt(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	n := v.Int64
	return &n
}

func nullStr(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}
