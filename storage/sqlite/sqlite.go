// Package sqlite opens the SQLite backed stores using the pure Go modernc driver.
package sqlite

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strings"

	"github.com/jrsteele09/event-auth-server/storage/migrations"
	"github.com/jrsteele09/event-auth-server/storage/sqlstore"
	"github.com/pkg/errors"
	"github.com/pressly/goose/v3"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

const pragmas = "?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"

// Dialect adapts sqlstore queries to SQLite
type Dialect struct{}

var _ sqlstore.Dialect = Dialect{}

// Rebind turns $N into ?N, SQLite's numbered positional parameter
func (Dialect) Rebind(query string) string {
	return strings.ReplaceAll(query, "$", "?")
}

// UniqueViolation parses messages such as "UNIQUE constraint failed: accounts.email"
func (Dialect) UniqueViolation(err error) (string, bool) {
	var sqliteErr *msqlite.Error
	if !errors.As(err, &sqliteErr) {
		return "", false
	}
	switch sqliteErr.Code() {
	case sqlite3lib.SQLITE_CONSTRAINT_UNIQUE, sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY:
	default:
		return "", false
	}

	msg := sqliteErr.Error()
	if i := strings.LastIndex(msg, "failed:"); i >= 0 {
		msg = msg[i+len("failed:"):]
	}
	var columns []string
	for _, qualified := range strings.Split(msg, ",") {
		qualified = strings.TrimSpace(qualified)
		if i := strings.LastIndex(qualified, "."); i >= 0 {
			qualified = qualified[i+1:]
		}
		// trailing text after the column, e.g. " (2067)"
		if i := strings.IndexAny(qualified, " ("); i >= 0 {
			qualified = qualified[:i]
		}
		columns = append(columns, qualified)
	}
	return sqlstore.FieldFromConstraint(strings.Join(columns, " ")), true
}

// Migrate applies the embedded migrations
func Migrate(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return errors.Wrap(err, "[sqlite Migrate] set dialect")
	}
	if err := goose.UpContext(ctx, db, "."); err != nil {
		return errors.Wrap(err, "[sqlite Migrate] up")
	}
	return nil
}

// Open opens or creates the database file at path, applies migrations and returns the stores
func Open(ctx context.Context, path string) (*sqlstore.Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("[sqlite Open] storage path is required")
	}

	cleanPath := filepath.Clean(path)
	if dir := filepath.Dir(cleanPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.Wrap(err, "[sqlite Open] create directory")
		}
	}

	db, err := sql.Open("sqlite", cleanPath+pragmas)
	if err != nil {
		return nil, errors.Wrap(err, "[sqlite Open] open")
	}
	// single writer keeps SQLite from reporting busy under concurrent requests
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "[sqlite Open] ping")
	}
	if err := Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return sqlstore.NewStore(db, Dialect{}), nil
}
