// Package postgres opens the PostgreSQL backed stores using the pgx driver.
package postgres

import (
	"context"
	"database/sql"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jrsteele09/event-auth-server/storage/migrations"
	"github.com/jrsteele09/event-auth-server/storage/sqlstore"
	"github.com/pkg/errors"
	"github.com/pressly/goose/v3"
)

const uniqueViolation = "23505"

// Dialect adapts sqlstore queries to PostgreSQL
type Dialect struct{}

var _ sqlstore.Dialect = Dialect{}

func (Dialect) Rebind(query string) string {
	return query
}

func (Dialect) UniqueViolation(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != uniqueViolation {
		return "", false
	}
	if strings.HasSuffix(pgErr.ConstraintName, "_pkey") {
		return "", true
	}
	name := strings.TrimPrefix(pgErr.ConstraintName, pgErr.TableName+"_")
	return sqlstore.FieldFromConstraint(name), true
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// Migrate applies the embedded migrations
func Migrate(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("pgx"); err != nil {
		return errors.Wrap(err, "[postgres Migrate] set dialect")
	}
	if err := gooseUpContext(ctx, db, "."); err != nil {
		return errors.Wrap(err, "[postgres Migrate] up")
	}
	return nil
}

// Open connects to dsn, applies migrations and returns the stores
func Open(ctx context.Context, dsn string) (*sqlstore.Store, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, errors.New("[postgres Open] DATABASE_DSN is required")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "[postgres Open] open")
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "[postgres Open] ping")
	}
	if err := Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return sqlstore.NewStore(db, Dialect{}), nil
}
