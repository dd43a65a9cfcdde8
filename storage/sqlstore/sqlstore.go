// Package sqlstore implements the credential and refresh token stores over
// database/sql. Queries are written with $N placeholders; a Dialect adapts them
// and classifies driver errors for the concrete database.
package sqlstore

import (
	"context"
	"database/sql"
	"strings"
	"time"
)

// DBTX is the subset of database/sql used by the repos.
// Both *sql.DB and *sql.Tx satisfy this interface.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Dialect captures what differs between the supported databases
type Dialect interface {
	// Rebind rewrites $N placeholders into the driver's syntax
	Rebind(query string) string
	// UniqueViolation reports whether err is a unique constraint failure and, if so,
	// which column collided ("email", "phone", "token" or "" when unknown)
	UniqueViolation(err error) (field string, ok bool)
}

// Store bundles the repos over one database handle
type Store struct {
	db            *sql.DB
	Users         *UserRepo
	RefreshTokens *RefreshTokenRepo
}

func NewStore(db *sql.DB, dialect Dialect) *Store {
	return &Store{
		db:            db,
		Users:         NewUserRepo(db, dialect),
		RefreshTokens: NewRefreshTokenRepo(db, dialect),
	}
}

func (s *Store) DB() *sql.DB {
	return s.db
}

func (s *Store) Close() error {
	return s.db.Close()
}

// FieldFromConstraint maps a constraint name or driver message onto the colliding column
func FieldFromConstraint(text string) string {
	text = strings.ToLower(text)
	for _, field := range []string{"email", "phone", "token"} {
		if strings.Contains(text, field) {
			return field
		}
	}
	return ""
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}
