// Package pg implements the stats repositories on PostgreSQL.
package pg

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"analyzeit.org/internal/stats"
)

// Store owns the connection pool and vends repository implementations.
type Store struct {
	db *sql.DB
}

// Open connects to Postgres with pool defaults tuned for this service's
// modest request volume.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return &Store{db: db}, nil
}

// NewStore wraps an existing handle (used by tests and cmd wiring).
func NewStore(db *sql.DB) *Store { return &Store{db: db} }

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) DB() *sql.DB { return s.db }

// Repositories returns the bundle the GraphQL facade resolves against.
func (s *Store) Repositories() stats.Repositories {
	return stats.Repositories{
		Countries:  &countryRepo{db: s.db},
		Viruses:    &virusRepo{db: s.db},
		Seasons:    &seasonRepo{db: s.db},
		Statistics: &statisticRepo{db: s.db},
	}
}

// placeholders renders "$1,$2,..." for n args starting at $1.
func placeholders(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fmt.Sprintf("$%d", i+1)
	}
	return strings.Join(parts, ",")
}

func int64Args(ids []int64) []any {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}
