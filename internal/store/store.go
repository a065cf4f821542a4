package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

// DBTX is satisfied by both *sql.DB and *sql.Tx so that store methods
// run identically inside and outside a transaction.
type DBTX interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

// Store handles all database operations
type Store struct {
	db     *sql.DB
	q      DBTX
	dbType string
	now    func() time.Time
}

// New creates a new store instance. dbType is "sqlite" or "postgres".
func New(db *sql.DB, dbType string) *Store {
	return &Store{db: db, q: db, dbType: dbType, now: time.Now}
}

// SetClock overrides the store's time source. Tests use this to pin expiry
// comparisons to a fixed instant.
func (s *Store) SetClock(now func() time.Time) {
	s.now = now
}

// WithTx runs fn against a store view bound to a single transaction.
// The transaction is committed when fn returns nil and rolled back otherwise.
func (s *Store) WithTx(fn func(tx *Store) error) error {
	if s.db == nil {
		return errors.New("store: nested transactions are not supported")
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	txStore := &Store{q: tx, dbType: s.dbType, now: s.now}
	if err := fn(txStore); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback failed: %v)", err, rbErr)
		}
		return err
	}

	return tx.Commit()
}

// rebind rewrites "?" placeholders to "$n" for PostgreSQL.
func (s *Store) rebind(query string) string {
	if s.dbType != "postgres" {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func newID() string {
	return uuid.NewString()
}
