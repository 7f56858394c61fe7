// Package postgres implements storage.Store on top of PostgreSQL via
// pgx/pgxpool, grounded directly on the teacher's
// internal/storage/postgres package: SELECT ... FOR UPDATE SKIP LOCKED
// for lock acquisition, one file per operation, best-effort event
// logging that never fails the operation it describes.
package postgres

import (
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store implements storage.Store using a pgx connection pool.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a new PostgreSQL-backed Store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Pool returns the underlying connection pool (for migrations/tests).
func (s *Store) Pool() *pgxpool.Pool {
	return s.pool
}
