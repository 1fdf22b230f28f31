// Package pgstore is the Postgres-backed implementation of the release
// catalog store: schema management, bulk loading via COPY, the dedup
// candidate query and the statement runner the dedup copy-swap uses,
// and the resume-state introspection queries. It is the only package
// that imports pgx directly.
package pgstore

import (
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Store wraps a connection pool with the catalog operations the
// pipeline steps need. It holds no in-memory state of its own; every
// method is a thin wrapper around one or more SQL statements.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore wraps an already-opened pool. Callers typically obtain pool
// via Open after WaitForStore has confirmed reachability.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Pool exposes the underlying pool for operations, such as COPY, that
// need pgx types this package does not otherwise re-export.
func (s *Store) Pool() *pgxpool.Pool {
	return s.pool
}

// Close releases the pool's connections.
func (s *Store) Close() {
	s.pool.Close()
}

func wrapPGError(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("pgstore: %s: %w", op, err)
}
