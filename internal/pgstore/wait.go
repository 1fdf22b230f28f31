package pgstore

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5/pgxpool"
)

// WaitForStore polls databaseURL with exponential backoff (initial
// 500ms, capped at 3s per retry, 30s total) until a connection
// succeeds, mirroring the teacher's Dolt-server reconnect loop built on
// cenkalti/backoff. It opens and immediately closes a scratch pool per
// attempt rather than holding one across retries, since a failed
// connect can leave a pool's internal state unusable for the next Ping.
func WaitForStore(ctx context.Context, databaseURL string) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 500 * time.Millisecond
	bo.MaxInterval = 3 * time.Second
	bo.MaxElapsedTime = 30 * time.Second

	op := func() error {
		pool, err := pgxpool.New(ctx, databaseURL)
		if err != nil {
			return err
		}
		defer pool.Close()

		pingCtx, cancel := context.WithTimeout(ctx, bo.MaxInterval)
		defer cancel()
		return pool.Ping(pingCtx)
	}

	if err := backoff.Retry(op, backoff.WithContext(bo, ctx)); err != nil {
		return fmt.Errorf("%w: %w", ErrStoreUnreachable, err)
	}
	return nil
}

// Open returns a connection pool to databaseURL. Callers should call
// WaitForStore first if the store might not yet be accepting
// connections.
func Open(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("pgstore: open pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pgstore: ping: %w", err)
	}
	return pool, nil
}
