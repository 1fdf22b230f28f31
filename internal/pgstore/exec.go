package pgstore

import "context"

// ExecFunc adapts the pool's Exec method to the plain
// func(ctx, sql, args...) error shape that dedup.NewExecutor and
// prune's statement runners expect, keeping those packages free of a
// direct pgx dependency.
func (s *Store) ExecFunc() func(ctx context.Context, sql string, args ...any) error {
	return func(ctx context.Context, sql string, args ...any) error {
		_, err := s.pool.Exec(ctx, sql, args...)
		if err != nil {
			return wrapPGError("exec", err)
		}
		return nil
	}
}
