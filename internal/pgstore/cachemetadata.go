package pgstore

import "context"

// SeedCacheMetadata creates a cache_metadata row for every imported
// release that doesn't already have one, tagging its source as
// bulk_import. It runs after the base release import, before dedup.
func (s *Store) SeedCacheMetadata(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, `
		INSERT INTO cache_metadata (release_id, source)
		SELECT id, 'bulk_import' FROM release
		ON CONFLICT (release_id) DO NOTHING`); err != nil {
		return wrapPGError("seed_cache_metadata", err)
	}
	return nil
}
