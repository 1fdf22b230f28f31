package pgstore

import "context"

// schemaStatements creates the release catalog tables in dependency
// order. Column names mirror the Discogs CSV export fields that the
// importer projects into them; see internal/importer.
var schemaStatements = []string{
	`CREATE EXTENSION IF NOT EXISTS unaccent`,
	`CREATE EXTENSION IF NOT EXISTS pg_trgm`,
	`CREATE TABLE IF NOT EXISTS release (
		id BIGINT PRIMARY KEY,
		title TEXT NOT NULL,
		year TEXT,
		master_id BIGINT,
		country TEXT,
		format TEXT,
		artwork_url TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS release_artist (
		release_id BIGINT NOT NULL REFERENCES release(id) ON DELETE CASCADE,
		artist TEXT NOT NULL,
		extra SMALLINT NOT NULL DEFAULT 0,
		position INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS release_label (
		release_id BIGINT NOT NULL REFERENCES release(id) ON DELETE CASCADE,
		label TEXT NOT NULL,
		catno TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS release_track (
		release_id BIGINT NOT NULL REFERENCES release(id) ON DELETE CASCADE,
		position TEXT,
		title TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS release_track_artist (
		release_id BIGINT NOT NULL REFERENCES release(id) ON DELETE CASCADE,
		track_position TEXT,
		artist TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS cache_metadata (
		release_id BIGINT PRIMARY KEY REFERENCES release(id) ON DELETE CASCADE,
		cached_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		source TEXT NOT NULL,
		last_validated TIMESTAMPTZ
	)`,
}

// trackCountTableStatement creates the transient per-release track-count
// side table dedup ranks against, built from the tracks file directly
// during base import since tracks themselves are not imported until
// after dedup. dropTrackCountTableStatement removes it once dedup has
// consumed it.
const trackCountTable = "release_track_count"

var trackCountTableStatement = `CREATE TABLE IF NOT EXISTS ` + trackCountTable + ` (
	release_id BIGINT PRIMARY KEY,
	count INTEGER NOT NULL
)`

var dropTrackCountTableStatement = `DROP TABLE IF EXISTS ` + trackCountTable

// baseTrigramIndexStatements back the artist/title fuzzy pre-screen and
// the exact-pair lookups that run before it.
var baseTrigramIndexStatements = []string{
	`CREATE INDEX IF NOT EXISTS release_artist_artist_trgm_idx
		ON release_artist USING gin (lower(unaccent(artist)) gin_trgm_ops)`,
	`CREATE INDEX IF NOT EXISTS release_title_trgm_idx
		ON release USING gin (lower(unaccent(title)) gin_trgm_ops)`,
}

// trackTrigramIndexStatements are created only once tracks are present,
// since release_track and release_track_artist are populated after the
// base dedup pass.
var trackTrigramIndexStatements = []string{
	`CREATE INDEX IF NOT EXISTS release_track_title_trgm_idx
		ON release_track USING gin (lower(unaccent(title)) gin_trgm_ops)`,
	`CREATE INDEX IF NOT EXISTS release_track_artist_artist_trgm_idx
		ON release_track_artist USING gin (lower(unaccent(artist)) gin_trgm_ops)`,
}

// CreateSchema creates every release catalog table and constraint if
// it does not already exist. It is safe to call against a partially
// created schema left behind by an interrupted run.
func (s *Store) CreateSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return wrapPGError("create_schema", err)
		}
	}
	return nil
}

// CreateIndexes builds the trigram indexes used by the fuzzy
// pre-screen against the base release/release_artist tables.
func (s *Store) CreateIndexes(ctx context.Context) error {
	for _, stmt := range baseTrigramIndexStatements {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return wrapPGError("create_indexes", err)
		}
	}
	return nil
}

// CreateTrackIndexes builds the trigram indexes over release_track and
// release_track_artist, deferred until after tracks are imported and
// dedup has run so they only index surviving rows.
func (s *Store) CreateTrackIndexes(ctx context.Context) error {
	for _, stmt := range trackTrigramIndexStatements {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return wrapPGError("create_track_indexes", err)
		}
	}
	return nil
}

// DropTrackCountTable removes the transient track-count side table once
// dedup has consumed it.
func (s *Store) DropTrackCountTable(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, dropTrackCountTableStatement); err != nil {
		return wrapPGError("drop_track_count_table", err)
	}
	return nil
}
