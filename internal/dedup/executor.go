package dedup

import (
	"context"
	"fmt"
)

// Executor runs the copy-swap against the live store: materialize a
// given discard set, build survivor tables, swap them into place, and
// rebuild constraints and indexes. Each statement commits on its own,
// matching the step's documented failure model: a crash mid-swap
// leaves behind transient tables that the next run recreates.
type Executor struct {
	exec func(ctx context.Context, sql string, args ...any) error
}

// NewExecutor wraps a statement runner. Production callers pass a
// closure over a pgstore.Store's pool; tests pass one that records
// statements instead of running them.
func NewExecutor(exec func(ctx context.Context, sql string, args ...any) error) *Executor {
	return &Executor{exec: exec}
}

const transientDiscardTable = "release_dedup_discard"

var survivorTables = []struct {
	table      string
	newTable   string
	projection string
}{
	{"release", "release_new", "id, title, year, country, format, artwork_url"},
	{"release_artist", "release_artist_new", "release_id, artist, extra, position"},
	{"release_label", "release_label_new", "release_id, label, catno"},
	{"cache_metadata", "cache_metadata_new", "release_id, cached_at, source, last_validated"},
}

// Run executes the full copy-swap. discardIDs is the set computed by
// ComputeDiscardSet from either the track-count side table or a live
// count over release_track.
func (e *Executor) Run(ctx context.Context, discardIDs map[int64]struct{}) error {
	if len(discardIDs) == 0 {
		return e.cleanupTransient(ctx)
	}

	// Drop transient tables a previous interrupted run may have left
	// behind, so they are recreated from scratch.
	if err := e.cleanupTransient(ctx); err != nil {
		return err
	}
	if err := e.materializeDiscardTable(ctx, discardIDs); err != nil {
		return err
	}

	for _, t := range survivorTables {
		if err := e.exec(ctx, fmt.Sprintf(`DROP TABLE IF EXISTS %s`, t.newTable)); err != nil {
			return wrapErr("drop_stale:"+t.newTable, err)
		}
		if err := e.copySurvivors(ctx, t.table, t.newTable, t.projection); err != nil {
			return err
		}
	}

	if err := e.swapInto("release", "release_new"); err != nil {
		return err
	}
	for _, t := range survivorTables[1:] {
		if err := e.swapInto(t.table, t.newTable); err != nil {
			return err
		}
	}

	if err := e.recreateConstraintsAndIndexes(ctx); err != nil {
		return err
	}

	return e.cleanupTransient(ctx)
}

func (e *Executor) materializeDiscardTable(ctx context.Context, discardIDs map[int64]struct{}) error {
	ids := make([]int64, 0, len(discardIDs))
	for id := range discardIDs {
		ids = append(ids, id)
	}
	if err := e.exec(ctx, fmt.Sprintf(`CREATE UNLOGGED TABLE IF NOT EXISTS %s (id BIGINT PRIMARY KEY)`, transientDiscardTable)); err != nil {
		return wrapErr("create_discard_table", err)
	}
	if err := e.exec(ctx, fmt.Sprintf(`INSERT INTO %s (id) SELECT unnest($1::bigint[])`, transientDiscardTable), ids); err != nil {
		return wrapErr("populate_discard_table", err)
	}
	return nil
}

func (e *Executor) copySurvivors(ctx context.Context, table, newTable, projection string) error {
	var where string
	if table == "release" {
		where = fmt.Sprintf("WHERE id NOT IN (SELECT id FROM %s)", transientDiscardTable)
	} else {
		where = fmt.Sprintf("WHERE release_id NOT IN (SELECT id FROM %s)", transientDiscardTable)
	}
	stmt := fmt.Sprintf(`CREATE TABLE %s AS SELECT %s FROM %s %s`, newTable, projection, table, where)
	if err := e.exec(ctx, stmt); err != nil {
		return wrapErr("copy_survivors:"+table, err)
	}
	return nil
}

func (e *Executor) swapInto(table, newTable string) error {
	stmts := []string{
		fmt.Sprintf(`ALTER TABLE %s RENAME TO %s_old`, table, table),
		fmt.Sprintf(`ALTER TABLE %s RENAME TO %s`, newTable, table),
		fmt.Sprintf(`DROP TABLE %s_old CASCADE`, table),
	}
	for _, stmt := range stmts {
		if err := e.exec(context.Background(), stmt); err != nil {
			return wrapErr("swap:"+table, err)
		}
	}
	return nil
}

func (e *Executor) recreateConstraintsAndIndexes(ctx context.Context) error {
	stmts := []string{
		`ALTER TABLE release ADD PRIMARY KEY (id)`,
		`ALTER TABLE release_artist ADD CONSTRAINT release_artist_release_id_fkey FOREIGN KEY (release_id) REFERENCES release(id) ON DELETE CASCADE`,
		`ALTER TABLE release_label ADD CONSTRAINT release_label_release_id_fkey FOREIGN KEY (release_id) REFERENCES release(id) ON DELETE CASCADE`,
		`ALTER TABLE release_track ADD CONSTRAINT release_track_release_id_fkey FOREIGN KEY (release_id) REFERENCES release(id) ON DELETE CASCADE`,
		`ALTER TABLE release_track_artist ADD CONSTRAINT release_track_artist_release_id_fkey FOREIGN KEY (release_id) REFERENCES release(id) ON DELETE CASCADE`,
		`CREATE INDEX IF NOT EXISTS release_artist_release_id_idx ON release_artist (release_id)`,
		`CREATE INDEX IF NOT EXISTS release_label_release_id_idx ON release_label (release_id)`,
		`CREATE INDEX IF NOT EXISTS release_artist_artist_trgm_idx ON release_artist USING gin (lower(unaccent(artist)) gin_trgm_ops)`,
		`CREATE INDEX IF NOT EXISTS release_title_trgm_idx ON release USING gin (lower(unaccent(title)) gin_trgm_ops)`,
		`ALTER TABLE cache_metadata ADD PRIMARY KEY (release_id)`,
		`ALTER TABLE cache_metadata ADD CONSTRAINT cache_metadata_release_id_fkey FOREIGN KEY (release_id) REFERENCES release(id) ON DELETE CASCADE`,
		`CREATE INDEX IF NOT EXISTS cache_metadata_cached_at_idx ON cache_metadata (cached_at)`,
		`CREATE INDEX IF NOT EXISTS cache_metadata_source_idx ON cache_metadata (source)`,
	}
	for _, stmt := range stmts {
		if err := e.exec(ctx, stmt); err != nil {
			return wrapErr("recreate_constraints", err)
		}
	}
	return nil
}

func (e *Executor) cleanupTransient(ctx context.Context) error {
	if err := e.exec(ctx, fmt.Sprintf(`DROP TABLE IF EXISTS %s`, transientDiscardTable)); err != nil {
		return wrapErr("cleanup_transient", err)
	}
	return nil
}

func wrapErr(op string, err error) error {
	return fmt.Errorf("dedup: %s: %w", op, err)
}
