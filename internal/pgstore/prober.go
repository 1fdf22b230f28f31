package pgstore

import "context"

// Prober satisfies pipelinestate.Prober against a live pool, so
// pipeline resume can infer progress directly from catalog state
// instead of trusting a possibly-stale state file.
type Prober struct {
	store *Store
}

// NewProber wraps a Store for use as a pipelinestate.Prober.
func NewProber(store *Store) *Prober {
	return &Prober{store: store}
}

func (p *Prober) TableExists(ctx context.Context, table string) (bool, error) {
	var exists bool
	err := p.store.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM information_schema.tables
			WHERE table_schema = 'public' AND table_name = $1
		)`, table).Scan(&exists)
	if err != nil {
		return false, wrapPGError("table_exists", err)
	}
	return exists, nil
}

func (p *Prober) TableHasRows(ctx context.Context, table string) (bool, error) {
	exists, err := p.TableExists(ctx, table)
	if err != nil || !exists {
		return false, err
	}
	var hasRows bool
	err = p.store.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM `+quoteIdent(table)+`)`).Scan(&hasRows)
	if err != nil {
		return false, wrapPGError("table_has_rows", err)
	}
	return hasRows, nil
}

func (p *Prober) ColumnExists(ctx context.Context, table, column string) (bool, error) {
	var exists bool
	err := p.store.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM information_schema.columns
			WHERE table_schema = 'public' AND table_name = $1 AND column_name = $2
		)`, table, column).Scan(&exists)
	if err != nil {
		return false, wrapPGError("column_exists", err)
	}
	return exists, nil
}

func (p *Prober) BaseTrigramIndexesExist(ctx context.Context) (bool, error) {
	return p.indexesExist(ctx, []string{"release_artist_artist_trgm_idx", "release_title_trgm_idx"})
}

func (p *Prober) TrackTrigramIndexesExist(ctx context.Context) (bool, error) {
	return p.indexesExist(ctx, []string{"release_track_title_trgm_idx", "release_track_artist_artist_trgm_idx"})
}

func (p *Prober) indexesExist(ctx context.Context, names []string) (bool, error) {
	for _, name := range names {
		var exists bool
		err := p.store.pool.QueryRow(ctx, `
			SELECT EXISTS (SELECT 1 FROM pg_indexes WHERE schemaname = 'public' AND indexname = $1)
		`, name).Scan(&exists)
		if err != nil {
			return false, wrapPGError("indexes_exist", err)
		}
		if !exists {
			return false, nil
		}
	}
	return true, nil
}

// quoteIdent double-quotes a Postgres identifier that is always drawn
// from the fixed table name constants in this package, never from
// external input.
func quoteIdent(ident string) string {
	return `"` + ident + `"`
}
