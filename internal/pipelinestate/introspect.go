package pipelinestate

import "context"

// Prober answers the structural questions the introspector needs about
// the live store. A Postgres-backed implementation lives in
// internal/pgstore; tests supply a fake.
type Prober interface {
	// TableExists reports whether table exists in the store.
	TableExists(ctx context.Context, table string) (bool, error)
	// TableHasRows reports whether table has at least one row.
	TableHasRows(ctx context.Context, table string) (bool, error)
	// ColumnExists reports whether table has a column named column.
	ColumnExists(ctx context.Context, table, column string) (bool, error)
	// BaseTrigramIndexesExist reports whether both of the base
	// (release, release_artist) trigram GIN indexes exist.
	BaseTrigramIndexesExist(ctx context.Context) (bool, error)
	// TrackTrigramIndexesExist reports whether both of the track-side
	// (release_track, release_track_artist) trigram GIN indexes exist.
	TrackTrigramIndexesExist(ctx context.Context) (bool, error)
}

// Infer builds a State by inspecting observable store structure, for
// use when --resume is requested but no state file exists. It stops at
// the first negative observation; prune and vacuum can never be
// inferred and are always left pending (both are safe to re-run).
func Infer(ctx context.Context, prober Prober) (*State, error) {
	state := New("", "")

	exists, err := prober.TableExists(ctx, "release")
	if err != nil {
		return nil, err
	}
	if !exists {
		return state, nil
	}
	_ = state.MarkCompleted("create_schema")

	hasRows, err := prober.TableHasRows(ctx, "release")
	if err != nil {
		return nil, err
	}
	if !hasRows {
		return state, nil
	}
	_ = state.MarkCompleted("import_csv")

	baseIndexes, err := prober.BaseTrigramIndexesExist(ctx)
	if err != nil {
		return nil, err
	}
	if !baseIndexes {
		return state, nil
	}
	_ = state.MarkCompleted("create_indexes")

	hasMasterID, err := prober.ColumnExists(ctx, "release", "master_id")
	if err != nil {
		return nil, err
	}
	if hasMasterID {
		return state, nil
	}
	_ = state.MarkCompleted("dedup")

	tracksHaveRows, err := prober.TableHasRows(ctx, "release_track")
	if err != nil {
		return nil, err
	}
	if !tracksHaveRows {
		return state, nil
	}
	_ = state.MarkCompleted("import_tracks")

	trackIndexes, err := prober.TrackTrigramIndexesExist(ctx)
	if err != nil {
		return nil, err
	}
	if !trackIndexes {
		return state, nil
	}
	_ = state.MarkCompleted("create_track_indexes")

	// prune and vacuum are left pending: they cannot be inferred and
	// are safe to re-run.
	return state, nil
}
