package pgstore

import "context"

// SeedTrackCount (re)creates the release_track_count side table and
// bulk-loads counts, one row per release id. It is built from the
// tracks file directly during base import, before track rows
// themselves are copied in.
func (s *Store) SeedTrackCount(ctx context.Context, counts map[int64]int) error {
	if _, err := s.pool.Exec(ctx, trackCountTableStatement); err != nil {
		return wrapPGError("create_track_count_table", err)
	}
	if _, err := s.pool.Exec(ctx, "TRUNCATE "+trackCountTable); err != nil {
		return wrapPGError("truncate_track_count_table", err)
	}

	src := &trackCountRowSource{ids: make([]int64, 0, len(counts)), counts: counts}
	for id := range counts {
		src.ids = append(src.ids, id)
	}
	if _, err := s.BulkLoad(ctx, trackCountTable, []string{"release_id", "count"}, src); err != nil {
		return err
	}
	return nil
}

// trackCountRowSource adapts an in-memory release-id -> count map to
// the bulk-load channel.
type trackCountRowSource struct {
	ids    []int64
	counts map[int64]int
	pos    int
}

func (t *trackCountRowSource) Next(_ context.Context) bool {
	if t.pos >= len(t.ids) {
		return false
	}
	t.pos++
	return true
}

func (t *trackCountRowSource) Values() ([]any, error) {
	id := t.ids[t.pos-1]
	return []any{id, t.counts[id]}, nil
}

func (t *trackCountRowSource) Err() error {
	return nil
}
