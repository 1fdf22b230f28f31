package pgstore

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// UpdateArtwork applies a merged release-id -> artwork URL map to
// release.artwork_url via a session-local temp table and a single
// UPDATE ... FROM join. Everything runs on one pooled connection inside
// a transaction, since a temp table is only visible on the connection
// that created it.
func (s *Store) UpdateArtwork(ctx context.Context, artwork map[int64]string) error {
	if len(artwork) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return wrapPGError("begin_artwork_update", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
		CREATE TEMP TABLE _artwork (
			release_id BIGINT PRIMARY KEY,
			artwork_url TEXT NOT NULL
		) ON COMMIT DROP`); err != nil {
		return wrapPGError("create_artwork_temp_table", err)
	}

	src := &artworkRowSource{ids: make([]int64, 0, len(artwork)), urls: artwork}
	for id := range artwork {
		src.ids = append(src.ids, id)
	}
	if _, err := tx.CopyFrom(ctx, pgx.Identifier{"_artwork"}, []string{"release_id", "artwork_url"}, &copyFromRowSource{ctx: ctx, src: src}); err != nil {
		return wrapPGError("bulk_load:_artwork", err)
	}

	if _, err := tx.Exec(ctx, `
		UPDATE release r
		SET artwork_url = a.artwork_url
		FROM _artwork a
		WHERE r.id = a.release_id`); err != nil {
		return wrapPGError("apply_artwork", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return wrapPGError("commit_artwork_update", err)
	}
	return nil
}

type artworkRowSource struct {
	ids  []int64
	urls map[int64]string
	pos  int
}

func (a *artworkRowSource) Next(_ context.Context) bool {
	if a.pos >= len(a.ids) {
		return false
	}
	a.pos++
	return true
}

func (a *artworkRowSource) Values() ([]any, error) {
	id := a.ids[a.pos-1]
	return []any{id, a.urls[id]}, nil
}

func (a *artworkRowSource) Err() error {
	return nil
}
