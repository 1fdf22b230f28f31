package pgstore

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/WXYC/discogs-cache/internal/classifier"
	"github.com/WXYC/discogs-cache/internal/dedup"
	"github.com/WXYC/discogs-cache/internal/prune"
)

// DedupCandidates loads the ranking inputs for every release that has
// a master id, preferring the track-count side table when present and
// falling back to a live count over release_track.
func (s *Store) DedupCandidates(ctx context.Context) ([]dedup.Candidate, error) {
	hasSideTable, err := s.tableExists(ctx, "release_track_count")
	if err != nil {
		return nil, err
	}

	var rows pgx.Rows
	if hasSideTable {
		rows, err = s.pool.Query(ctx, `
			SELECT r.id, r.master_id, COALESCE(c.count, 0)
			FROM release r
			LEFT JOIN release_track_count c ON c.release_id = r.id
			WHERE r.master_id IS NOT NULL`)
	} else {
		rows, err = s.pool.Query(ctx, `
			SELECT r.id, r.master_id, COUNT(t.release_id)
			FROM release r
			LEFT JOIN release_track t ON t.release_id = r.id
			WHERE r.master_id IS NOT NULL
			GROUP BY r.id, r.master_id`)
	}
	if err != nil {
		return nil, wrapPGError("dedup_candidates", err)
	}
	defer rows.Close()

	var candidates []dedup.Candidate
	for rows.Next() {
		var c dedup.Candidate
		var masterID int64
		if err := rows.Scan(&c.ID, &masterID, &c.TrackCount); err != nil {
			return nil, wrapPGError("dedup_candidates_scan", err)
		}
		c.MasterID = &masterID
		candidates = append(candidates, c)
	}
	return candidates, rows.Err()
}

func (s *Store) tableExists(ctx context.Context, table string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_schema = 'public' AND table_name = $1)
	`, table).Scan(&exists)
	if err != nil {
		return false, wrapPGError("table_exists", err)
	}
	return exists, nil
}

// AllReleases loads every surviving release's id alongside its primary
// credited artist and title, for the classifier to score against the
// library index.
func (s *Store) AllReleases(ctx context.Context) ([]classifier.Release, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT r.id, a.artist, r.title
		FROM release r
		JOIN release_artist a ON a.release_id = r.id AND a.extra = 0
		ORDER BY r.id, a.position`)
	if err != nil {
		return nil, wrapPGError("all_releases", err)
	}
	defer rows.Close()

	seen := make(map[int64]struct{})
	var releases []classifier.Release
	for rows.Next() {
		var rel classifier.Release
		if err := rows.Scan(&rel.ID, &rel.Artist, &rel.Title); err != nil {
			return nil, wrapPGError("all_releases_scan", err)
		}
		if _, dup := seen[rel.ID]; dup {
			continue
		}
		seen[rel.ID] = struct{}{}
		releases = append(releases, rel)
	}
	return releases, rows.Err()
}

// StreamEntityTo copies spec's projected columns for rows belonging to
// ids (or, for the release table itself, rows whose id is in ids) from
// this store into target, by feeding a SELECT on this store into a
// COPY on target in-process rather
// than a cross-database statement, since the two stores may not share
// a network path for dblink-style queries.
func (s *Store) StreamEntityTo(ctx context.Context, target *Store, spec prune.EntitySpec, ids []int64) (int64, error) {
	var where string
	if spec.FilterByFK {
		where = fmt.Sprintf("WHERE %s = ANY($1::bigint[])", spec.FKColumn)
	} else {
		where = "WHERE id = ANY($1::bigint[])"
	}
	selectSQL := fmt.Sprintf("SELECT %s FROM %s %s", columnList(spec.Columns), spec.Table, where)

	rows, err := s.pool.Query(ctx, selectSQL, ids)
	if err != nil {
		return 0, wrapPGError("stream_entity_select:"+spec.Table, err)
	}
	defer rows.Close()

	src := &queryRowSource{rows: rows}
	return target.BulkLoad(ctx, spec.Table, spec.Columns, src)
}

// Vacuum reclaims space and refreshes planner statistics after the
// prune step has removed rows; it runs outside any transaction since
// VACUUM cannot be transactional.
func (s *Store) Vacuum(ctx context.Context) error {
	for _, table := range []string{"release", "release_artist", "release_label", "release_track", "release_track_artist", "cache_metadata"} {
		if _, err := s.pool.Exec(ctx, "VACUUM ANALYZE "+table); err != nil {
			return wrapPGError("vacuum:"+table, err)
		}
	}
	return nil
}

func columnList(cols []string) string {
	out := ""
	for i, c := range cols {
		if i > 0 {
			out += ", "
		}
		out += c
	}
	return out
}

// queryRowSource adapts pgx.Rows to RowSource so a cross-store copy can
// reuse the same BulkLoad path as file-backed imports.
type queryRowSource struct {
	rows pgx.Rows
}

func (q *queryRowSource) Next(_ context.Context) bool {
	return q.rows.Next()
}

func (q *queryRowSource) Values() ([]any, error) {
	vals, err := q.rows.Values()
	if err != nil {
		return nil, err
	}
	return vals, nil
}

func (q *queryRowSource) Err() error {
	return q.rows.Err()
}
