// Package prune implements the pipeline's final disposition step: it
// either deletes PRUNE releases in place, or copies KEEP∪REVIEW rows
// to a fresh target store and leaves the source untouched.
package prune

import (
	"context"
	"fmt"
)

// StatementRunner executes a single SQL statement. Both execution
// modes below are built on it so they share the same error-wrapping
// and can be driven by a fake in tests, mirroring the shape dedup.
// Executor uses for the copy-swap.
type StatementRunner func(ctx context.Context, sql string, args ...any) error

// InPlace deletes every release in pruneIDs from the source store.
// Referential constraints cascade to release_artist, release_label,
// and release_track; REVIEW releases are never touched.
func InPlace(ctx context.Context, exec StatementRunner, pruneIDs []int64) (int, error) {
	if len(pruneIDs) == 0 {
		return 0, nil
	}
	if err := exec(ctx, `DELETE FROM release WHERE id = ANY($1::bigint[])`, pruneIDs); err != nil {
		return 0, fmt.Errorf("prune: delete in place: %w", err)
	}
	return len(pruneIDs), nil
}

// EntitySpec describes one table's copy-to-target projection: the
// columns to carry over (dropping residual source-only columns like
// master_id) and whether rows are filtered by release id membership
// directly (release) or by a foreign key column (children).
type EntitySpec struct {
	Table      string
	Columns    []string
	FilterByFK bool
	FKColumn   string
}

// DefaultEntitySpecs mirrors the schema pgstore.CreateSchema creates,
// with the master_id column dropped from the release projection as
// required by the copy-to-target mode.
var DefaultEntitySpecs = []EntitySpec{
	{Table: "release", Columns: []string{"id", "title", "year", "country", "format", "artwork_url"}},
	{Table: "release_artist", Columns: []string{"release_id", "artist", "extra", "position"}, FilterByFK: true, FKColumn: "release_id"},
	{Table: "release_label", Columns: []string{"release_id", "label", "catno"}, FilterByFK: true, FKColumn: "release_id"},
	{Table: "release_track", Columns: []string{"release_id", "position", "title"}, FilterByFK: true, FKColumn: "release_id"},
	{Table: "release_track_artist", Columns: []string{"release_id", "track_position", "artist"}, FilterByFK: true, FKColumn: "release_id"},
	{Table: "cache_metadata", Columns: []string{"release_id", "cached_at", "source", "last_validated"}, FilterByFK: true, FKColumn: "release_id"},
}

// CopyToTarget streams KEEP∪REVIEW rows for every entity from source
// into target, applying the schema to target first and the indexes
// after all rows are streamed. The source store is never modified.
type CopyToTarget struct {
	CreateTargetSchema  func(ctx context.Context) error
	CreateTargetIndexes func(ctx context.Context) error
	StreamEntity        func(ctx context.Context, spec EntitySpec, keepIDs []int64) (int64, error)
}

// Run applies the schema to the target then streams every entity in
// DefaultEntitySpecs order, returning total rows copied.
func (c *CopyToTarget) Run(ctx context.Context, keepIDs []int64) (int64, error) {
	if err := c.CreateTargetSchema(ctx); err != nil {
		return 0, fmt.Errorf("prune: create target schema: %w", err)
	}

	var total int64
	for _, spec := range DefaultEntitySpecs {
		n, err := c.StreamEntity(ctx, spec, keepIDs)
		if err != nil {
			return total, fmt.Errorf("prune: stream %s: %w", spec.Table, err)
		}
		total += n
	}

	if err := c.CreateTargetIndexes(ctx); err != nil {
		return total, fmt.Errorf("prune: create target indexes: %w", err)
	}
	return total, nil
}

// KeepAndReviewIDs merges a classification report's KEEP and REVIEW
// sets into the id list copy-to-target mode streams, since REVIEW
// releases are retained pending a human decision rather than pruned.
func KeepAndReviewIDs(keep, review map[int64]struct{}) []int64 {
	ids := make([]int64, 0, len(keep)+len(review))
	for id := range keep {
		ids = append(ids, id)
	}
	for id := range review {
		ids = append(ids, id)
	}
	return ids
}
