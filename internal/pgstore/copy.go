package pgstore

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// RowSource is the bulk-load channel: a lazily-pulled sequence of
// already-transformed, already-filtered rows ready for COPY. Producers
// are the importer's CSV source, the track-count and artwork sources
// over in-memory maps, and the query source used by StreamEntityTo;
// Store.BulkLoad and UpdateArtwork consume them through
// copyFromRowSource. The CSV source holds only the current row, so a
// multi-million-row CSV import holds no more in memory than that row
// plus the reader's own buffer.
type RowSource interface {
	// Next advances to the next row, returning false when exhausted or
	// on error; callers check Err after a false return.
	Next(ctx context.Context) bool
	// Values returns the current row's columns in the order passed to
	// BulkLoad's columns argument.
	Values() ([]any, error)
	Err() error
}

// copyFromRowSource adapts a RowSource to pgx.CopyFromSource, which
// pgx's COPY protocol implementation pulls from row by row.
type copyFromRowSource struct {
	ctx context.Context
	src RowSource
}

func (c *copyFromRowSource) Next() bool {
	return c.src.Next(c.ctx)
}

func (c *copyFromRowSource) Values() ([]any, error) {
	return c.src.Values()
}

func (c *copyFromRowSource) Err() error {
	return c.src.Err()
}

// BulkLoad streams src into table via Postgres COPY, returning the
// number of rows copied. It never materializes the full row set in
// memory: pgx pulls from the CopyFromSource one row at a time.
func (s *Store) BulkLoad(ctx context.Context, table string, columns []string, src RowSource) (int64, error) {
	n, err := s.pool.CopyFrom(ctx, pgx.Identifier{table}, columns, &copyFromRowSource{ctx: ctx, src: src})
	if err != nil {
		return n, wrapPGError("bulk_load:"+table, err)
	}
	return n, nil
}
