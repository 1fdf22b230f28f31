package importer

import (
	"context"
	"fmt"
	"io"
)

// Import streams r through spec's column selection, transforms, and
// filters into loader, returning counts for each disposition. The
// underlying csvRowSource never buffers more than the current row.
func Import(ctx context.Context, loader BulkLoader, r io.Reader, spec Spec) (Result, error) {
	src, err := newCSVRowSource(r, spec)
	if err != nil {
		return Result{}, err
	}

	if _, err := loader.BulkLoad(ctx, spec.Table, spec.StoreColumns, src); err != nil {
		return *src.result, fmt.Errorf("importer: bulk load %s: %w", spec.Table, err)
	}
	if src.Err() != nil {
		return *src.result, src.Err()
	}
	return *src.result, nil
}
