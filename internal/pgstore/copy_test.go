package pgstore

import (
	"context"
	"testing"
)

// sliceRowSource is a minimal RowSource for exercising the
// CopyFromSource adapter without a CSV file or a live connection.
type sliceRowSource struct {
	rows [][]any
	pos  int
}

func (s *sliceRowSource) Next(_ context.Context) bool {
	if s.pos >= len(s.rows) {
		return false
	}
	s.pos++
	return true
}

func (s *sliceRowSource) Values() ([]any, error) {
	return s.rows[s.pos-1], nil
}

func (s *sliceRowSource) Err() error { return nil }

func TestCopyFromRowSourceAdaptsPgxInterface(t *testing.T) {
	src := &sliceRowSource{rows: [][]any{{int64(1), "a"}, {int64(2), "b"}}}
	adapter := &copyFromRowSource{ctx: context.Background(), src: src}

	var got [][]any
	for adapter.Next() {
		vals, err := adapter.Values()
		if err != nil {
			t.Fatalf("Values: %v", err)
		}
		got = append(got, vals)
	}
	if err := adapter.Err(); err != nil {
		t.Fatalf("Err: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(got))
	}
	if got[0][1] != "a" || got[1][1] != "b" {
		t.Fatalf("unexpected row contents: %+v", got)
	}
}

func TestCopyFromRowSourceEmpty(t *testing.T) {
	adapter := &copyFromRowSource{ctx: context.Background(), src: &sliceRowSource{}}
	if adapter.Next() {
		t.Fatalf("expected no rows from empty source")
	}
}
