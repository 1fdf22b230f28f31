// Package importer streams tabular Discogs export files into the
// catalog store: column projection, per-column transforms, required-
// field and release-id filtering, within-file uniqueness dedup, and
// the artwork merge pass, all built on the pgstore bulk-load channel.
package importer

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/WXYC/discogs-cache/internal/normalize"
	"github.com/WXYC/discogs-cache/internal/pgstore"
)

// Transform maps a raw CSV field value to a store value. A transform
// returning ("", false) marks the field as null for the purposes of
// the required-column check below, regardless of what the raw value
// was.
type Transform func(raw string) (string, bool)

// ExtractYear is the §4.3 year-extraction transform: the first four
// characters iff the field starts with four ASCII digits.
func ExtractYear(raw string) (string, bool) {
	return normalize.ExtractYear(raw)
}

// Spec describes one bulk-import call: an ordered selection of input
// columns mapped 1:1 to store columns, the subset that must be
// non-null after transforms, per-column transforms, an optional
// within-file uniqueness key, and an optional release-id filter.
type Spec struct {
	Table         string
	InputColumns  []string
	StoreColumns  []string
	Required      map[string]struct{}
	Transforms    map[string]Transform
	UniquenessKey []string
	ReleaseFilter map[int64]struct{}
}

// Result reports how a single import call disposed of its input rows.
type Result struct {
	Imported            int64
	NullRequiredSkipped int64
	Filtered            int64
	DuplicateSkipped    int64
}

// BulkLoader is the subset of pgstore.Store that Import needs, kept
// narrow so importer tests can exercise it with an in-memory fake.
type BulkLoader interface {
	BulkLoad(ctx context.Context, table string, columns []string, src pgstore.RowSource) (int64, error)
}

// csvRowSource adapts a filtered, transformed csv.Reader into the
// bulk-load channel, holding only the current row in memory.
type csvRowSource struct {
	reader  *csv.Reader
	colIdx  []int
	spec    Spec
	seen    map[string]struct{}
	result  *Result
	current []any
	err     error
	header  []string
}

func newCSVRowSource(r io.Reader, spec Spec) (*csvRowSource, error) {
	cr := csv.NewReader(r)
	cr.ReuseRecord = false
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("importer: read header: %w", err)
	}

	colIdx := make([]int, len(spec.InputColumns))
	for i, name := range spec.InputColumns {
		idx := indexOf(header, name)
		if idx < 0 {
			return nil, fmt.Errorf("importer: input column %q not found in header", name)
		}
		colIdx[i] = idx
	}

	var seen map[string]struct{}
	if len(spec.UniquenessKey) > 0 {
		seen = make(map[string]struct{})
	}

	return &csvRowSource{
		reader: cr,
		colIdx: colIdx,
		spec:   spec,
		seen:   seen,
		result: &Result{},
		header: header,
	}, nil
}

func indexOf(header []string, name string) int {
	for i, h := range header {
		if h == name {
			return i
		}
	}
	return -1
}

// Next advances to the next row that survives all filters, applying
// transforms, the required-field check, the release-id filter, and
// uniqueness dedup in that order per row until one survives or the
// file is exhausted.
func (s *csvRowSource) Next(_ context.Context) bool {
	for {
		record, err := s.reader.Read()
		if err == io.EOF {
			return false
		}
		if err != nil {
			s.err = fmt.Errorf("importer: read row: %w", err)
			return false
		}

		values, null := s.applyTransforms(record)

		if s.requiredFieldNull(null) {
			s.result.NullRequiredSkipped++
			continue
		}

		if s.spec.ReleaseFilter != nil {
			id, ok := s.releaseID(record)
			if !ok || !inFilter(s.spec.ReleaseFilter, id) {
				s.result.Filtered++
				continue
			}
		}

		if s.seen != nil {
			key := s.uniquenessKey(values)
			if _, dup := s.seen[key]; dup {
				s.result.DuplicateSkipped++
				continue
			}
			s.seen[key] = struct{}{}
		}

		s.current = values
		s.result.Imported++
		return true
	}
}

// applyTransforms runs each column's transform (identity if none is
// configured) and returns the resulting store values alongside a
// parallel null-ness slice, since empty string and "transform says
// null" are both treated as null regardless of the raw value.
func (s *csvRowSource) applyTransforms(record []string) ([]any, []bool) {
	values := make([]any, len(s.spec.StoreColumns))
	null := make([]bool, len(s.spec.StoreColumns))

	for i, inputCol := range s.spec.InputColumns {
		raw := record[s.colIdx[i]]
		var out string
		var ok bool
		if t, has := s.spec.Transforms[inputCol]; has {
			out, ok = t(raw)
		} else {
			out, ok = raw, raw != ""
		}
		if !ok || out == "" {
			null[i] = true
			values[i] = nil
			continue
		}
		values[i] = out
	}
	return values, null
}

func (s *csvRowSource) requiredFieldNull(null []bool) bool {
	for i, storeCol := range s.spec.StoreColumns {
		if _, required := s.spec.Required[storeCol]; required && null[i] {
			return true
		}
	}
	return false
}

func (s *csvRowSource) releaseID(record []string) (int64, bool) {
	for _, name := range []string{"release_id", "id"} {
		idx := indexOf(s.header, name)
		if idx < 0 || idx >= len(record) {
			continue
		}
		v := strings.TrimSpace(record[idx])
		if v == "" {
			continue
		}
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			continue
		}
		return id, true
	}
	return 0, false
}

func inFilter(filter map[int64]struct{}, id int64) bool {
	_, ok := filter[id]
	return ok
}

func (s *csvRowSource) uniquenessKey(values []any) string {
	parts := make([]string, len(s.spec.UniquenessKey))
	for i, col := range s.spec.UniquenessKey {
		parts[i] = fmt.Sprint(valueForColumn(s.spec, values, col))
	}
	return strings.Join(parts, "\x1f")
}

// valueForColumn resolves a uniqueness-key column against the
// transformed values slice, since that is what will actually be
// stored and therefore what "first occurrence wins" should dedup on.
func valueForColumn(spec Spec, values []any, col string) any {
	for i, storeCol := range spec.StoreColumns {
		if storeCol == col {
			return values[i]
		}
	}
	return ""
}

func (s *csvRowSource) Values() ([]any, error) {
	return s.current, nil
}

func (s *csvRowSource) Err() error {
	return s.err
}
