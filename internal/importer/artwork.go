package importer

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
)

// ImageRow is one (release id, type, uri) record from the image input.
// Type "primary" is preferred; any other value is a fallback candidate.
type ImageRow struct {
	ReleaseID int64
	Type      string
	URI       string
}

// MergeArtwork picks, per release, the first primary URI or else the
// first non-primary URI, in input order. Releases with no image rows
// are absent from the result rather than mapped to an empty string.
func MergeArtwork(rows []ImageRow) map[int64]string {
	result := make(map[int64]string)
	fallback := make(map[int64]string)

	for _, row := range rows {
		if row.URI == "" {
			continue
		}
		if row.Type == "primary" {
			if _, has := result[row.ReleaseID]; !has {
				result[row.ReleaseID] = row.URI
			}
			continue
		}
		if _, has := fallback[row.ReleaseID]; !has {
			fallback[row.ReleaseID] = row.URI
		}
	}

	for id, uri := range fallback {
		if _, has := result[id]; !has {
			result[id] = uri
		}
	}
	return result
}

// ArtworkUpdater applies the merged artwork map as a bulk update
// against the release table's artwork_url column.
type ArtworkUpdater interface {
	UpdateArtwork(ctx context.Context, artwork map[int64]string) error
}

// ApplyArtwork reads the image CSV input and applies the merge result
// via updater. The header must expose release_id, type, and uri.
func ApplyArtwork(ctx context.Context, updater ArtworkUpdater, r io.Reader) (int, error) {
	rows, err := readImageRows(r)
	if err != nil {
		return 0, err
	}
	merged := MergeArtwork(rows)
	if err := updater.UpdateArtwork(ctx, merged); err != nil {
		return 0, fmt.Errorf("importer: apply artwork: %w", err)
	}
	return len(merged), nil
}

func readImageRows(r io.Reader) ([]ImageRow, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("importer: read image header: %w", err)
	}
	idIdx, typeIdx, uriIdx := indexOf(header, "release_id"), indexOf(header, "type"), indexOf(header, "uri")
	if idIdx < 0 || typeIdx < 0 || uriIdx < 0 {
		return nil, fmt.Errorf("importer: image input missing release_id/type/uri column")
	}

	var rows []ImageRow
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("importer: read image row: %w", err)
		}
		id, ok := parseReleaseID(record[idIdx])
		if !ok {
			continue
		}
		rows = append(rows, ImageRow{ReleaseID: id, Type: record[typeIdx], URI: record[uriIdx]})
	}
	return rows, nil
}

func parseReleaseID(s string) (int64, bool) {
	var id int64
	if s == "" {
		return 0, false
	}
	_, err := fmt.Sscanf(s, "%d", &id)
	if err != nil {
		return 0, false
	}
	return id, true
}

// TrackCount counts release_id occurrences in the track input file for
// the side table built in a separate pass over tracks, per the
// track-count transform described alongside the bulk importer.
func TrackCount(r io.Reader, releaseIDColumn string) (map[int64]int, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("importer: read track header: %w", err)
	}
	idIdx := indexOf(header, releaseIDColumn)
	if idIdx < 0 {
		return nil, fmt.Errorf("importer: track input missing %q column", releaseIDColumn)
	}

	counts := make(map[int64]int)
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("importer: read track row: %w", err)
		}
		id, ok := parseReleaseID(record[idIdx])
		if !ok {
			continue
		}
		counts[id]++
	}
	return counts, nil
}
