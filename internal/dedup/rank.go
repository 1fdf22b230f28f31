// Package dedup collapses duplicate releases that share a Discogs
// master id, keeping the release with the most tracks (ties broken by
// lowest id) and discarding the rest via a copy-swap of the base
// tables.
package dedup

import "sort"

// Candidate is one release's ranking inputs: its id, its (possibly
// absent) master id, and its track count from the side table or a
// live count over release_track.
type Candidate struct {
	ID         int64
	MasterID   *int64
	TrackCount int
}

// ComputeDiscardSet ranks candidates within each non-null master-id
// group by (track count desc, id asc) and returns the ids of every
// release except the top-ranked one per group. Releases with a nil
// MasterID are never grouped and never discarded.
func ComputeDiscardSet(candidates []Candidate) map[int64]struct{} {
	groups := make(map[int64][]Candidate)
	for _, c := range candidates {
		if c.MasterID == nil {
			continue
		}
		groups[*c.MasterID] = append(groups[*c.MasterID], c)
	}

	discard := make(map[int64]struct{})
	for _, group := range groups {
		if len(group) < 2 {
			continue
		}
		sort.Slice(group, func(i, j int) bool {
			if group[i].TrackCount != group[j].TrackCount {
				return group[i].TrackCount > group[j].TrackCount
			}
			return group[i].ID < group[j].ID
		})
		for _, loser := range group[1:] {
			discard[loser.ID] = struct{}{}
		}
	}
	return discard
}
