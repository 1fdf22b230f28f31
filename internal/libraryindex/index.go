// Package libraryindex builds the immutable in-memory index of library
// (artist, title) pairs the fuzzy matcher and classifier consult. The
// index is built once per pipeline run and never mutated afterward, so
// every exported field is safe to read concurrently without locking.
package libraryindex

import (
	"sort"

	"github.com/WXYC/discogs-cache/internal/normalize"
)

// CombinedSeparator joins a normalized artist and title into the single
// string the token_set/token_sort scorers compare against.
const CombinedSeparator = " ||| "

// Pair is a raw (artist, title) row as read from the library catalog.
type Pair struct {
	Artist string
	Title  string
}

// Index is the immutable library index. Construct with FromRows; never
// mutate the returned value's slices or maps.
type Index struct {
	// ExactPairs holds every non-compilation (normalized artist,
	// normalized title) pair, for O(1) exact lookup.
	ExactPairs map[[2]string]struct{}

	// ArtistToTitles maps a normalized artist to the set of normalized
	// titles it has in the library.
	ArtistToTitles map[string]map[string]struct{}

	// ArtistToTitlesList is ArtistToTitles with values flattened to
	// slices, precomputed once for the scorers (which need a []string
	// to rank against).
	ArtistToTitlesList map[string][]string

	// CombinedStrings is every "artist ||| title" combined string, used
	// by the token_set/token_sort scorers to rank the query against
	// the whole library.
	CombinedStrings []string

	// CombinedToOriginal maps a combined string back to its (artist,
	// title) pair.
	CombinedToOriginal map[string][2]string

	// AllArtists is the deduplicated, sorted list of normalized artist
	// names, excluding compilation entries.
	AllArtists []string

	// CompilationTitles holds normalized titles from library rows whose
	// artist matched the compilation heuristic.
	CompilationTitles map[string]struct{}
}

// FromRows builds an Index from raw library rows. Rows with an empty
// artist or title are skipped. Compilation rows (see
// normalize.IsCompilationArtist) route their title into
// CompilationTitles and are excluded from every other structure.
// Duplicate (artist, title) pairs are deduplicated; the first occurrence
// of a combined string wins.
func FromRows(rows []Pair) *Index {
	idx := &Index{
		ExactPairs:         make(map[[2]string]struct{}),
		ArtistToTitles:     make(map[string]map[string]struct{}),
		CombinedToOriginal: make(map[string][2]string),
		CompilationTitles:  make(map[string]struct{}),
	}

	artistSet := make(map[string]struct{})

	for _, row := range rows {
		if row.Artist == "" || row.Title == "" {
			continue
		}

		normTitle := normalize.Title(row.Title)

		if normalize.IsCompilationArtist(row.Artist) {
			idx.CompilationTitles[normTitle] = struct{}{}
			continue
		}

		normArtist := normalize.Artist(row.Artist)
		pair := [2]string{normArtist, normTitle}

		if _, exists := idx.ExactPairs[pair]; exists {
			continue
		}
		idx.ExactPairs[pair] = struct{}{}

		titles, ok := idx.ArtistToTitles[normArtist]
		if !ok {
			titles = make(map[string]struct{})
			idx.ArtistToTitles[normArtist] = titles
		}
		titles[normTitle] = struct{}{}
		artistSet[normArtist] = struct{}{}

		combined := normArtist + CombinedSeparator + normTitle
		idx.CombinedToOriginal[combined] = pair
	}

	idx.CombinedStrings = make([]string, 0, len(idx.CombinedToOriginal))
	for combined := range idx.CombinedToOriginal {
		idx.CombinedStrings = append(idx.CombinedStrings, combined)
	}
	sort.Strings(idx.CombinedStrings)

	idx.AllArtists = make([]string, 0, len(artistSet))
	for artist := range artistSet {
		idx.AllArtists = append(idx.AllArtists, artist)
	}
	sort.Strings(idx.AllArtists)

	idx.ArtistToTitlesList = make(map[string][]string, len(idx.ArtistToTitles))
	for artist, titles := range idx.ArtistToTitles {
		list := make([]string, 0, len(titles))
		for title := range titles {
			list = append(list, title)
		}
		sort.Strings(list)
		idx.ArtistToTitlesList[artist] = list
	}

	return idx
}

// HasExactPair reports whether the normalized pair is in the library.
func (idx *Index) HasExactPair(artist, title string) bool {
	_, ok := idx.ExactPairs[[2]string{artist, title}]
	return ok
}

// KnownArtist reports whether artist (already normalized) has at least
// one release in the library index.
func (idx *Index) KnownArtist(artist string) bool {
	_, ok := idx.ArtistToTitlesList[artist]
	return ok
}
