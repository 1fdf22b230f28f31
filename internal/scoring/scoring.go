// Package scoring implements the four similarity scorers the matcher
// combines: exact, token_set, token_sort, and two_stage. Each scorer
// returns a float64 in [0.0, 1.0].
//
// token_set and token_sort are backed by go-fuzzywuzzy's Go port of the
// Python fuzzywuzzy/rapidfuzz ratio family, the same library the
// original implementation's verify_cache.py leaned on (there: rapidfuzz).
package scoring

import (
	"math"

	fuzzywuzzy "github.com/paul-mannino/go-fuzzywuzzy"

	"github.com/WXYC/discogs-cache/internal/libraryindex"
)

// TwoStageArtistCutoff is the minimum token_set_ratio (0-100 scale) an
// artist must score against the library's artist list before its title
// is even considered in the two-stage scorer.
const TwoStageArtistCutoff = 70

// Scratch is an empty placeholder type. It holds no buffers, no scorer
// in this package takes one, and the classifier does not create one;
// each scorer call allocates whatever the underlying fuzzywuzzy ratio
// functions allocate.
type Scratch struct {
	_ struct{}
}

// NewScratch returns a fresh Scratch.
func NewScratch() *Scratch { return &Scratch{} }

// best returns the highest ratio (0-100) of query against candidates
// using the given ratio function, or (0, false) if candidates is empty.
func best(ratio func(a, b string) int, query string, candidates []string) (int, bool) {
	if len(candidates) == 0 {
		return 0, false
	}
	bestScore := -1
	for _, candidate := range candidates {
		if s := ratio(query, candidate); s > bestScore {
			bestScore = s
		}
	}
	if bestScore < 0 {
		return 0, false
	}
	return bestScore, true
}

// bestAbove is like best but only considers candidates scoring >= cutoff
// and returns the matched candidate alongside the score, mirroring
// rapidfuzz's process.extractOne(..., score_cutoff=...).
func bestAbove(ratio func(a, b string) int, query string, candidates []string, cutoff int) (string, int, bool) {
	bestScore := -1
	bestCandidate := ""
	for _, candidate := range candidates {
		if s := ratio(query, candidate); s > bestScore {
			bestScore = s
			bestCandidate = candidate
		}
	}
	if bestScore < cutoff {
		return "", 0, false
	}
	return bestCandidate, bestScore, true
}

// Exact returns 1.0 iff (normArtist, normTitle) is a library pair.
func Exact(normArtist, normTitle string, idx *libraryindex.Index) float64 {
	if idx.HasExactPair(normArtist, normTitle) {
		return 1.0
	}
	return 0.0
}

// TokenSet scores the combined "artist ||| title" query against every
// combined library string using token_set_ratio, returning the best
// match normalized to [0,1].
func TokenSet(normArtist, normTitle string, idx *libraryindex.Index) float64 {
	query := normArtist + libraryindex.CombinedSeparator + normTitle
	score, ok := best(fuzzywuzzy.TokenSetRatio, query, idx.CombinedStrings)
	if !ok {
		return 0.0
	}
	return float64(score) / 100.0
}

// TokenSort is TokenSet but using token_sort_ratio, which penalizes
// token-order differences.
func TokenSort(normArtist, normTitle string, idx *libraryindex.Index) float64 {
	query := normArtist + libraryindex.CombinedSeparator + normTitle
	score, ok := best(fuzzywuzzy.TokenSortRatio, query, idx.CombinedStrings)
	if !ok {
		return 0.0
	}
	return float64(score) / 100.0
}

// TwoStage fuzzy-matches the artist against the library's artist list
// (cutoff TwoStageArtistCutoff), then fuzzy-matches the title against
// that artist's title list, returning sqrt(artistScore*titleScore)/100.
// Returns 0.0 if no artist clears the cutoff or the matched artist has
// no titles.
func TwoStage(normArtist, normTitle string, idx *libraryindex.Index) float64 {
	if len(idx.AllArtists) == 0 {
		return 0.0
	}

	matchedArtist, artistScore, ok := bestAbove(fuzzywuzzy.TokenSetRatio, normArtist, idx.AllArtists, TwoStageArtistCutoff)
	if !ok {
		return 0.0
	}

	titles := idx.ArtistToTitlesList[matchedArtist]
	if len(titles) == 0 {
		return 0.0
	}

	titleScore, ok := best(fuzzywuzzy.TokenSetRatio, normTitle, titles)
	if !ok {
		return 0.0
	}

	return math.Sqrt(float64(artistScore)*float64(titleScore)) / 100.0
}

// TitleAgainstList scores normTitle (token_set_ratio) against an
// arbitrary title list, returning [0,1]. Used by the fast known-artist
// path and by Phase 4's per-release title matching, both of which
// already know which artist's titles to search.
func TitleAgainstList(normTitle string, titles []string) float64 {
	score, ok := best(fuzzywuzzy.TokenSetRatio, normTitle, titles)
	if !ok {
		return 0.0
	}
	return float64(score) / 100.0
}

// ArtistAgainstLibrary fuzzy-matches normArtist against idx.AllArtists
// with the given cutoff (0-100 scale), returning the matched artist and
// its score (0-100), or ok=false if nothing clears the cutoff.
func ArtistAgainstLibrary(normArtist string, idx *libraryindex.Index, cutoff int) (artist string, score int, ok bool) {
	return bestAbove(fuzzywuzzy.TokenSetRatio, normArtist, idx.AllArtists, cutoff)
}

// CompilationMatch reports whether normTitle matches a library
// compilation title, either exactly or via token_set_ratio >= threshold
// (0-100 scale).
func CompilationMatch(normTitle string, idx *libraryindex.Index, threshold int) bool {
	if len(idx.CompilationTitles) == 0 {
		return false
	}
	if _, ok := idx.CompilationTitles[normTitle]; ok {
		return true
	}
	titles := make([]string, 0, len(idx.CompilationTitles))
	for t := range idx.CompilationTitles {
		titles = append(titles, t)
	}
	_, score, ok := bestAbove(fuzzywuzzy.TokenSetRatio, normTitle, titles, threshold)
	return ok && score >= threshold
}
