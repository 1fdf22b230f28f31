// Package matching implements the multi-scorer agreement rules that
// classify a (normalized artist, normalized title) pair as KEEP, PRUNE,
// or REVIEW.
package matching

import (
	"github.com/WXYC/discogs-cache/internal/libraryindex"
	"github.com/WXYC/discogs-cache/internal/scoring"
)

// Decision is the outcome of classifying a release.
type Decision int

const (
	Prune Decision = iota
	Keep
	Review
)

func (d Decision) String() string {
	switch d {
	case Keep:
		return "keep"
	case Review:
		return "review"
	default:
		return "prune"
	}
}

// Thresholds holds the four configurable agreement cutoffs from
// spec.md §4.8. The zero value is invalid; use DefaultThresholds.
type Thresholds struct {
	Keep     float64
	High     float64
	Moderate float64
	Review   float64
}

// DefaultThresholds matches the spec's defaults.
func DefaultThresholds() Thresholds {
	return Thresholds{Keep: 0.75, High: 0.85, Moderate: 0.70, Review: 0.65}
}

// Mappings holds pre-decided artist classifications keyed by normalized
// artist name, overriding the scorers entirely.
type Mappings struct {
	Keep  map[string]struct{}
	Prune map[string]struct{}
}

// Result is the outcome of classifying a single pair, carrying the
// individual scorer values for reporting.
type Result struct {
	Decision       Decision
	ExactScore     float64
	TokenSetScore  float64
	TokenSortScore float64
	TwoStageScore  float64
}

// MaxFuzzyScore returns the highest of the three fuzzy scorer outputs.
func (r Result) MaxFuzzyScore() float64 {
	m := r.TokenSetScore
	if r.TokenSortScore > m {
		m = r.TokenSortScore
	}
	if r.TwoStageScore > m {
		m = r.TwoStageScore
	}
	return m
}

// Matcher classifies pairs against a fixed library Index.
type Matcher struct {
	Index      *libraryindex.Index
	Mappings   Mappings
	Thresholds Thresholds
}

// New returns a Matcher with the given index, mappings, and thresholds.
func New(idx *libraryindex.Index, mappings Mappings, thresholds Thresholds) *Matcher {
	return &Matcher{Index: idx, Mappings: mappings, Thresholds: thresholds}
}

// Classify runs the full scorer pipeline for a (normArtist, normTitle)
// pair: mapped overrides, then the exact scorer, then all three fuzzy
// scorers combined under the agreement rules in spec.md §4.8.
func (m *Matcher) Classify(normArtist, normTitle string) Result {
	if _, ok := m.Mappings.Keep[normArtist]; ok {
		return Result{Decision: Keep}
	}
	if _, ok := m.Mappings.Prune[normArtist]; ok {
		return Result{Decision: Prune}
	}

	exact := scoring.Exact(normArtist, normTitle, m.Index)
	if exact == 1.0 {
		return Result{Decision: Keep, ExactScore: 1.0, TokenSetScore: 1.0, TokenSortScore: 1.0, TwoStageScore: 1.0}
	}

	tokenSet := scoring.TokenSet(normArtist, normTitle, m.Index)
	tokenSort := scoring.TokenSort(normArtist, normTitle, m.Index)
	twoStage := scoring.TwoStage(normArtist, normTitle, m.Index)

	result := Result{
		Decision:       m.decide(tokenSet, tokenSort, twoStage),
		ExactScore:     exact,
		TokenSetScore:  tokenSet,
		TokenSortScore: tokenSort,
		TwoStageScore:  twoStage,
	}
	return result
}

// decide applies the agreement rules. two_stage must participate in
// any KEEP decision: it is what prevents token_set/token_sort's subset
// tolerance from producing a false KEEP on a short/partial artist name.
func (m *Matcher) decide(tokenSet, tokenSort, twoStage float64) Decision {
	scores := [3]float64{tokenSet, tokenSort, twoStage}

	aboveKeep := 0
	for _, s := range scores {
		if s >= m.Thresholds.Keep {
			aboveKeep++
		}
	}
	if aboveKeep >= 2 && twoStage >= m.Thresholds.Keep {
		return Keep
	}

	hasHigh := false
	aboveModerate := 0
	for _, s := range scores {
		if s >= m.Thresholds.High {
			hasHigh = true
		}
		if s >= m.Thresholds.Moderate {
			aboveModerate++
		}
	}
	if hasHigh && aboveModerate >= 2 && twoStage >= m.Thresholds.Moderate {
		return Keep
	}

	maxScore := tokenSet
	if tokenSort > maxScore {
		maxScore = tokenSort
	}
	if twoStage > maxScore {
		maxScore = twoStage
	}
	if maxScore >= m.Thresholds.Review {
		return Review
	}

	return Prune
}

// ClassifyKnownArtist is the fast path used once an artist is already
// known to be in the library (exact artist match) or has a mapped-keep
// override. Mapped overrides are checked first, as in Classify. It then
// skips the expensive combined-string scans entirely: exact pair
// lookup, then a direct title fuzzy match within the artist's own
// title list.
func (m *Matcher) ClassifyKnownArtist(normArtist, normTitle string) Result {
	if _, ok := m.Mappings.Keep[normArtist]; ok {
		return Result{Decision: Keep}
	}
	if _, ok := m.Mappings.Prune[normArtist]; ok {
		return Result{Decision: Prune}
	}

	if m.Index.HasExactPair(normArtist, normTitle) {
		return Result{Decision: Keep, ExactScore: 1.0, TokenSetScore: 1.0, TokenSortScore: 1.0, TwoStageScore: 1.0}
	}

	titles := m.Index.ArtistToTitlesList[normArtist]
	if len(titles) == 0 {
		return Result{Decision: Prune}
	}

	titleScore := scoring.TitleAgainstList(normTitle, titles)
	switch {
	case titleScore >= m.Thresholds.Keep:
		return Result{Decision: Keep, TwoStageScore: titleScore}
	case titleScore >= m.Thresholds.Review:
		return Result{Decision: Review, TwoStageScore: titleScore}
	default:
		return Result{Decision: Prune, TwoStageScore: titleScore}
	}
}

// ClassifyCompilation classifies a compilation release by title-only
// matching against the library's compilation titles (exact, then
// token_set_ratio >= thresholdPct out of 100).
func ClassifyCompilation(normTitle string, idx *libraryindex.Index, thresholdPct int) Decision {
	if scoring.CompilationMatch(normTitle, idx, thresholdPct) {
		return Keep
	}
	return Prune
}
