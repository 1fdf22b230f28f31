// Package classifier implements the four-phase bulk classification
// pipeline (spec.md §4.9) that turns a flat list of release rows into a
// ClassificationReport of KEEP/PRUNE/REVIEW release ids.
package classifier

import (
	"log/slog"
	"math"
	"sort"

	"github.com/WXYC/discogs-cache/internal/libraryindex"
	"github.com/WXYC/discogs-cache/internal/matching"
	"github.com/WXYC/discogs-cache/internal/normalize"
	"github.com/WXYC/discogs-cache/internal/scoring"
)

// MinTokenLen is the minimum token length considered during the Phase 3
// token-overlap pre-screen; shorter tokens ("dj", "mc") cause false
// positive overlaps and are discarded from both sides of the check.
const MinTokenLen = 3

// Phase4ArtistCutoff is the minimum artist-level token_set_ratio (0-100
// scale) required before a fuzzy-artist match is accepted in Phase 4.
const Phase4ArtistCutoff = 60

// CompilationTitleCutoff is the token_set_ratio threshold (0-100 scale)
// used to fuzzy-match a compilation release's title.
const CompilationTitleCutoff = 80

// Release is one input row: a release id with its primary artist and
// title exactly as stored (not yet normalized). The classifier is
// responsible for normalizing every field it consumes.
type Release struct {
	ID     int64
	Artist string
	Title  string
}

// ReviewEntry is one REVIEW release surfaced for human decision, kept
// under its normalized artist for the grouped report.
type ReviewEntry struct {
	ReleaseID int64
	Title     string
	Result    matching.Result
}

// Report aggregates the outcome of classifying every input release.
type Report struct {
	Keep   map[int64]struct{}
	Prune  map[int64]struct{}
	Review map[int64]struct{}

	// ReviewByArtist groups REVIEW releases under their normalized
	// artist for the human-facing report.
	ReviewByArtist map[string][]ReviewEntry

	// ArtistOriginals maps a normalized artist back to one observed
	// original-case spelling, for display purposes.
	ArtistOriginals map[string]string

	TotalReleases int
}

func newReport() *Report {
	return &Report{
		Keep:            make(map[int64]struct{}),
		Prune:           make(map[int64]struct{}),
		Review:          make(map[int64]struct{}),
		ReviewByArtist:  make(map[string][]ReviewEntry),
		ArtistOriginals: make(map[string]string),
	}
}

func (r *Report) keep(id int64)   { r.Keep[id] = struct{}{} }
func (r *Report) prune(id int64)  { r.Prune[id] = struct{}{} }
func (r *Report) review(id int64, normArtist, title string, result matching.Result) {
	r.Review[id] = struct{}{}
	r.ReviewByArtist[normArtist] = append(r.ReviewByArtist[normArtist], ReviewEntry{
		ReleaseID: id,
		Title:     title,
		Result:    result,
	})
}

// Pipeline runs the four-phase classification described in spec.md
// §4.9 against a Matcher/Index pair.
type Pipeline struct {
	Index   *libraryindex.Index
	Matcher *matching.Matcher
	Logger  *slog.Logger

	// ProgressEvery controls how often (by artists processed in Phase
	// 4) a progress log line is emitted. Zero disables progress
	// logging.
	ProgressEvery int
}

// New returns a Pipeline. If logger is nil, slog.Default() is used.
func New(idx *libraryindex.Index, matcher *matching.Matcher, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{Index: idx, Matcher: matcher, Logger: logger, ProgressEvery: 5000}
}

// Classify runs all four phases over releases and returns the
// aggregated Report.
func (p *Pipeline) Classify(releases []Release) *Report {
	report := newReport()
	report.TotalReleases = len(releases)

	byArtist := make(map[string][]Release)
	for _, rel := range releases {
		normArtist := normalize.Artist(rel.Artist)
		if _, ok := report.ArtistOriginals[normArtist]; !ok {
			report.ArtistOriginals[normArtist] = rel.Artist
		}
		byArtist[normArtist] = append(byArtist[normArtist], rel)
	}

	exactMatch, mappedPrune, needsFuzzy := p.phase1(byArtist)
	p.phase2(byArtist, exactMatch, mappedPrune, report)
	trulyFuzzy := p.phase3(byArtist, needsFuzzy, report)
	p.phase4(byArtist, trulyFuzzy, report)

	return report
}

// phase1 is the O(1)-per-artist exact-artist-match pre-screen.
func (p *Pipeline) phase1(byArtist map[string][]Release) (exactMatch, mappedPrune map[string]struct{}, needsFuzzy []string) {
	exactMatch = make(map[string]struct{})
	mappedPrune = make(map[string]struct{})

	for artist := range byArtist {
		switch {
		case p.Index.KnownArtist(artist):
			exactMatch[artist] = struct{}{}
		case containsKey(p.Matcher.Mappings.Keep, artist):
			exactMatch[artist] = struct{}{}
		case containsKey(p.Matcher.Mappings.Prune, artist):
			mappedPrune[artist] = struct{}{}
		default:
			needsFuzzy = append(needsFuzzy, artist)
		}
	}

	p.Logger.Info("classifier phase 1 complete",
		"exact_artists", len(exactMatch), "mapped_prune_artists", len(mappedPrune), "needs_fuzzy_artists", len(needsFuzzy))
	return exactMatch, mappedPrune, needsFuzzy
}

// phase2 classifies exact-match artists via the fast path and disposes
// of mapped-prune artists outright.
func (p *Pipeline) phase2(byArtist map[string][]Release, exactMatch, mappedPrune map[string]struct{}, report *Report) {
	for artist := range exactMatch {
		for _, rel := range byArtist[artist] {
			result := p.Matcher.ClassifyKnownArtist(artist, normalize.Title(rel.Title))
			switch result.Decision {
			case matching.Keep:
				report.keep(rel.ID)
			case matching.Prune:
				report.prune(rel.ID)
			default:
				report.review(rel.ID, artist, rel.Title, result)
			}
		}
	}

	for artist := range mappedPrune {
		for _, rel := range byArtist[artist] {
			report.prune(rel.ID)
		}
	}

	p.Logger.Info("classifier phase 2 complete",
		"keep", len(report.Keep), "prune", len(report.Prune), "review", len(report.Review))
}

// phase3 prunes artists whose normalized tokens share nothing with any
// library artist's tokens, returning the survivors for Phase 4.
// Compilation artists skip the token check and always survive, since
// Phase 4 matches them by title alone.
func (p *Pipeline) phase3(byArtist map[string][]Release, needsFuzzy []string, report *Report) []string {
	libraryTokens := make(map[string]struct{})
	for _, artist := range p.Index.AllArtists {
		for _, tok := range splitTokens(artist) {
			if len(tok) >= MinTokenLen {
				libraryTokens[tok] = struct{}{}
			}
		}
	}

	var trulyFuzzy []string
	prunedArtists := 0
	for _, artist := range needsFuzzy {
		if rels := byArtist[artist]; len(rels) > 0 && normalize.IsCompilationArtist(rels[0].Artist) {
			trulyFuzzy = append(trulyFuzzy, artist)
			continue
		}
		overlap := false
		for _, tok := range splitTokens(artist) {
			if len(tok) < MinTokenLen {
				continue
			}
			if _, ok := libraryTokens[tok]; ok {
				overlap = true
				break
			}
		}
		if overlap {
			trulyFuzzy = append(trulyFuzzy, artist)
			continue
		}
		for _, rel := range byArtist[artist] {
			report.prune(rel.ID)
		}
		prunedArtists++
	}

	p.Logger.Info("classifier phase 3 complete",
		"token_pruned_artists", prunedArtists, "remaining_artists", len(trulyFuzzy))
	return trulyFuzzy
}

// phase4 fuzzy-matches each surviving artist once against the library
// artist list (or routes compilations through title-only matching),
// then classifies that artist's releases by title score alone.
func (p *Pipeline) phase4(byArtist map[string][]Release, trulyFuzzy []string, report *Report) {
	for i, artist := range trulyFuzzy {
		releases := byArtist[artist]
		if len(releases) == 0 {
			continue
		}

		rawArtist := releases[0].Artist
		if normalize.IsCompilationArtist(rawArtist) {
			for _, rel := range releases {
				decision := matching.ClassifyCompilation(normalize.Title(rel.Title), p.Index, CompilationTitleCutoff)
				if decision == matching.Keep {
					report.keep(rel.ID)
				} else {
					report.prune(rel.ID)
				}
			}
			continue
		}

		matchedArtist, artistScore, ok := scoring.ArtistAgainstLibrary(artist, p.Index, Phase4ArtistCutoff)
		if !ok {
			for _, rel := range releases {
				report.prune(rel.ID)
			}
			continue
		}

		titles := p.Index.ArtistToTitlesList[matchedArtist]
		for _, rel := range releases {
			normTitle := normalize.Title(rel.Title)

			if p.Index.HasExactPair(matchedArtist, normTitle) {
				report.keep(rel.ID)
				continue
			}

			if len(titles) == 0 {
				report.prune(rel.ID)
				continue
			}

			titleScore := scoring.TitleAgainstList(normTitle, titles) * 100.0
			combined := sqrtGeoMean(float64(artistScore), titleScore) / 100.0

			result := matching.Result{Decision: matching.Prune, TwoStageScore: combined}
			switch {
			case combined >= p.Matcher.Thresholds.Keep:
				result.Decision = matching.Keep
				report.keep(rel.ID)
			case combined >= p.Matcher.Thresholds.Review:
				result.Decision = matching.Review
				report.review(rel.ID, artist, rel.Title, result)
			default:
				report.prune(rel.ID)
			}
		}

		if p.ProgressEvery > 0 && (i+1)%p.ProgressEvery == 0 {
			p.Logger.Info("classifier phase 4 progress",
				"artists_done", i+1, "artists_total", len(trulyFuzzy),
				"keep", len(report.Keep), "prune", len(report.Prune), "review", len(report.Review))
		}
	}

	p.Logger.Info("classifier phase 4 complete",
		"keep", len(report.Keep), "prune", len(report.Prune), "review", len(report.Review))
}

func sqrtGeoMean(a, b float64) float64 {
	if a <= 0 || b <= 0 {
		return 0
	}
	return math.Sqrt(a * b)
}

func splitTokens(s string) []string {
	var tokens []string
	start := -1
	for i, r := range s {
		if r == ' ' {
			if start >= 0 {
				tokens = append(tokens, s[start:i])
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		tokens = append(tokens, s[start:])
	}
	return tokens
}

func containsKey(m map[string]struct{}, key string) bool {
	_, ok := m[key]
	return ok
}

// SortedReviewArtists returns report's REVIEW artists sorted by release
// count descending, matching the human-facing report ordering from the
// original implementation's print_report.
func SortedReviewArtists(report *Report) []string {
	artists := make([]string, 0, len(report.ReviewByArtist))
	for artist := range report.ReviewByArtist {
		artists = append(artists, artist)
	}
	sort.Slice(artists, func(i, j int) bool {
		return len(report.ReviewByArtist[artists[i]]) > len(report.ReviewByArtist[artists[j]])
	})
	return artists
}
