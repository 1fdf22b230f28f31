package classifier

import (
	"io"
	"log/slog"
	"testing"

	"github.com/WXYC/discogs-cache/internal/libraryindex"
	"github.com/WXYC/discogs-cache/internal/matching"
)

func silentLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newPipeline(pairs []libraryindex.Pair, mappings matching.Mappings) *Pipeline {
	idx := libraryindex.FromRows(pairs)
	m := matching.New(idx, mappings, matching.DefaultThresholds())
	return New(idx, m, silentLogger())
}

func emptyMappings() matching.Mappings {
	return matching.Mappings{Keep: map[string]struct{}{}, Prune: map[string]struct{}{}}
}

// Seed scenario 1 (ungrouped by dedup here — dedup is a separate
// component): an exact library match keeps the release.
func TestClassifyExactMatchKeeps(t *testing.T) {
	p := newPipeline([]libraryindex.Pair{{Artist: "Radiohead", Title: "OK Computer"}}, emptyMappings())
	report := p.Classify([]Release{{ID: 1001, Artist: "Radiohead", Title: "OK Computer"}})
	if _, ok := report.Keep[1001]; !ok {
		t.Fatalf("expected release 1001 in KEEP, report=%+v", report)
	}
}

func TestClassifyMappedProvePruneBeatsEverything(t *testing.T) {
	mappings := emptyMappings()
	mappings.Prune["radiohead"] = struct{}{}
	p := newPipeline([]libraryindex.Pair{{Artist: "Radiohead", Title: "OK Computer"}}, mappings)
	report := p.Classify([]Release{{ID: 5, Artist: "Radiohead", Title: "OK Computer"}})
	if _, ok := report.Prune[5]; !ok {
		t.Fatalf("expected release 5 in PRUNE due to mapped override")
	}
}

func TestClassifyTokenOverlapPrescreenPrunesUnrelated(t *testing.T) {
	p := newPipeline([]libraryindex.Pair{{Artist: "Radiohead", Title: "OK Computer"}}, emptyMappings())
	report := p.Classify([]Release{{ID: 7, Artist: "Xyzzy Plugh Waldo", Title: "Nonsense Title"}})
	if _, ok := report.Prune[7]; !ok {
		t.Fatalf("expected release with no token overlap to be pruned, report=%+v", report)
	}
}

func TestClassifyCompilationRouting(t *testing.T) {
	p := newPipeline([]libraryindex.Pair{{Artist: "Various Artists", Title: "Sugar Hill"}}, emptyMappings())
	report := p.Classify([]Release{{ID: 9, Artist: "Various", Title: "Sugar Hill"}})
	if _, ok := report.Keep[9]; !ok {
		t.Fatalf("expected compilation release to be kept via title match, report=%+v", report)
	}
}

func TestClassifyEmptyLibraryPrunesEverything(t *testing.T) {
	p := newPipeline(nil, emptyMappings())
	report := p.Classify([]Release{{ID: 1, Artist: "Anyone", Title: "Anything"}})
	if _, ok := report.Prune[1]; !ok {
		t.Fatalf("expected release to be pruned against empty library")
	}
}

func TestClassifyLooseFuzzyMatchLandsInOneOutcome(t *testing.T) {
	// A loose fuzzy match (article dropped from the artist, reworded
	// title) is classified into exactly one of KEEP, PRUNE, or REVIEW.
	p := newPipeline([]libraryindex.Pair{{Artist: "The Microphones", Title: "The Glow Pt 2"}}, emptyMappings())
	report := p.Classify([]Release{{ID: 42, Artist: "Microphones", Title: "Glow, Pt. Two (Something Else)"}})
	total := len(report.Keep) + len(report.Prune) + len(report.Review)
	if total != 1 {
		t.Fatalf("expected exactly one classified release, got %d", total)
	}
}

func TestSortedReviewArtistsOrdersByCount(t *testing.T) {
	report := newReport()
	report.review(1, "artist-a", "t1", matching.Result{})
	report.review(2, "artist-b", "t2", matching.Result{})
	report.review(3, "artist-b", "t3", matching.Result{})
	sorted := SortedReviewArtists(report)
	if len(sorted) != 2 || sorted[0] != "artist-b" {
		t.Fatalf("expected artist-b first (2 releases), got %v", sorted)
	}
}
