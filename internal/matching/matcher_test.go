package matching

import (
	"testing"

	"github.com/WXYC/discogs-cache/internal/libraryindex"
	"github.com/WXYC/discogs-cache/internal/normalize"
)

func newMatcher(pairs []libraryindex.Pair) *Matcher {
	idx := libraryindex.FromRows(pairs)
	return New(idx, Mappings{Keep: map[string]struct{}{}, Prune: map[string]struct{}{}}, DefaultThresholds())
}

// Seed scenario 1 (classifier-level, but the underlying pair-level
// decision is exercised here): exact library pair -> KEEP.
func TestClassifyExactPairKeeps(t *testing.T) {
	m := newMatcher([]libraryindex.Pair{{Artist: "Radiohead", Title: "OK Computer"}})
	res := m.Classify(normalize.Artist("Radiohead"), normalize.Title("OK Computer"))
	if res.Decision != Keep {
		t.Fatalf("decision = %v, want Keep", res.Decision)
	}
}

// Seed scenario 2: comma-article normalization still resolves to KEEP.
func TestClassifyCommaArticleKeeps(t *testing.T) {
	m := newMatcher([]libraryindex.Pair{{Artist: "Beatles, The", Title: "Abbey Road"}})
	res := m.Classify(normalize.Artist("Beatles, The"), normalize.Title("Abbey Road"))
	if res.Decision != Keep {
		t.Fatalf("decision = %v, want Keep", res.Decision)
	}
}

// Seed scenario 3: two_stage participation requirement blocks a
// short-artist-name false positive.
func TestClassifyShortArtistNotKept(t *testing.T) {
	m := newMatcher([]libraryindex.Pair{{Artist: "Joy Division", Title: "Unknown Pleasures"}})
	res := m.Classify(normalize.Artist("Joy"), normalize.Title("Unknown Pleasures"))
	if res.Decision == Keep {
		t.Fatalf("decision = Keep, want not-Keep (two_stage must gate KEEP)")
	}
}

// Seed scenario 4: accent stripping still resolves to KEEP.
func TestClassifyAccentStrippedKeeps(t *testing.T) {
	m := newMatcher([]libraryindex.Pair{{Artist: "Björk", Title: "Homogenic"}})
	res := m.Classify(normalize.Artist("Bjork"), normalize.Title("Homogenic"))
	if res.Decision != Keep {
		t.Fatalf("decision = %v, want Keep", res.Decision)
	}
}

// Seed scenario 5: mapped-keep override bypasses the scorers entirely.
func TestClassifyMappedKeepOverride(t *testing.T) {
	idx := libraryindex.FromRows([]libraryindex.Pair{{Artist: "Björk", Title: "Homogenic"}})
	m := New(idx, Mappings{Keep: map[string]struct{}{"bjork": {}}, Prune: map[string]struct{}{}}, DefaultThresholds())
	res := m.Classify(normalize.Artist("Bjork (2)"), normalize.Title("Utterly Unknown Album"))
	if res.Decision != Keep {
		t.Fatalf("decision = %v, want Keep via mapped override", res.Decision)
	}
}

func TestClassifyMappedPruneOverride(t *testing.T) {
	idx := libraryindex.FromRows([]libraryindex.Pair{{Artist: "Radiohead", Title: "OK Computer"}})
	m := New(idx, Mappings{Keep: map[string]struct{}{}, Prune: map[string]struct{}{"radiohead": {}}}, DefaultThresholds())
	res := m.Classify("radiohead", "ok computer")
	if res.Decision != Prune {
		t.Fatalf("decision = %v, want Prune via mapped override, even though pair is exact", res.Decision)
	}
}

func TestClassifyUnrelatedPrunes(t *testing.T) {
	m := newMatcher([]libraryindex.Pair{{Artist: "Radiohead", Title: "OK Computer"}})
	res := m.Classify("totally unrelated artist xyz", "totally unrelated title xyz")
	if res.Decision != Prune {
		t.Fatalf("decision = %v, want Prune", res.Decision)
	}
}

func TestClassifyKnownArtistExactPair(t *testing.T) {
	m := newMatcher([]libraryindex.Pair{{Artist: "Radiohead", Title: "OK Computer"}})
	res := m.ClassifyKnownArtist("radiohead", "ok computer")
	if res.Decision != Keep {
		t.Fatalf("decision = %v, want Keep", res.Decision)
	}
}

func TestClassifyKnownArtistNoTitles(t *testing.T) {
	m := newMatcher([]libraryindex.Pair{{Artist: "Radiohead", Title: "OK Computer"}})
	res := m.ClassifyKnownArtist("someone else", "some title")
	if res.Decision != Prune {
		t.Fatalf("decision = %v, want Prune when artist has no titles indexed", res.Decision)
	}
}

// Seed scenario 6: compilation routing via title-only matching.
func TestClassifyCompilationKeeps(t *testing.T) {
	idx := libraryindex.FromRows([]libraryindex.Pair{{Artist: "Various Artists - Compilations", Title: "Sugar Hill"}})
	decision := ClassifyCompilation(normalize.Title("Sugar Hill"), idx, 80)
	if decision != Keep {
		t.Fatalf("decision = %v, want Keep", decision)
	}
}

func TestClassifyCompilationEmptyTitlesPrunes(t *testing.T) {
	idx := libraryindex.FromRows(nil)
	if decision := ClassifyCompilation("anything", idx, 80); decision != Prune {
		t.Fatalf("decision = %v, want Prune with empty compilation_titles", decision)
	}
}
