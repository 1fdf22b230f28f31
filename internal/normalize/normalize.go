// Package normalize implements the artist/title/year normalization rules
// used everywhere a release needs to be compared against the library
// catalog: the fuzzy scorers, the library index, and the CSV importer's
// release-year extraction transform all share this package so that a
// "normalized artist" means the same thing throughout the pipeline.
package normalize

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// CommaArticles are the definite articles Discogs moves to a trailing
// ", <article>" suffix. Order matters only for documentation purposes;
// matching checks every entry.
var CommaArticles = []string{"the", "los", "las", "les", "la", "le", "el", "die", "der", "das"}

// CompilationKeywords mark an artist name as a various-artists/soundtrack
// compilation. Matching is a case-insensitive substring test.
var CompilationKeywords = []string{"various", "soundtrack", "compilation", "v/a", "v.a."}

var (
	discogsDisambiguationRE = regexp.MustCompile(`\s*\(\d+\)\s*$`)
	libraryDisambiguationRE = regexp.MustCompile(`(?s)\s*\[.*?\]\s*$`)
	ampersandRE             = regexp.MustCompile(`\s*&\s*`)
	apostropheReplacer      = strings.NewReplacer("'", "", "’", "")
	yearRE                  = regexp.MustCompile(`^[0-9]{4}`)

	titleSuffixRE = regexp.MustCompile(`(?i)\s*(?:\d*"` +
		`|\(\d+\)` +
		`|\(\d+\s*(?:cd|lp)\s*set\)` +
		`|\((?:reissue|deluxe\s+edition|expanded\s+edition|anniversary\s+edition|special\s+edition|limited\s+edition|bonus\s+tracks|ep|lp)\)` +
		`|\(\d+lp\)` +
		`)\s*$`)

	stripMarks = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
)

// stripAccents removes combining diacritical marks, e.g. "Björk" -> "Bjork".
func stripAccents(s string) string {
	out, _, err := transform.String(stripMarks, s)
	if err != nil {
		return s
	}
	return out
}

// forComparison applies Artist's case-fold/accent-strip/disambiguation/
// comma-article steps; Title does not use it.
func forComparison(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	name = stripAccents(name)
	name = discogsDisambiguationRE.ReplaceAllString(name, "")
	name = libraryDisambiguationRE.ReplaceAllString(name, "")

	for _, article := range CommaArticles {
		suffix := ", " + article
		if strings.HasSuffix(name, suffix) {
			name = article + " " + name[:len(name)-len(suffix)]
			break
		}
	}
	return strings.TrimSpace(name)
}

// Artist normalizes an artist name: case-fold, strip combining marks,
// strip a Discogs "(n)" disambiguation suffix, strip a bracketed "[...]"
// library-side disambiguation suffix, flip the comma-article convention,
// fold "&" to "and", drop apostrophes, and collapse whitespace.
func Artist(name string) string {
	name = forComparison(name)
	name = ampersandRE.ReplaceAllString(name, " and ")
	name = apostropheReplacer.Replace(name)
	return strings.Join(strings.Fields(name), " ")
}

// Title normalizes a release/track title: case-fold, strip combining
// marks, then iteratively strip vinyl/format/edition suffixes until a
// fixed point is reached (so "Album 12\" (Reissue)" fully reduces).
func Title(title string) string {
	title = strings.ToLower(strings.TrimSpace(title))
	title = stripAccents(title)

	for {
		next := strings.TrimSpace(titleSuffixRE.ReplaceAllString(title, ""))
		if next == title {
			break
		}
		title = next
	}
	return title
}

// IsCompilationArtist reports whether name indicates a various-artists or
// soundtrack release via a case-insensitive substring match against
// CompilationKeywords.
func IsCompilationArtist(name string) bool {
	if name == "" {
		return false
	}
	lower := strings.ToLower(name)
	for _, kw := range CompilationKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// ExtractYear returns the first four characters of released iff it
// begins with four ASCII digits (rejecting full-width or other
// non-ASCII digit categories), else "", false.
func ExtractYear(released string) (string, bool) {
	if released == "" {
		return "", false
	}
	if !yearRE.MatchString(released) {
		return "", false
	}
	return released[:4], true
}
