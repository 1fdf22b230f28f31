// Package mappings loads and saves the artist_mappings.json file that
// holds pre-decided KEEP/PRUNE overrides for artists the fuzzy matcher
// would otherwise need to score. Keys are normalized artist names.
package mappings

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/WXYC/discogs-cache/internal/matching"
	"github.com/WXYC/discogs-cache/internal/normalize"
)

// fileFormat mirrors spec.md §6: {"keep": {norm_artist: display|null},
// "prune": {norm_artist: null}}.
type fileFormat struct {
	Keep  map[string]*string `json:"keep"`
	Prune map[string]*string `json:"prune"`
}

// Load reads a mappings file and returns it as a matching.Mappings,
// ready to hand to a Matcher. A missing file is not an error: it
// returns empty mappings, matching the "pre-decided classifications are
// optional" framing in spec.md §6.
func Load(path string) (matching.Mappings, error) {
	empty := matching.Mappings{Keep: map[string]struct{}{}, Prune: map[string]struct{}{}}

	if path == "" {
		return empty, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return empty, nil
		}
		return matching.Mappings{}, fmt.Errorf("mappings: read %s: %w", path, err)
	}

	var doc fileFormat
	if err := json.Unmarshal(data, &doc); err != nil {
		return matching.Mappings{}, fmt.Errorf("mappings: parse %s: %w", path, err)
	}

	result := matching.Mappings{
		Keep:  make(map[string]struct{}, len(doc.Keep)),
		Prune: make(map[string]struct{}, len(doc.Prune)),
	}
	for artist := range doc.Keep {
		result.Keep[normalize.Artist(artist)] = struct{}{}
	}
	for artist := range doc.Prune {
		result.Prune[normalize.Artist(artist)] = struct{}{}
	}
	return result, nil
}

// Save writes keep/prune decisions to path as the mappings JSON format.
// display, when non-empty for a keep entry, is preserved as the
// human-readable library artist name; prune entries are always null.
func Save(path string, keep map[string]string, prune map[string]struct{}) error {
	doc := fileFormat{
		Keep:  make(map[string]*string, len(keep)),
		Prune: make(map[string]*string, len(prune)),
	}
	for artist, display := range keep {
		if display == "" {
			doc.Keep[artist] = nil
			continue
		}
		d := display
		doc.Keep[artist] = &d
	}
	for artist := range prune {
		doc.Prune[artist] = nil
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("mappings: marshal: %w", err)
	}
	data = append(data, '\n')

	return os.WriteFile(path, data, 0o644)
}
