package normalize

import "testing"

func TestArtistCommaArticleConvention(t *testing.T) {
	got := Artist("Beatles, The")
	want := Artist("The Beatles")
	if got != want {
		t.Fatalf("Artist(%q) = %q, Artist(%q) = %q, want equal", "Beatles, The", got, "The Beatles", want)
	}
	if got != "the beatles" {
		t.Fatalf("Artist(%q) = %q, want %q", "Beatles, The", got, "the beatles")
	}
}

func TestArtistCommaArticleAllLanguages(t *testing.T) {
	for _, article := range CommaArticles {
		in := "Band, " + article
		out := Artist(in)
		want := article + " band"
		if out != want {
			t.Errorf("Artist(%q) = %q, want %q", in, out, want)
		}
	}
}

func TestArtistAccentStrip(t *testing.T) {
	if got := Artist("Björk"); got != "bjork" {
		t.Fatalf("Artist(Björk) = %q, want bjork", got)
	}
}

func TestArtistDiscogsDisambiguation(t *testing.T) {
	if got := Artist("Bjork (2)"); got != "bjork" {
		t.Fatalf("Artist(Bjork (2)) = %q, want bjork", got)
	}
}

func TestArtistLibraryDisambiguation(t *testing.T) {
	if got := Artist("Joy [NJ noise band]"); got != "joy" {
		t.Fatalf("Artist bracket strip = %q, want joy", got)
	}
}

func TestArtistAmpersandAndApostrophe(t *testing.T) {
	if got := Artist("Mary & The Ravens"); got != "mary and the ravens" {
		t.Fatalf("got %q", got)
	}
	if got := Artist("Guns N' Roses"); got != "guns n roses" {
		t.Fatalf("got %q", got)
	}
}

func TestTitleSuffixStripping(t *testing.T) {
	cases := map[string]string{
		`Album 12" (Reissue)`:      "album",
		"Album (2 CD Set)":         "album",
		"Album (Deluxe Edition)":   "album",
		"Album (3)":                "album",
		"Album (2lp)":              "album",
		"Plain Title":              "plain title",
	}
	for in, want := range cases {
		if got := Title(in); got != want {
			t.Errorf("Title(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestTitleNormalizeIdempotent(t *testing.T) {
	once := Title(`Album 12" (Reissue) (Deluxe Edition)`)
	twice := Title(once)
	if once != twice {
		t.Fatalf("Title not idempotent: %q -> %q", once, twice)
	}
}

func TestIsCompilationArtist(t *testing.T) {
	for _, name := range []string{"Various", "Various Artists", "Some Soundtrack", "V/A", "V.A.", "Compilation Series"} {
		if !IsCompilationArtist(name) {
			t.Errorf("IsCompilationArtist(%q) = false, want true", name)
		}
	}
	if IsCompilationArtist("Radiohead") {
		t.Fatalf("Radiohead misclassified as compilation")
	}
	if IsCompilationArtist("") {
		t.Fatalf("empty string misclassified as compilation")
	}
}

func TestExtractYear(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"2023-05-01", "2023", true},
		{"2023", "2023", true},
		{"Unknown", "", false},
		{"", "", false},
		{"２０２３", "", false}, // full-width digits rejected
	}
	for _, c := range cases {
		got, ok := ExtractYear(c.in)
		if got != c.want || ok != c.ok {
			t.Errorf("ExtractYear(%q) = (%q, %v), want (%q, %v)", c.in, got, ok, c.want, c.ok)
		}
	}
}

func TestExtractYearIdempotent(t *testing.T) {
	year, ok := ExtractYear("2023")
	if !ok {
		t.Fatal("expected ok")
	}
	year2, ok2 := ExtractYear(year)
	if !ok2 || year != year2 {
		t.Fatalf("ExtractYear not idempotent on 4-digit input: %q -> %q", year, year2)
	}
}
