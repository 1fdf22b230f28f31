package config

import "testing"

func TestValidateRequiresDatabaseURL(t *testing.T) {
	c := &Config{InputSource: "discogs.csv"}
	if err := c.Validate(); err != ErrMissingDatabaseURL {
		t.Fatalf("expected ErrMissingDatabaseURL, got %v", err)
	}
}

func TestValidateRequiresInputSourceUnlessResuming(t *testing.T) {
	c := &Config{DatabaseURL: "postgres://x"}
	if err := c.Validate(); err != ErrMissingInputSource {
		t.Fatalf("expected ErrMissingInputSource, got %v", err)
	}

	c.Resume = true
	if err := c.Validate(); err != nil {
		t.Fatalf("resume should skip the input-source requirement, got %v", err)
	}
}

func TestValidateTargetRequiresLibrary(t *testing.T) {
	c := &Config{DatabaseURL: "postgres://x", InputSource: "discogs.csv", TargetStoreURL: "postgres://y"}
	if err := c.Validate(); err != ErrTargetWithoutLibrary {
		t.Fatalf("expected ErrTargetWithoutLibrary, got %v", err)
	}

	c.LibraryCatalog = "library.csv"
	if err := c.Validate(); err != nil {
		t.Fatalf("target with library should validate, got %v", err)
	}
}

func TestValidateAcceptsMinimalConfig(t *testing.T) {
	c := &Config{DatabaseURL: "postgres://x", InputSource: "discogs.csv"}
	if err := c.Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
}
