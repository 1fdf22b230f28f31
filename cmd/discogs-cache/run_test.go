package main

import (
	"strings"
	"testing"
)

func TestRunCmdDeclaresInvocationContractFlags(t *testing.T) {
	cmd := newRunCmd()
	for _, name := range []string{
		"input-source", "database-url", "library-catalog-path",
		"target-store-url", "mappings-path", "state-file-path", "resume", "log-level",
	} {
		if cmd.Flags().Lookup(name) == nil {
			t.Fatalf("expected run command to declare --%s", name)
		}
	}
}

func TestRootCmdHasRunSubcommand(t *testing.T) {
	root := newRootCmd()
	found := false
	for _, c := range root.Commands() {
		if c.Name() == "run" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected root command to register the run subcommand")
	}
}

func TestReadLibraryPairsRejectsMissingColumns(t *testing.T) {
	_, err := readLibraryPairs(strings.NewReader("a,b\n1,2\n"))
	if err == nil {
		t.Fatalf("expected error when artist/title columns are absent")
	}
}

func TestReadLibraryPairsParsesRows(t *testing.T) {
	pairs, err := readLibraryPairs(strings.NewReader("artist_name,release_title\nRadiohead,OK Computer\n"))
	if err != nil {
		t.Fatalf("readLibraryPairs: %v", err)
	}
	if len(pairs) != 1 || pairs[0].Artist != "Radiohead" || pairs[0].Title != "OK Computer" {
		t.Fatalf("unexpected pairs: %+v", pairs)
	}
}
