package main

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/WXYC/discogs-cache/internal/classifier"
	"github.com/WXYC/discogs-cache/internal/config"
	"github.com/WXYC/discogs-cache/internal/dedup"
	"github.com/WXYC/discogs-cache/internal/importer"
	"github.com/WXYC/discogs-cache/internal/libraryindex"
	"github.com/WXYC/discogs-cache/internal/logctx"
	"github.com/WXYC/discogs-cache/internal/mappings"
	"github.com/WXYC/discogs-cache/internal/matching"
	"github.com/WXYC/discogs-cache/internal/pgstore"
	"github.com/WXYC/discogs-cache/internal/pipeline"
	"github.com/WXYC/discogs-cache/internal/pipelinestate"
	"github.com/WXYC/discogs-cache/internal/prune"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the cache build/dedup/classify/prune pipeline",
		RunE:  runPipeline,
	}

	flags := cmd.Flags()
	flags.String("input-source", "", "path to the Discogs bulk export directory")
	flags.String("database-url", "", "Postgres connection string for the working store")
	flags.String("library-catalog-path", "", "CSV of (artist,title) pairs to match against")
	flags.String("target-store-url", "", "Postgres connection string for a copy-to-target run")
	flags.String("mappings-path", "", "JSON file of pre-decided keep/prune artist overrides")
	flags.String("state-file-path", "pipeline_state.json", "resumable pipeline state file")
	flags.Bool("resume", false, "resume from state-file-path, inferring progress if absent")
	flags.String("log-level", "info", "debug, info, warn, or error")

	return cmd
}

func runPipeline(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	level := slog.LevelInfo
	if cfg.LogLevel == "debug" {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	ctx := logctx.With(cmd.Context(), logger)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	waitCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := pgstore.WaitForStore(waitCtx, cfg.DatabaseURL); err != nil {
		return err
	}

	pool, err := pgstore.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()
	store := pgstore.NewStore(pool)

	state, err := loadOrInferState(ctx, store, cfg)
	if err != nil {
		return err
	}

	o := &pipeline.Orchestrator{
		State:     state,
		StatePath: cfg.StateFilePath,
		Steps:     buildSteps(store, cfg, logger),
	}
	return o.Run(ctx)
}

func loadOrInferState(ctx context.Context, store *pgstore.Store, cfg *config.Config) (*pipelinestate.State, error) {
	if !cfg.Resume {
		return pipelinestate.New(cfg.DatabaseURL, cfg.InputSource), nil
	}

	state, err := pipelinestate.Load(cfg.StateFilePath)
	if err == nil {
		if cfg.InputSource == "" {
			cfg.InputSource = state.CSVDir
		}
		if err := state.ValidateResume(cfg.DatabaseURL, cfg.InputSource); err != nil {
			return nil, err
		}
		return state, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	return pipelinestate.Infer(ctx, pgstore.NewProber(store))
}

func buildSteps(store *pgstore.Store, cfg *config.Config, logger *slog.Logger) []pipeline.Step {
	hasLibrary := cfg.LibraryCatalog != ""
	copyToTarget := hasLibrary && cfg.TargetStoreURL != ""

	return []pipeline.Step{
		{Name: "create_schema", Run: func(ctx context.Context) error { return store.CreateSchema(ctx) }},
		{Name: "import_csv", Run: func(ctx context.Context) error { return runImportCSV(ctx, store, cfg) }},
		{Name: "create_indexes", Run: func(ctx context.Context) error { return store.CreateIndexes(ctx) }},
		{Name: "dedup", Run: func(ctx context.Context) error { return runDedup(ctx, store) }},
		{Name: "import_tracks", Run: func(ctx context.Context) error { return runImportTracks(ctx, store, cfg) }},
		{Name: "create_track_indexes", Run: func(ctx context.Context) error { return store.CreateTrackIndexes(ctx) }},
		{
			Name: "prune",
			Run:  func(ctx context.Context) error { return runPrune(ctx, store, cfg, logger, copyToTarget) },
			Skip: func() bool { return !hasLibrary },
		},
		{
			Name: "vacuum",
			Run:  func(ctx context.Context) error { return runVacuum(ctx, store) },
		},
	}
}

// runImportCSV covers everything the orchestrator's import_csv step
// does: the base release tables, the artwork merge, the cache_metadata
// seed, and the track-count side table built straight from the tracks
// file (tracks themselves are not bulk-loaded until after dedup).
func runImportCSV(ctx context.Context, store *pgstore.Store, cfg *config.Config) error {
	// "released", a free-form Discogs date string, maps onto the "year"
	// store column through ExtractYear; the raw date text itself is not
	// retained, matching the upstream release_year projection.
	if err := importTable(ctx, store, cfg, importer.Spec{
		Table:        "release",
		InputColumns: []string{"release_id", "title", "released", "master_id", "country", "format"},
		StoreColumns: []string{"id", "title", "year", "master_id", "country", "format"},
		Required:     map[string]struct{}{"id": {}, "title": {}},
		Transforms:   map[string]importer.Transform{"released": importer.ExtractYear},
	}, "release.csv"); err != nil {
		return err
	}

	if err := importTable(ctx, store, cfg, importer.Spec{
		Table:         "release_artist",
		InputColumns:  []string{"release_id", "artist_name", "extra"},
		StoreColumns:  []string{"release_id", "artist", "extra"},
		Required:      map[string]struct{}{"release_id": {}},
		UniquenessKey: []string{"release_id", "artist"},
	}, "release_artist.csv"); err != nil {
		return err
	}

	if err := importTable(ctx, store, cfg, importer.Spec{
		Table:        "release_label",
		InputColumns: []string{"release_id", "label", "catno"},
		StoreColumns: []string{"release_id", "label", "catno"},
		Required:     map[string]struct{}{"release_id": {}, "label": {}},
	}, "release_label.csv"); err != nil {
		return err
	}

	if err := runApplyArtwork(ctx, store, cfg); err != nil {
		return err
	}

	if err := store.SeedCacheMetadata(ctx); err != nil {
		return err
	}

	return runSeedTrackCount(ctx, store, cfg)
}

func importTable(ctx context.Context, store *pgstore.Store, cfg *config.Config, spec importer.Spec, file string) error {
	f, err := os.Open(cfg.InputSource + "/" + file)
	if err != nil {
		return fmt.Errorf("run: open %s: %w", file, err)
	}
	defer f.Close()

	_, err = importer.Import(ctx, store, f, spec)
	return err
}

func runApplyArtwork(ctx context.Context, store *pgstore.Store, cfg *config.Config) error {
	f, err := os.Open(cfg.InputSource + "/release_image.csv")
	if err != nil {
		return fmt.Errorf("run: open release_image csv: %w", err)
	}
	defer f.Close()

	_, err = importer.ApplyArtwork(ctx, store, f)
	return err
}

func runSeedTrackCount(ctx context.Context, store *pgstore.Store, cfg *config.Config) error {
	f, err := os.Open(cfg.InputSource + "/release_track.csv")
	if err != nil {
		return fmt.Errorf("run: open tracks csv for track-count seed: %w", err)
	}
	defer f.Close()

	counts, err := importer.TrackCount(f, "release_id")
	if err != nil {
		return err
	}
	return store.SeedTrackCount(ctx, counts)
}

func runImportTracks(ctx context.Context, store *pgstore.Store, cfg *config.Config) error {
	if err := importTable(ctx, store, cfg, importer.Spec{
		Table:        "release_track",
		InputColumns: []string{"release_id", "position", "title"},
		StoreColumns: []string{"release_id", "position", "title"},
		Required:     map[string]struct{}{"release_id": {}, "title": {}},
	}, "release_track.csv"); err != nil {
		return err
	}

	return importTable(ctx, store, cfg, importer.Spec{
		Table:         "release_track_artist",
		InputColumns:  []string{"release_id", "track_sequence", "artist_name"},
		StoreColumns:  []string{"release_id", "track_position", "artist"},
		Required:      map[string]struct{}{"release_id": {}, "artist": {}},
		UniquenessKey: []string{"release_id", "track_position", "artist"},
	}, "release_track_artist.csv")
}

func runDedup(ctx context.Context, store *pgstore.Store) error {
	candidates, err := store.DedupCandidates(ctx)
	if err != nil {
		return err
	}
	discard := dedup.ComputeDiscardSet(candidates)
	executor := dedup.NewExecutor(store.ExecFunc())
	if err := executor.Run(ctx, discard); err != nil {
		return err
	}
	return store.DropTrackCountTable(ctx)
}

func runPrune(ctx context.Context, store *pgstore.Store, cfg *config.Config, logger *slog.Logger, copyToTarget bool) error {
	f, err := os.Open(cfg.LibraryCatalog)
	if err != nil {
		return fmt.Errorf("run: open library catalog: %w", err)
	}
	defer f.Close()

	pairs, err := readLibraryPairs(f)
	if err != nil {
		return err
	}
	idx := libraryindex.FromRows(pairs)

	artistMappings, err := mappings.Load(cfg.MappingsPath)
	if err != nil {
		return err
	}

	releases, err := store.AllReleases(ctx)
	if err != nil {
		return err
	}

	matcher := matching.New(idx, artistMappings, matching.DefaultThresholds())
	pipe := classifier.New(idx, matcher, logger)
	report := pipe.Classify(releases)

	if copyToTarget {
		keepIDs := prune.KeepAndReviewIDs(report.Keep, report.Review)
		target, err := pgstore.Open(ctx, cfg.TargetStoreURL)
		if err != nil {
			return err
		}
		defer target.Close()
		targetStore := pgstore.NewStore(target)
		copier := &prune.CopyToTarget{
			CreateTargetSchema:  func(ctx context.Context) error { return targetStore.CreateSchema(ctx) },
			CreateTargetIndexes: func(ctx context.Context) error { return targetStore.CreateIndexes(ctx) },
			StreamEntity: func(ctx context.Context, spec prune.EntitySpec, ids []int64) (int64, error) {
				return store.StreamEntityTo(ctx, targetStore, spec, ids)
			},
		}
		_, err = copier.Run(ctx, keepIDs)
		return err
	}

	pruneIDs := make([]int64, 0, len(report.Prune))
	for id := range report.Prune {
		pruneIDs = append(pruneIDs, id)
	}
	_, err = prune.InPlace(ctx, store.ExecFunc(), pruneIDs)
	return err
}

func runVacuum(ctx context.Context, store *pgstore.Store) error {
	return store.Vacuum(ctx)
}

func readLibraryPairs(r io.Reader) ([]libraryindex.Pair, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("run: read library catalog header: %w", err)
	}
	artistIdx, titleIdx := -1, -1
	for i, h := range header {
		switch h {
		case "artist_name", "artist":
			artistIdx = i
		case "release_title", "title":
			titleIdx = i
		}
	}
	if artistIdx < 0 || titleIdx < 0 {
		return nil, fmt.Errorf("run: library catalog missing artist/title columns")
	}

	var pairs []libraryindex.Pair
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("run: read library catalog row: %w", err)
		}
		pairs = append(pairs, libraryindex.Pair{Artist: record[artistIdx], Title: record[titleIdx]})
	}
	return pairs, nil
}
