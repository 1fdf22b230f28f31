// Package pipelinestate tracks per-step completion status across
// resumable pipeline runs, persisting to a schema-versioned JSON state
// file written atomically (temp file + rename).
package pipelinestate

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Version is the current state file schema version this build writes
// and reads natively. Lower versions are migrated forward on Load.
const Version = 2

// Status is a step's completion state.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// StepNames lists every v2 step in pipeline order.
var StepNames = []string{
	"create_schema",
	"import_csv",
	"create_indexes",
	"dedup",
	"import_tracks",
	"create_track_indexes",
	"prune",
	"vacuum",
}

// v1StepNames lists the steps a v1 state file could contain.
var v1StepNames = []string{"create_schema", "import_csv", "create_indexes", "dedup", "prune", "vacuum"}

// ErrUnknownStep is returned when a caller references a step name the
// current schema version doesn't recognize.
var ErrUnknownStep = errors.New("pipelinestate: unknown step name")

// ErrUnsupportedVersion is returned by Load when the state file's
// version is neither the current version nor one that migrates forward
// to it.
var ErrUnsupportedVersion = errors.New("pipelinestate: unsupported state file version")

// ErrResumeMismatch is returned by ValidateResume when the loaded
// state's store URL or input directory disagree with the current run's
// configuration.
var ErrResumeMismatch = errors.New("pipelinestate: resume configuration mismatch")

// stepRecord is the on-disk representation of a single step's status.
type stepRecord struct {
	Status Status `json:"status"`
	Error  string `json:"error,omitempty"`
}

// State is an in-memory, mutable pipeline state. Use New to create a
// fresh state for a run, or Load to resume from a prior run's file.
type State struct {
	DatabaseURL string
	CSVDir      string
	steps       map[string]stepRecord
}

// New returns a fresh State with every v2 step pending.
func New(databaseURL, csvDir string) *State {
	s := &State{DatabaseURL: databaseURL, CSVDir: csvDir, steps: make(map[string]stepRecord, len(StepNames))}
	for _, name := range StepNames {
		s.steps[name] = stepRecord{Status: StatusPending}
	}
	return s
}

// IsCompleted reports whether step has status "completed".
func (s *State) IsCompleted(step string) bool {
	rec, ok := s.steps[step]
	return ok && rec.Status == StatusCompleted
}

// MarkCompleted sets step's status to "completed", clearing any error.
func (s *State) MarkCompleted(step string) error {
	if _, ok := s.steps[step]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownStep, step)
	}
	s.steps[step] = stepRecord{Status: StatusCompleted}
	return nil
}

// MarkFailed sets step's status to "failed" with the given error text.
func (s *State) MarkFailed(step string, errText string) error {
	if _, ok := s.steps[step]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownStep, step)
	}
	s.steps[step] = stepRecord{Status: StatusFailed, Error: errText}
	return nil
}

// StepStatus returns step's current status.
func (s *State) StepStatus(step string) (Status, error) {
	rec, ok := s.steps[step]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownStep, step)
	}
	return rec.Status, nil
}

// StepError returns the recorded error text for a failed step, or "" if
// the step never failed.
func (s *State) StepError(step string) string {
	return s.steps[step].Error
}

// ValidateResume returns ErrResumeMismatch if databaseURL or csvDir
// differ from the values this state was created with.
func (s *State) ValidateResume(databaseURL, csvDir string) error {
	if s.DatabaseURL != databaseURL {
		return fmt.Errorf("%w: database_url has %q, got %q", ErrResumeMismatch, s.DatabaseURL, databaseURL)
	}
	if s.CSVDir != csvDir {
		return fmt.Errorf("%w: csv_dir has %q, got %q", ErrResumeMismatch, s.CSVDir, csvDir)
	}
	return nil
}

// fileFormat is the JSON document persisted to disk.
type fileFormat struct {
	Version     int                   `json:"version"`
	DatabaseURL string                `json:"database_url"`
	CSVDir      string                `json:"csv_dir"`
	Steps       map[string]stepRecord `json:"steps"`
}

// Save writes the state to path atomically: it writes to
// "<path>.tmp" first, then renames over path, so a reader never
// observes a partially-written file and no temp file lingers on
// success.
func (s *State) Save(path string) error {
	doc := fileFormat{
		Version:     Version,
		DatabaseURL: s.DatabaseURL,
		CSVDir:      s.CSVDir,
		Steps:       s.steps,
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("pipelinestate: marshal state: %w", err)
	}
	data = append(data, '\n')

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("pipelinestate: write temp state file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("pipelinestate: rename temp state file: %w", err)
	}
	return nil
}

// Load reads state from path, migrating forward from v1 if needed.
func Load(path string) (*State, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("pipelinestate: read state file: %w", err)
	}

	var raw struct {
		Version     int                   `json:"version"`
		DatabaseURL string                `json:"database_url"`
		CSVDir      string                `json:"csv_dir"`
		Steps       map[string]stepRecord `json:"steps"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("pipelinestate: parse state file: %w", err)
	}

	switch raw.Version {
	case Version:
		state := New(raw.DatabaseURL, raw.CSVDir)
		for name, rec := range raw.Steps {
			if _, known := state.steps[name]; known {
				state.steps[name] = rec
			}
		}
		return state, nil
	case 1:
		return migrateV1(raw.DatabaseURL, raw.CSVDir, raw.Steps), nil
	default:
		return nil, fmt.Errorf("%w: got version %d, expected %d", ErrUnsupportedVersion, raw.Version, Version)
	}
}

// migrateV1 applies the v1->v2 migration: v1's atomic "import_csv" and
// "create_indexes"/"dedup" steps are split into base-and-track halves,
// so completion of the v1 step implies completion of the new v2 step
// that covers the track-side work the v1 step used to do inline.
func migrateV1(databaseURL, csvDir string, v1Steps map[string]stepRecord) *State {
	state := New(databaseURL, csvDir)

	for _, name := range v1StepNames {
		if rec, ok := v1Steps[name]; ok {
			state.steps[name] = rec
		}
	}

	if v1Steps["import_csv"].Status == StatusCompleted {
		state.steps["import_tracks"] = stepRecord{Status: StatusCompleted}
	}

	if v1Steps["dedup"].Status == StatusCompleted {
		state.steps["create_track_indexes"] = stepRecord{Status: StatusCompleted}
	} else if v1Steps["create_indexes"].Status == StatusCompleted {
		state.steps["create_track_indexes"] = stepRecord{Status: StatusCompleted}
	}

	return state
}
