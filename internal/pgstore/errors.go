package pgstore

import "errors"

// Sentinel errors wrapped with operation context via fmt.Errorf("%s: %w", ...),
// mirroring the teacher's wrapDBError convention.
var (
	// ErrStoreUnreachable means the wait-for-store loop never observed
	// a successful connection within its deadline.
	ErrStoreUnreachable = errors.New("pgstore: store unreachable")

	// ErrRequiredFieldNull means a row was skipped because a required
	// column was null after transforms.
	ErrRequiredFieldNull = errors.New("pgstore: required field null")

	// ErrFiltered means a row was skipped because its release id was
	// absent, non-integer, or outside the configured filter set.
	ErrFiltered = errors.New("pgstore: row filtered by release id")
)
