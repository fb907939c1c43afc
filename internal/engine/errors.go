package engine

import "errors"

// Error kinds detectable before the backend is invoked. Conditions the
// backend itself can report (infeasible, timeout, unknown) are never
// errors; they are normalized into terminal result statuses.
var (
	// ErrValidation marks dangling entity references or structurally
	// impossible requirements caught before model construction.
	ErrValidation = errors.New("validation error")

	// ErrEmptyModel means no decision variable could be created at all:
	// every requirement lacked a feasible instructor/room pairing.
	ErrEmptyModel = errors.New("empty model")

	// ErrBackend marks a failure of the solving backend itself or an
	// unrecognized backend status.
	ErrBackend = errors.New("backend error")
)
