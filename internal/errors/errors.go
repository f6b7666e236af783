// Package errors defines the orchestrator's error taxonomy as sentinel
// values so callers can classify failures with errors.Is instead of
// string matching.
package errors

import (
	"errors"
	"fmt"
)

// Kind identifies which taxonomy entry a wrapped error belongs to.
var (
	ErrUnknownTemplate   = errors.New("UNKNOWN_TEMPLATE")
	ErrInvalidTemplate   = errors.New("INVALID_TEMPLATE")
	ErrCyclicTemplate    = errors.New("CYCLIC_TEMPLATE")
	ErrAmbiguousRef      = errors.New("AMBIGUOUS_REFERENCE")
	ErrDanglingRef       = errors.New("DANGLING_REFERENCE")
	ErrIDCollision       = errors.New("ID_COLLISION")
	ErrUnknownTask       = errors.New("UNKNOWN_TASK")
	ErrUnknownScenario   = errors.New("UNKNOWN_SCENARIO")
	ErrInvalidTransition = errors.New("INVALID_TRANSITION")
	ErrStoreUnavailable  = errors.New("STORE_UNAVAILABLE")
)

// Wrap annotates err with a human-readable message while keeping it
// matchable against the sentinel via errors.Is.
func Wrap(sentinel error, msg string) error {
	return fmt.Errorf("%w: %s", sentinel, msg)
}
