package manager

import (
	"errors"
	"fmt"
)

// UnknownExpertError reports an expert id that is absent or disabled in the catalog.
type UnknownExpertError struct{ ID string }

func (e UnknownExpertError) Error() string { return fmt.Sprintf("expert %q not found", e.ID) }

// IsUnknownExpert reports whether err indicates a missing or disabled expert id.
func IsUnknownExpert(err error) bool {
	var u UnknownExpertError
	return errors.As(err, &u)
}

// LoadError wraps a runtime failure while loading an expert. The previously
// resident expert has already been evicted when this is returned.
type LoadError struct {
	ID  string
	Err error
}

func (e *LoadError) Error() string { return fmt.Sprintf("load expert %q: %v", e.ID, e.Err) }

func (e *LoadError) Unwrap() error { return e.Err }

// tooBusyError signals queue timeout/overflow or a drain that did not finish.
type tooBusyError struct {
	id     string
	reason string
}

func (e tooBusyError) Error() string { return "too busy (" + e.reason + "): " + e.id }

// IsTooBusy reports whether err indicates backpressure (return 429).
func IsTooBusy(err error) bool {
	var b tooBusyError
	return errors.As(err, &b)
}
