package snapmut

import (
	"errors"
	"fmt"
)

// ErrMissingKey reports that the key extractor produced no identifier for
// the item handed to Update or Delete. This is a configuration bug (wrong
// KeyOf, or an item shape the extractor does not understand), so it
// propagates to the caller instead of silently matching nothing.
var ErrMissingKey = errors.New("snapmut: item key missing")

// FallbackError is returned when a mutation's store write failed AND the
// fallback invalidate failed too, leaving the entry possibly stale. Both
// underlying errors are available via errors.Is / errors.As.
type FallbackError struct {
	Key           string
	Verb          Verb
	WriteErr      error
	InvalidateErr error
}

func (e *FallbackError) Error() string {
	switch {
	case e.WriteErr != nil && e.InvalidateErr != nil:
		return fmt.Sprintf("%s %q failed: write and fallback invalidate failed: write=%v; invalidate=%v",
			e.Verb, e.Key, e.WriteErr, e.InvalidateErr)
	case e.WriteErr != nil:
		return fmt.Sprintf("%s %q: write failed: %v", e.Verb, e.Key, e.WriteErr)
	case e.InvalidateErr != nil:
		return fmt.Sprintf("%s %q: invalidate failed: %v", e.Verb, e.Key, e.InvalidateErr)
	default:
		return fmt.Sprintf("%s %q: unknown error", e.Verb, e.Key)
	}
}

func (e *FallbackError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.WriteErr != nil {
		errs = append(errs, e.WriteErr)
	}
	if e.InvalidateErr != nil {
		errs = append(errs, e.InvalidateErr)
	}
	return errs
}
