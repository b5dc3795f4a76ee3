package deletion

import (
	"errors"
)

var (
	// ErrNoEditableRange means no part of the selection lies in editable
	// content; nothing was mutated.
	ErrNoEditableRange = errors.New("no editable range in selection")

	// ErrUnexpectedTreeState means an invariant was broken out from under the
	// engine, typically by a mutation observer. Partial mutations already
	// committed stay committed; the operation stops.
	ErrUnexpectedTreeState = errors.New("unexpected tree state")

	// ErrEditorDestroyed means the document was torn down mid-operation.
	// The engine aborts immediately and attempts no further mutation.
	ErrEditorDestroyed = errors.New("editor destroyed")

	// ErrInvalidArgument means the caller passed a malformed direction or
	// selection; nothing was mutated.
	ErrInvalidArgument = errors.New("invalid argument")
)
