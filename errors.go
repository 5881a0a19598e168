package h5obj

import (
	"errors"
	"fmt"
)

// Error taxonomy of the layer. Every failure surfaced through the error
// channel wraps exactly one of these sentinels, so callers discriminate with
// errors.Is. The bool-out attribute readers never surface errors at all; they
// return a sentinel value and a success flag instead.
var (
	// ErrEmptyArgument reports an empty filename, path, or attribute name.
	ErrEmptyArgument = errors.New("h5obj: empty argument")

	// ErrEngineFailure reports a negative status or non-positive identifier
	// returned by the storage engine.
	ErrEngineFailure = errors.New("h5obj: storage engine failure")

	// ErrClosedObject reports an operation on a handle whose identifier is
	// no longer valid.
	ErrClosedObject = errors.New("h5obj: object is closed")

	// ErrRankMismatch reports a dimensionality conflict, such as a cube read
	// against a dataset that is not rank 3.
	ErrRankMismatch = errors.New("h5obj: rank mismatch")

	// ErrNotFound reports a child path or attribute name that resolves to
	// nothing on open.
	ErrNotFound = errors.New("h5obj: object not found")
)

func wrapf(sentinel error, format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{sentinel}, args...)...)
}
