package utils

import "fmt"

// OpError is a contextual error: an operation description plus its cause.
type OpError struct {
	Context string
	Cause   error
}

// Error implements the error interface.
func (e *OpError) Error() string {
	return fmt.Sprintf("%s: %v", e.Context, e.Cause)
}

// Unwrap provides compatibility with errors.Unwrap().
func (e *OpError) Unwrap() error {
	return e.Cause
}

// WrapError creates a contextual error. A nil cause yields nil.
func WrapError(context string, cause error) error {
	if cause == nil {
		return nil
	}
	return &OpError{
		Context: context,
		Cause:   cause,
	}
}
