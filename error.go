package main

import "fmt"

// newUserErrorf is a user-facing error.
// this function is mostly to avoid linters complain about errors starting with a capitalized letter.
func newUserErrorf(format string, a ...any) error {
	return fmt.Errorf(format, a...)
}

// clawError is a wrapper around an error that adds additional context.
type clawError struct {
	err    error
	reason string
}

func (m clawError) Error() string {
	return m.err.Error()
}

func (m clawError) Reason() string {
	return m.reason
}

func (m clawError) Unwrap() error {
	return m.err
}
