// Package errx provides sentinel-based error wrapping.
//
// Packages declare sentinel errors in their errors.go and wrap underlying
// causes with Wrap, so callers can match with errors.Is against the sentinel
// while the cause stays visible in the message and unwrap chain.
package errx

import "fmt"

// Wrap attaches cause to sentinel. Both remain matchable with errors.Is.
// A nil cause returns the sentinel unchanged.
func Wrap(sentinel, cause error) error {
	if cause == nil {
		return sentinel
	}
	return fmt.Errorf("%w: %w", sentinel, cause)
}

// Wrapf is Wrap with additional formatted context between sentinel and cause.
func Wrapf(sentinel, cause error, format string, args ...interface{}) error {
	detail := fmt.Sprintf(format, args...)
	if cause == nil {
		return fmt.Errorf("%w: %s", sentinel, detail)
	}
	return fmt.Errorf("%w: %s: %w", sentinel, detail, cause)
}
