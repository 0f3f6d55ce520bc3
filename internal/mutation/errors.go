package mutation

import "github.com/cockroachdb/errors"

// ErrInvariantViolation marks records that would reference a node the
// consumer cannot know about when applied in order.
var ErrInvariantViolation = errors.New("mutation invariant violation")

func invariantViolationf(format string, args ...interface{}) error {
	return errors.Mark(errors.AssertionFailedf(format, args...), ErrInvariantViolation)
}

// IsInvariantViolation reports whether err is an emission protocol
// violation.
func IsInvariantViolation(err error) bool {
	return errors.Is(err, ErrInvariantViolation)
}
