package model

import "github.com/cockroachdb/errors"

// ErrContractViolation marks errors caused by input that breaks the node
// supplier contract, such as a duplicate id in one snapshot.
var ErrContractViolation = errors.New("contract violation")

func contractViolationf(format string, args ...interface{}) error {
	return errors.Mark(errors.Newf(format, args...), ErrContractViolation)
}

// IsContractViolation reports whether err was caused by malformed input.
func IsContractViolation(err error) bool {
	return errors.Is(err, ErrContractViolation)
}
