package models

import "errors"

// ValidationError reports input rejected at a boundary: an unknown role,
// a malformed settings command, an out-of-range setting value. Nothing is
// written when one is returned.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation: " + e.Reason
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
