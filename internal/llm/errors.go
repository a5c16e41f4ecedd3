package llm

import (
	"errors"
	"fmt"
)

// GenerationError reports a failed completion or image call. The raw
// underlying cause is preserved for operator diagnosis; the client never
// retries on its own.
type GenerationError struct {
	Op  string // "chat completion", "image generation"
	Err error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation: %s: %v", e.Op, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// IsGeneration reports whether err is (or wraps) a GenerationError.
func IsGeneration(err error) bool {
	var ge *GenerationError
	return errors.As(err, &ge)
}
