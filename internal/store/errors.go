package store

import (
	"errors"
	"fmt"
)

// StorageError wraps a transient I/O failure from the underlying engine.
// It is propagated as-is; the store never retries internally.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// IsStorage reports whether err is (or wraps) a StorageError.
func IsStorage(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}

// storageErr wraps a driver error, passing nil through untouched.
func storageErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Op: op, Err: err}
}

// UnknownSettingError means a setting name has no entry in the defaults
// map. This is a configuration defect in the caller, not a user error.
type UnknownSettingError struct {
	Name string
}

func (e *UnknownSettingError) Error() string {
	return fmt.Sprintf("unknown setting %q: no default configured", e.Name)
}

// IsUnknownSetting reports whether err is (or wraps) an UnknownSettingError.
func IsUnknownSetting(err error) bool {
	var ue *UnknownSettingError
	return errors.As(err, &ue)
}
