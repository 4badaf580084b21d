package triage

import (
	"errors"
	"fmt"
)

var (
	ErrValidation      = errors.New("invalid report")
	ErrNotFound        = errors.New("report not found")
	ErrUnauthenticated = errors.New("authentication required")
	ErrUnauthorized    = errors.New("admin access required")
	ErrInternal        = errors.New("internal error")
)

// StorageError wraps a failed persistence operation. It matches ErrInternal
// so callers can map it without knowing the storage backend.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func (e *StorageError) Is(target error) bool {
	return target == ErrInternal
}

func storageErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Op: op, Err: err}
}
