package storecache

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfig indicates an invalid configuration
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrStorageCorrupted indicates a backing file that could not be decoded
	ErrStorageCorrupted = errors.New("storage corrupted")
)

// StorageError wraps backing store errors
type StorageError struct {
	Op   string // Operation being performed
	Path string // File path, bucket or key if applicable
	Err  error  // Underlying error
}

func (e *StorageError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("storage error during %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("storage error during %s on %s: %v", e.Op, e.Path, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// WrapStorageError wraps an error with storage context
func WrapStorageError(op string, path string, err error) error {
	return &StorageError{
		Op:   op,
		Path: path,
		Err:  err,
	}
}
