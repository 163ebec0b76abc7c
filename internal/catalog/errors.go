package catalog

import (
	"errors"
	"fmt"
)

var (
	// ErrNotReady is returned by mutations issued before the first successful Load.
	ErrNotReady = errors.New("sports catalog not loaded")
	// ErrNotFound matches every *NotFoundError.
	ErrNotFound = errors.New("sport not found")
	// ErrDuplicateName matches every *DuplicateError.
	ErrDuplicateName = errors.New("duplicate sport name")
	// ErrMalformed is wrapped by decode failures of the persisted blob.
	ErrMalformed = errors.New("malformed sports blob")
)

// Persistence operations reported by PersistenceError.
const (
	OpRead   = "read"
	OpWrite  = "write"
	OpDecode = "decode"
	OpEncode = "encode"
)

// NotFoundError indicates a mutation named a sport that does not exist.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("sport %q not found", e.Name)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// DuplicateError indicates a mutation would leave two sports with the same name.
type DuplicateError struct {
	Name string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("sport %q already exists", e.Name)
}

func (e *DuplicateError) Is(target error) bool { return target == ErrDuplicateName }

// ValidationError indicates a sport failed validation.
type ValidationError struct {
	Field   string // the field that failed validation
	Message string // what went wrong
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
	}
	return e.Message
}

// PersistenceError wraps a failure of the backing key-value store or of the
// blob codec. In-memory state is never changed when one is returned.
type PersistenceError struct {
	Op  string // one of OpRead, OpWrite, OpDecode, OpEncode
	Key string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("sports %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// IsPersistence reports whether err came from the storage layer.
func IsPersistence(err error) bool {
	var pe *PersistenceError
	return errors.As(err, &pe)
}
