package services

import "errors"

var (
	ErrMissingParameters = errors.New("missing required parameters")
	ErrInvalidWeekStart  = errors.New("week start must be a Thursday formatted YYYY-MM-DD")
	ErrNotFound          = errors.New("not found")
	ErrDuplicateName     = errors.New("duplicate character name")
	ErrMissingFields     = errors.New("missing required fields")
	ErrNoneMatched       = errors.New("no matching items")
	ErrConflict          = errors.New("record changed since it was read")
	ErrStoreFailure      = errors.New("store failure")
)

// StoreError is a failure reported by the persistence layer. It matches both
// ErrStoreFailure and the underlying error.
type StoreError struct {
	Op  string
	Err error
}

func (err *StoreError) Error() string {
	return err.Op + ": " + err.Err.Error()
}

func (err *StoreError) Unwrap() []error {
	return []error{ErrStoreFailure, err.Err}
}

func storeError(op string, err error) error {
	return &StoreError{Op: op, Err: err}
}
