package repository

import (
	"errors"
	"fmt"
)

var ErrNotFound = errors.New("subscriber not found")

// StoreError wraps connectivity and constraint failures of the subscriber store.
type StoreError struct {
	Op  string
	Err error
}

func NewStoreError(op string, err error) *StoreError {
	return &StoreError{Op: op, Err: err}
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("subscriber store: %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}
