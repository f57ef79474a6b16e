package emailer

import (
	"errors"
	"fmt"
)

var ErrNotConfigured = errors.New("smtp credentials or sender address are not set")

// MailError wraps transport and protocol failures of the outbound relay.
type MailError struct {
	Op  string
	Err error
}

func NewMailError(op string, err error) *MailError {
	return &MailError{Op: op, Err: err}
}

func (e *MailError) Error() string {
	return fmt.Sprintf("mail sender: %s: %v", e.Op, e.Err)
}

func (e *MailError) Unwrap() error {
	return e.Err
}
