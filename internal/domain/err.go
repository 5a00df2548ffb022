package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInsufficientFunds   = errors.New("insufficient funds")
	ErrPasswordMismatch    = errors.New("password mismatch")
	ErrDestinationNotFound = errors.New("withdraw address not found")
	ErrAccountNotFound     = errors.New("account not found")
	ErrWithdrawalNotFound  = errors.New("withdrawal not found")
	ErrIllegalTransition   = errors.New("illegal state transition")
	ErrStateChanged        = errors.New("state changed concurrently")
	ErrDuplicateTxID       = errors.New("duplicate tx_id")
	ErrTxIDAlreadySet      = errors.New("tx_id already set")
	ErrLockTimeout         = errors.New("lock timeout")
	ErrCacheUnavailable    = errors.New("cache unavailable")
	ErrInvalidField        = errors.New("invalid field")
	ErrChannelPolicy       = errors.New("channel policy violation")
)

// FieldError is one rule violated by a creation request.
type FieldError struct {
	Field   string      `json:"field"`
	Rule    string      `json:"rule"`
	Channel ChannelType `json:"channel,omitempty"`
	Err     error       `json:"-"`
}

func (f FieldError) Error() string {
	if f.Channel != "" {
		return fmt.Sprintf("%s: %s_%s", f.Field, f.Channel, f.Rule)
	}
	return fmt.Sprintf("%s: %s", f.Field, f.Rule)
}

// ValidationError carries every problem found while admitting a request.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Error())
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() []error {
	errs := make([]error, 0, len(e.Fields))
	for _, f := range e.Fields {
		if f.Err != nil {
			errs = append(errs, f.Err)
		}
	}
	return errs
}

func (e *ValidationError) Add(f FieldError) {
	e.Fields = append(e.Fields, f)
}

// Clear drops everything collected so far.
func (e *ValidationError) Clear() {
	e.Fields = nil
}

func (e *ValidationError) Empty() bool {
	return len(e.Fields) == 0
}

func (e *ValidationError) Has(field string) bool {
	for _, f := range e.Fields {
		if f.Field == field {
			return true
		}
	}
	return false
}

type ConflictError struct {
	WithdrawalID int64
	Err          error
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("withdrawal %d: %v", e.WithdrawalID, e.Err)
}

func (e *ConflictError) Unwrap() error { return e.Err }

type NotFoundError struct {
	Resource string
	ID       int64
	Err      error
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d: %v", e.Resource, e.ID, e.Err)
}

func (e *NotFoundError) Unwrap() error { return e.Err }

// TransientError marks failures the caller may retry with backoff.
type TransientError struct {
	Op  string
	Err error
}

func (e *TransientError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *TransientError) Unwrap() error { return e.Err }

func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

func IsConflict(err error) bool {
	var c *ConflictError
	return errors.As(err, &c)
}

func IsNotFound(err error) bool {
	var n *NotFoundError
	return errors.As(err, &n)
}

func IsTransient(err error) bool {
	var t *TransientError
	return errors.As(err, &t)
}
