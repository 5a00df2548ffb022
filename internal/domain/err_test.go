package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidationError_UnwrapsEveryField(t *testing.T) {
	verr := &ValidationError{}
	verr.Add(FieldError{Field: "sum", Rule: "too_low", Channel: ChannelBank, Err: ErrChannelPolicy})
	verr.Add(FieldError{Field: "sum", Rule: "insufficient_funds", Err: ErrInsufficientFunds})

	var err error = fmt.Errorf("create: %w", verr)

	assert.ErrorIs(t, err, ErrChannelPolicy)
	assert.ErrorIs(t, err, ErrInsufficientFunds)
	assert.NotErrorIs(t, err, ErrPasswordMismatch)
	assert.True(t, IsValidation(err))
	assert.Contains(t, verr.Error(), "sum: bank_too_low")
}

func TestValidationError_Clear(t *testing.T) {
	verr := &ValidationError{}
	verr.Add(FieldError{Field: "sum", Rule: "too_low"})
	verr.Clear()
	verr.Add(FieldError{Field: "password", Rule: "mismatch", Err: ErrPasswordMismatch})

	assert.Len(t, verr.Fields, 1)
	assert.True(t, verr.Has("password"))
	assert.False(t, verr.Has("sum"))
}

func TestErrorKinds(t *testing.T) {
	conflict := &ConflictError{WithdrawalID: 1, Err: ErrDuplicateTxID}
	notFound := &NotFoundError{Resource: "withdraw address", ID: 2, Err: ErrDestinationNotFound}
	transient := &TransientError{Op: "lock account", Err: ErrLockTimeout}

	assert.True(t, IsConflict(conflict))
	assert.True(t, errors.Is(conflict, ErrDuplicateTxID))
	assert.True(t, IsNotFound(notFound))
	assert.True(t, errors.Is(notFound, ErrDestinationNotFound))
	assert.True(t, IsTransient(transient))
	assert.False(t, IsTransient(conflict))
}
