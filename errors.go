package solesub

import (
	"errors"
	"fmt"

	"github.com/devlongs/solesub/types"
)

// Sentinel errors for membership operations. Every one of them is a terminal
// precondition failure: the ledger state is unchanged and nothing is retried.
var (
	ErrInsufficientFee    = errors.New("solesub: insufficient fee")
	ErrAlreadyEnrolled    = errors.New("solesub: holder already enrolled")
	ErrNoCredential       = errors.New("solesub: holder has no credential")
	ErrTransferNotAllowed = errors.New("solesub: credential transfer not allowed")
	ErrInvalidIdentifier  = errors.New("solesub: invalid credential identifier")
	ErrUnauthorized       = errors.New("solesub: unauthorized")
	ErrPaused             = errors.New("solesub: membership issuance is paused")
)

// Plumbing errors.
var (
	ErrInvalidInput       = errors.New("solesub: invalid input")
	ErrNothingToWithdraw  = errors.New("solesub: nothing to withdraw")
	ErrPlanNotFound       = errors.New("solesub: plan not found")
	ErrCredentialNotFound = errors.New("solesub: credential not found")
	ErrNotStarted         = errors.New("solesub: ledger not started")
	ErrStoreClosed        = errors.New("solesub: store is closed")
	ErrMigrationFailed    = errors.New("solesub: migration failed")
)

// InsufficientFeeError reports a payment that does not match the price exactly.
type InsufficientFeeError struct {
	Required types.Money
	Provided types.Money
}

func (e *InsufficientFeeError) Error() string {
	return fmt.Sprintf("solesub: insufficient fee: required %s, provided %s", e.Required, e.Provided)
}

// Is makes errors.Is(err, ErrInsufficientFee) match.
func (e *InsufficientFeeError) Is(target error) bool {
	return target == ErrInsufficientFee
}

// IsPrecondition returns true for the membership failures a caller fixes by
// resubmitting with different input.
func IsPrecondition(err error) bool {
	return errors.Is(err, ErrInsufficientFee) ||
		errors.Is(err, ErrAlreadyEnrolled) ||
		errors.Is(err, ErrNoCredential) ||
		errors.Is(err, ErrTransferNotAllowed) ||
		errors.Is(err, ErrInvalidIdentifier) ||
		errors.Is(err, ErrUnauthorized) ||
		errors.Is(err, ErrPaused)
}

// IsNotFound returns true if the error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNoCredential) ||
		errors.Is(err, ErrCredentialNotFound) ||
		errors.Is(err, ErrPlanNotFound) ||
		errors.Is(err, ErrInvalidIdentifier)
}
