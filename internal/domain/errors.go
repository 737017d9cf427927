package domain

import "errors"

// Failure kinds reported by the ledger. Callers match them with errors.Is.
var (
	ErrInvalidAmount     = errors.New("amount must be a number greater than or equal to zero")
	ErrInvalidDeposit    = errors.New("initial deposit must be a number greater than or equal to zero")
	ErrUnknownCustomer   = errors.New("invalid customer id")
	ErrUnknownAccount    = errors.New("invalid account id")
	ErrOwnershipMismatch = errors.New("account does not belong to customer")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrSameAccount       = errors.New("source and destination accounts must differ")

	// ErrLockTimeout means the account locks could not be acquired in time.
	// It is transient: the same request may succeed when retried.
	ErrLockTimeout = errors.New("timed out waiting for account lock")

	// ErrCommitFailure means the atomic unit could not be durably applied.
	// No part of the operation is visible.
	ErrCommitFailure = errors.New("failed to commit ledger changes")

	// ErrRecordNotFound is returned by repositories for absent records
	ErrRecordNotFound = errors.New("record not found")
)

// Refinements of ErrUnknownCustomer and ErrOwnershipMismatch that name the
// side of the transfer at fault.
var (
	ErrUnknownSender    error = &kindError{msg: "invalid sender id", parent: ErrUnknownCustomer}
	ErrUnknownReceiver  error = &kindError{msg: "invalid receiver id", parent: ErrUnknownCustomer}
	ErrSenderNotOwner   error = &kindError{msg: "source account does not belong to sender", parent: ErrOwnershipMismatch}
	ErrReceiverNotOwner error = &kindError{msg: "destination account does not belong to receiver", parent: ErrOwnershipMismatch}
)

type kindError struct {
	msg    string
	parent error
}

func (e *kindError) Error() string { return e.msg }
func (e *kindError) Unwrap() error { return e.parent }

// IsBusinessError reports whether err is one of the ledger's rejection
// kinds, as opposed to an infrastructure failure.
func IsBusinessError(err error) bool {
	for _, kind := range []error{
		ErrInvalidAmount,
		ErrInvalidDeposit,
		ErrUnknownCustomer,
		ErrUnknownAccount,
		ErrOwnershipMismatch,
		ErrInsufficientFunds,
		ErrSameAccount,
		ErrLockTimeout,
		ErrCommitFailure,
	} {
		if errors.Is(err, kind) {
			return true
		}
	}
	return false
}
