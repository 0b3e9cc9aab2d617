package host

import "errors"

// Error kinds shared by all four contracts. Callers match with errors.Is;
// contracts wrap them with call-site context via fmt.Errorf and %w.
var (
	// Authorization
	ErrUnauthorized = errors.New("unauthorized")

	// Precondition
	ErrNotFound            = errors.New("not found")
	ErrInvalidState        = errors.New("invalid state for operation")
	ErrWindowNotOpen       = errors.New("window not open yet")
	ErrWindowClosed        = errors.New("window closed")
	ErrAlreadyRegistered   = errors.New("already registered")
	ErrAlreadyParticipated = errors.New("already participated")
	ErrAlreadyVoted        = errors.New("already voted")
	ErrInvalidArgument     = errors.New("invalid argument")

	// Arithmetic
	ErrOverflow = errors.New("arithmetic overflow")

	// Resource
	ErrInsufficientBalance   = errors.New("insufficient balance")
	ErrInsufficientAllowance = errors.New("insufficient allowance")
	ErrInsufficientStake     = errors.New("insufficient stake")

	// Policy
	ErrPaused       = errors.New("contract paused")
	ErrFrozen       = errors.New("account frozen")
	ErrZeroAmount   = errors.New("zero amount")
	ErrCapExceeded  = errors.New("cap exceeded")
	ErrBelowMinimum = errors.New("below configured minimum")

	// External
	ErrExternalCall = errors.New("downstream contract call failed")

	// Reentrancy
	ErrReentrancy = errors.New("reentrancy lock held")
)
