package core

import (
	"errors"
)

var (
	ErrValidation            = errors.New("validation failed")
	ErrInvalidAmount         = errors.New("amount must be greater than zero")
	ErrNotFound              = errors.New("account not found")
	ErrCustomerNotFound      = errors.New("customer not found")
	ErrAccountNotActive      = errors.New("account is not active")
	ErrOperationNotPermitted = errors.New("operation not permitted for account category")
	ErrInsufficientFunds     = errors.New("insufficient funds")
	ErrDuplicateKey          = errors.New("duplicate key")
	ErrSameAccount           = errors.New("source and destination accounts are the same")

	// ErrBusy signals lock or transaction contention. It is the only error a
	// caller should retry automatically.
	ErrBusy = errors.New("registry busy")
)
