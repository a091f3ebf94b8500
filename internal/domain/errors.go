package domain

import "errors"

var (
	// ErrNotFound is returned when a referenced account or transaction does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned on create when the id is already taken.
	ErrConflict = errors.New("already exists")

	// ErrInsufficientFunds is returned when a debit would drive a balance negative.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrCurrencyMismatch is returned on arithmetic across incompatible currencies
	// or when an exchange rate is missing for a cross-currency transaction.
	ErrCurrencyMismatch = errors.New("currency mismatch")

	// ErrInvalidTransition is returned when a terminal transaction is moved
	// to a different status.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrStorageUnavailable is returned when the database or the execution
	// layer fails outside of domain rules.
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrBrokerUnavailable is returned when topology declaration or publish fails.
	ErrBrokerUnavailable = errors.New("broker unavailable")
)
