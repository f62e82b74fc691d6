package ledger

import (
	"errors"
	"fmt"

	"bet_wallet/internal/money"
	"bet_wallet/internal/store"
)

// Error kinds. Every sentinel below wraps exactly one of them so callers can
// branch on the kind with errors.Is.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidInput = errors.New("invalid input")
)

var (
	ErrPlayerNotFound = fmt.Errorf("player %w", ErrNotFound)
	ErrWalletNotFound = fmt.Errorf("wallet %w", ErrNotFound)
	ErrBetNotFound    = fmt.Errorf("bet %w", ErrNotFound)

	ErrInvalidBetStatus   = fmt.Errorf("%w: invalid bet status", ErrConflict)
	ErrAlreadySet         = fmt.Errorf("%w: reference already set", ErrConflict)
	ErrEmailAlreadyExists = fmt.Errorf("%w: email already exists", ErrConflict)

	ErrInvalidStake           = fmt.Errorf("%w: invalid stake", ErrInvalidInput)
	ErrInvalidDescription     = fmt.Errorf("%w: invalid description", ErrInvalidInput)
	ErrInvalidAmount          = fmt.Errorf("%w: invalid amount", ErrInvalidInput)
	ErrInvalidReference       = fmt.Errorf("%w: invalid reference", ErrInvalidInput)
	ErrInvalidTransactionType = fmt.Errorf("%w: invalid transaction type", ErrInvalidInput)
	ErrInvalidEmail           = fmt.Errorf("%w: invalid email", ErrInvalidInput)
	ErrInvalidUsername        = fmt.Errorf("%w: invalid username", ErrInvalidInput)
	ErrInvalidPage            = fmt.Errorf("%w: invalid page", ErrInvalidInput)

	// ErrInsufficientFunds is its own kind: a business rule rejection that is
	// never retried.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrConcurrentUpdate is returned when a version or status guard lost a
	// race. The whole operation is safe to retry from scratch.
	ErrConcurrentUpdate = store.ErrConcurrentUpdate
)

// IsInvalidInput reports whether err is a rejected input, including the money
// value errors.
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, money.ErrInvalidCurrency) ||
		errors.Is(err, money.ErrInvalidPrecision) ||
		errors.Is(err, money.ErrCurrencyMismatch)
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
