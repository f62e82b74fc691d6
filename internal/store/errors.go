package store

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	"gorm.io/gorm"
)

var (
	// ErrConcurrentUpdate means another writer won a race on the same row.
	ErrConcurrentUpdate = errors.New("concurrent update, retry the operation")
	ErrDuplicateKey     = errors.New("duplicate key")
)

// PostgreSQL SQLSTATE codes
const (
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
	pgLockNotAvailable     = "55P03"
	pgUniqueViolation      = "23505"
)

// Classify maps driver errors onto ErrConcurrentUpdate and ErrDuplicateKey,
// keeping the original error in the chain.
func Classify(err error) error {
	if err == nil || errors.Is(err, ErrConcurrentUpdate) || errors.Is(err, ErrDuplicateKey) {
		return err
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: %w", ErrDuplicateKey, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgSerializationFailure, pgDeadlockDetected, pgLockNotAvailable:
			return fmt.Errorf("%w: %w", ErrConcurrentUpdate, err)
		case pgUniqueViolation:
			return fmt.Errorf("%w: %w", ErrDuplicateKey, err)
		}
		return err
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		switch {
		case sqliteErr.Code == sqlite3.ErrBusy, sqliteErr.Code == sqlite3.ErrLocked:
			return fmt.Errorf("%w: %w", ErrConcurrentUpdate, err)
		case sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique, sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey:
			return fmt.Errorf("%w: %w", ErrDuplicateKey, err)
		}
	}
	return err
}

func IsRetryable(err error) bool {
	return errors.Is(Classify(err), ErrConcurrentUpdate)
}
