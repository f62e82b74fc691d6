package store

import (
	"context"
	"errors"
	"time"

	"bet_wallet/internal/logger"

	"gorm.io/gorm"
)

const (
	DefaultMaxRetries = 3
	DefaultRetryDelay = 10 * time.Millisecond
)

// UnitOfWork runs a function inside one database transaction. Everything the
// function writes through tx commits together or not at all; a returned error,
// a panic or a cancelled context rolls the whole unit back.
//
// A unit that loses a race (ErrConcurrentUpdate) is rerun from scratch up to
// MaxRetries times, so fn must load every row it mutates through tx.
type UnitOfWork struct {
	db         *gorm.DB
	maxRetries int
	retryDelay time.Duration
}

func NewUnitOfWork(db *gorm.DB, maxRetries int, retryDelay time.Duration) *UnitOfWork {
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &UnitOfWork{db: db, maxRetries: maxRetries, retryDelay: retryDelay}
}

func (u *UnitOfWork) DB() *gorm.DB {
	return u.db
}

func (u *UnitOfWork) Do(ctx context.Context, fn func(tx *gorm.DB) error) error {
	var err error
	for attempt := 0; attempt <= u.maxRetries; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		err = Classify(u.db.WithContext(ctx).Transaction(fn))
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrConcurrentUpdate) {
			return err
		}
		if attempt == u.maxRetries {
			break
		}

		logger.Warn(ctx).Err(err).Int("attempt", attempt+1).Msg("unit of work lost a race, retrying")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(u.retryDelay):
		}
	}
	return err
}
