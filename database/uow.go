package database

import (
	"context"
	"fmt"
	"time"

	"github.com/sahilchouksey/learning-center-api/utils/apperror"
	"gorm.io/gorm"
)

// UnitOfWork runs a closure of persistence operations atomically. The closure
// commits when it returns nil and rolls back on any error, panic, timeout or
// cancelled context.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(tx *gorm.DB) error) error
	// WithTimeout returns a copy that bounds each transaction by d
	WithTimeout(d time.Duration) UnitOfWork
}

type gormUnitOfWork struct {
	db      *gorm.DB
	timeout time.Duration
}

// NewUnitOfWork creates a GORM backed unit of work. A zero timeout means the
// transaction is bounded only by the caller's context.
func NewUnitOfWork(db *gorm.DB, timeout time.Duration) UnitOfWork {
	return &gormUnitOfWork{db: db, timeout: timeout}
}

func (u *gormUnitOfWork) WithTimeout(d time.Duration) UnitOfWork {
	return &gormUnitOfWork{db: u.db, timeout: d}
}

func (u *gormUnitOfWork) Do(ctx context.Context, fn func(tx *gorm.DB) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if u.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, u.timeout)
		defer cancel()
	}

	err := u.db.WithContext(ctx).Transaction(fn)
	if err == nil {
		return nil
	}

	// A deadline hit mid-statement surfaces as a driver error; report the cause
	if ctxErr := ctx.Err(); ctxErr != nil && !apperror.IsKind(err, apperror.KindNotFound) {
		return apperror.TransactionFailure(fmt.Errorf("%w: %v", ctxErr, err))
	}
	return apperror.FromDB(err, "record")
}
