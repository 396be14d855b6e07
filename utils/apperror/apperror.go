// Package apperror defines the domain error kinds shared by services and
// handlers, and classifies database driver errors into them.
package apperror

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Kind classifies a failure for the HTTP layer
type Kind string

const (
	KindNotFound           Kind = "NOT_FOUND"
	KindInvalidArgument    Kind = "INVALID_ARGUMENT"
	KindConflict           Kind = "CONFLICT"
	KindCapacityExceeded   Kind = "CAPACITY_EXCEEDED"
	KindTransactionFailure Kind = "TRANSACTION_FAILURE"
	KindInternal           Kind = "INTERNAL"
)

// Reasons used across services
const (
	ReasonPhoneCollision         = "phone_collision"
	ReasonAlreadyEnrolled        = "already_enrolled"
	ReasonAlreadyWithdrawn       = "already_withdrawn"
	ReasonCapacityBelowOccupancy = "capacity_below_occupancy"
	ReasonCrossCenter            = "cross_center_reference"
	ReasonDuplicate              = "duplicate"
	ReasonForeignKey             = "foreign_key"
)

// Error is a classified domain error
type Error struct {
	Kind     Kind
	Resource string // e.g. "group", "membership"
	Reason   string // machine readable detail, e.g. "already_enrolled"
	Message  string
	Err      error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
		if e.Resource != "" {
			msg += "(" + e.Resource + ")"
		}
		if e.Reason != "" {
			msg += ": " + e.Reason
		}
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches on Kind so that errors.Is(err, &Error{Kind: KindConflict}) works
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	return (t.Resource == "" || t.Resource == e.Resource) && (t.Reason == "" || t.Reason == e.Reason)
}

func NotFound(resource string) *Error {
	return &Error{Kind: KindNotFound, Resource: resource, Message: resource + " not found"}
}

func InvalidArgument(reason, message string) *Error {
	return &Error{Kind: KindInvalidArgument, Reason: reason, Message: message}
}

func Conflict(resource, reason, message string) *Error {
	return &Error{Kind: KindConflict, Resource: resource, Reason: reason, Message: message}
}

func CapacityExceeded(groupID uint, max int) *Error {
	return &Error{
		Kind:     KindCapacityExceeded,
		Resource: "group",
		Reason:   "capacity_exceeded",
		Message:  fmt.Sprintf("group %d is full (max %d students)", groupID, max),
	}
}

func TransactionFailure(err error) *Error {
	return &Error{Kind: KindTransactionFailure, Message: "transaction could not be completed, retry later", Err: err}
}

func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Message: "internal server error", Err: err}
}

// KindOf returns the kind of err, or KindInternal for unclassified errors
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// IsKind reports whether err carries the given kind
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Postgres SQLSTATE codes that are classified
const (
	sqlStateUniqueViolation      = "23505"
	sqlStateForeignKeyViolation  = "23503"
	sqlStateSerializationFailure = "40001"
	sqlStateDeadlockDetected     = "40P01"
	sqlStateLockNotAvailable     = "55P03"
	sqlStateQueryCanceled        = "57014"
)

// FromDB classifies an error returned by gorm, pgx or lib/pq. Errors that are
// already classified pass through unchanged. resource names the entity the
// statement was about and is used for NotFound and Conflict.
func FromDB(err error, resource string) error {
	if err == nil {
		return nil
	}

	var appErr *Error
	if errors.As(err, &appErr) {
		return err
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return NotFound(resource)
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return TransactionFailure(err)
	}

	code, constraint := sqlState(err)
	switch code {
	case sqlStateUniqueViolation:
		e := Conflict(resource, ReasonDuplicate, fmt.Sprintf("%s already exists", resource))
		if constraint != "" {
			e.Message = fmt.Sprintf("%s already exists (%s)", resource, constraint)
		}
		e.Err = err
		return e
	case sqlStateForeignKeyViolation:
		e := InvalidArgument(ReasonForeignKey, "referenced record does not exist")
		e.Resource = resource
		e.Err = err
		return e
	case sqlStateSerializationFailure, sqlStateDeadlockDetected, sqlStateLockNotAvailable, sqlStateQueryCanceled:
		return TransactionFailure(err)
	}

	if errors.Is(err, gorm.ErrInvalidTransaction) || isConnectionError(err) {
		return TransactionFailure(err)
	}

	return Internal(err)
}

func sqlState(err error) (code, constraint string) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code, pgErr.ConstraintName
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code), pqErr.Constraint
	}
	return "", ""
}

func isConnectionError(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var connectErr *pgconn.ConnectError
	return errors.As(err, &connectErr)
}
