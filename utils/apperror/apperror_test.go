package apperror

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestFromDB_PgxCodes(t *testing.T) {
	tests := []struct {
		name string
		code string
		want Kind
	}{
		{"unique violation", "23505", KindConflict},
		{"foreign key violation", "23503", KindInvalidArgument},
		{"serialization failure", "40001", KindTransactionFailure},
		{"deadlock", "40P01", KindTransactionFailure},
		{"lock not available", "55P03", KindTransactionFailure},
		{"syntax error", "42601", KindInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := fmt.Errorf("insert: %w", &pgconn.PgError{Code: tt.code})
			assert.Equal(t, tt.want, KindOf(FromDB(err, "student")))
		})
	}
}

func TestFromDB_PqCodes(t *testing.T) {
	err := FromDB(&pq.Error{Code: "23505", Constraint: "idx_group_student"}, "membership")

	var appErr *Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, KindConflict, appErr.Kind)
	assert.Equal(t, "membership", appErr.Resource)
	assert.Contains(t, appErr.Message, "idx_group_student")

	assert.Equal(t, KindTransactionFailure, KindOf(FromDB(&pq.Error{Code: "40P01"}, "group")))
}

func TestFromDB_RecordNotFound(t *testing.T) {
	err := FromDB(fmt.Errorf("load: %w", gorm.ErrRecordNotFound), "group")
	assert.True(t, errors.Is(err, NotFound("group")))
	assert.False(t, errors.Is(err, NotFound("student")))
}

func TestFromDB_ContextErrors(t *testing.T) {
	assert.Equal(t, KindTransactionFailure, KindOf(FromDB(context.DeadlineExceeded, "group")))
	assert.Equal(t, KindTransactionFailure, KindOf(FromDB(fmt.Errorf("tx: %w", context.Canceled), "group")))
}

func TestFromDB_PassesClassifiedErrorsThrough(t *testing.T) {
	orig := CapacityExceeded(7, 2)
	got := FromDB(fmt.Errorf("enroll: %w", orig), "group")
	assert.Equal(t, KindCapacityExceeded, KindOf(got))
	assert.Nil(t, FromDB(nil, "group"))
}

func TestErrorIs_MatchesKindAndReason(t *testing.T) {
	err := Conflict("membership", ReasonAlreadyWithdrawn, "membership is not active")

	assert.True(t, errors.Is(err, &Error{Kind: KindConflict}))
	assert.True(t, errors.Is(err, &Error{Kind: KindConflict, Reason: ReasonAlreadyWithdrawn}))
	assert.False(t, errors.Is(err, &Error{Kind: KindConflict, Reason: ReasonAlreadyEnrolled}))
	assert.False(t, errors.Is(err, &Error{Kind: KindNotFound}))
}

func TestKindOf_Unclassified(t *testing.T) {
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
	assert.Equal(t, Kind(""), KindOf(nil))
	assert.True(t, IsKind(NotFound("x"), KindNotFound))
}
