package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/learning-center-api/utils/apperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusFor(t *testing.T) {
	tests := map[apperror.Kind]int{
		apperror.KindNotFound:           fiber.StatusNotFound,
		apperror.KindInvalidArgument:    fiber.StatusBadRequest,
		apperror.KindConflict:           fiber.StatusConflict,
		apperror.KindCapacityExceeded:   fiber.StatusConflict,
		apperror.KindTransactionFailure: fiber.StatusServiceUnavailable,
		apperror.KindInternal:           fiber.StatusInternalServerError,
	}
	for kind, want := range tests {
		assert.Equal(t, want, StatusFor(kind), string(kind))
	}
}

func TestFromError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantReason string
	}{
		{"capacity", apperror.CapacityExceeded(7, 2), fiber.StatusConflict, "CAPACITY_EXCEEDED", "capacity_exceeded"},
		{"wrapped conflict", fmt.Errorf("enroll: %w", apperror.Conflict("membership", "already_enrolled", "already enrolled")), fiber.StatusConflict, "CONFLICT", "already_enrolled"},
		{"phone collision", apperror.InvalidArgument(apperror.ReasonPhoneCollision, "student phone must differ from parent phone"), fiber.StatusBadRequest, "INVALID_ARGUMENT", "phone_collision"},
		{"timeout", apperror.TransactionFailure(errors.New("deadline")), fiber.StatusServiceUnavailable, "TRANSACTION_FAILURE", ""},
		{"plain error", errors.New("boom"), fiber.StatusInternalServerError, "INTERNAL_ERROR", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Get("/", func(c *fiber.Ctx) error { return FromError(c, tt.err) })

			resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, tt.wantStatus, resp.StatusCode)

			var body Response
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.False(t, body.Success)
			require.NotNil(t, body.Error)
			assert.Equal(t, tt.wantCode, body.Error.Code)
			assert.Equal(t, tt.wantReason, body.Error.Reason)
		})
	}
}

func TestCalculatePagination(t *testing.T) {
	meta := CalculatePagination(2, 10, 25)
	assert.Equal(t, 3, meta.TotalPages)
	assert.Equal(t, 2, meta.CurrentPage)

	meta = CalculatePagination(0, 500, 0)
	assert.Equal(t, 1, meta.CurrentPage)
	assert.Equal(t, 100, meta.PerPage)
	assert.Equal(t, 0, meta.TotalPages)
}
