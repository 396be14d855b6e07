package payment

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMonth(t *testing.T) {
	tests := []struct {
		raw  string
		want time.Time
		ok   bool
	}{
		{"2025-03", time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC), true},
		{"2025-03-17", time.Date(2025, time.March, 17, 0, 0, 0, 0, time.UTC), true},
		{"03/2025", time.Time{}, false},
		{"", time.Time{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := ParseMonth(tt.raw)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.True(t, tt.want.Equal(got))
			}
		})
	}
}

func TestCreatePayment_RejectsBadInput(t *testing.T) {
	h := NewPaymentHandler(nil, nil)
	app := fiber.New()
	app.Post("/payments", h.CreatePayment)

	cases := []struct {
		name string
		body string
		want int
	}{
		{"malformed json", `{"student_id":`, fiber.StatusBadRequest},
		{"missing fields", `{}`, fiber.StatusUnprocessableEntity},
		{"negative paid amount", `{"student_id":1,"group_id":1,"month":"2025-03","paid_amount":-5}`, fiber.StatusUnprocessableEntity},
		{"bad month", `{"student_id":1,"group_id":1,"month":"March"}`, fiber.StatusBadRequest},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/payments", strings.NewReader(tc.body))
			req.Header.Set("Content-Type", "application/json")
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tc.want, resp.StatusCode)
		})
	}
}
