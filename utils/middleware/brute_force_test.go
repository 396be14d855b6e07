package middleware

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLockoutFor(t *testing.T) {
	assert.Equal(t, time.Duration(0), LockoutFor(4))
	assert.Equal(t, 2*time.Minute, LockoutFor(5))
	assert.Equal(t, time.Hour, LockoutFor(10))
	assert.Equal(t, 24*time.Hour, LockoutFor(30))
}

func TestBruteForceProtection_DisabledWithoutRedis(t *testing.T) {
	b := NewBruteForceProtection(nil)
	app := fiber.New()
	app.Post("/login", b.CheckAndRecordAttempt(), func(c *fiber.Ctx) error {
		b.RecordFailedAttempt(c.UserContext(), c.IP(), "someone")
		return c.SendStatus(fiber.StatusUnauthorized)
	})

	for i := 0; i < 6; i++ {
		resp, err := app.Test(httptest.NewRequest("POST", "/login", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	}
}
