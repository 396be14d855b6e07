package api

import (
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/learning-center-api/utils/apperror"
	"github.com/sahilchouksey/learning-center-api/utils/response"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, app *fiber.App, path string) (int, response.Response) {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest("GET", path, nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	var body response.Response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return resp.StatusCode, body
}

func TestErrorHandler(t *testing.T) {
	app := NewAPIServer(":0").GetEngine()
	app.Get("/conflict", func(c *fiber.Ctx) error {
		return apperror.Conflict("student", "already_enrolled", "student is already an active member of this group")
	})
	app.Get("/boom", func(c *fiber.Ctx) error {
		return errors.New("disk on fire")
	})

	status, body := decode(t, app, "/missing")
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.False(t, body.Success)
	assert.Equal(t, "NOT_FOUND", body.Error.Code)

	status, body = decode(t, app, "/conflict")
	assert.Equal(t, fiber.StatusConflict, status)
	assert.Equal(t, "already_enrolled", body.Error.Reason)

	status, body = decode(t, app, "/boom")
	assert.Equal(t, fiber.StatusInternalServerError, status)
	assert.NotContains(t, body.Error.Message, "disk on fire")
}
