package student

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/learning-center-api/utils/response"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func post(t *testing.T, app *fiber.App, method, path, body string) (int, response.Response) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out response.Response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func TestCreateStudent_Validation(t *testing.T) {
	h := NewStudentHandler(nil, nil, nil)
	app := fiber.New()
	app.Post("/students", h.CreateStudent)

	status, body := post(t, app, "POST", "/students", `{
		"group_id": 1,
		"full_name": "Aziza Karimova",
		"phone": "901234567",
		"parent_phone": "+998907654321",
		"birth_date": "01.03.2008"
	}`)
	assert.Equal(t, fiber.StatusUnprocessableEntity, status)
	assert.Contains(t, body.Error.Fields, "phone")
	assert.Contains(t, body.Error.Fields, "birth_date")
}

func TestCreateStudent_RequiresCenter(t *testing.T) {
	// No caller in context: TargetCenter cannot resolve a center
	h := NewStudentHandler(nil, nil, nil)
	app := fiber.New()
	app.Post("/students", h.CreateStudent)

	status, _ := post(t, app, "POST", "/students", `{
		"group_id": 1,
		"full_name": "Aziza Karimova",
		"phone": "+998901234567",
		"parent_phone": "+998907654321",
		"birth_date": "2008-03-01"
	}`)
	assert.Equal(t, fiber.StatusForbidden, status)
}

func TestCreateStudent_EqualPhonesReachEnrollment(t *testing.T) {
	// Equal phones pass validation; enrollment rejects them with phone_collision
	h := NewStudentHandler(nil, nil, nil)
	app := fiber.New()
	app.Post("/students", h.CreateStudent)

	status, body := post(t, app, "POST", "/students", `{
		"group_id": 1,
		"full_name": "Aziza Karimova",
		"phone": "+998901234567",
		"parent_phone": "+998901234567",
		"birth_date": "2008-03-01"
	}`)
	assert.Equal(t, fiber.StatusForbidden, status)
	require.NotNil(t, body.Error)
	assert.Empty(t, body.Error.Fields)
}

func TestRemoveFromGroup_RejectsUnknownStatus(t *testing.T) {
	h := NewStudentHandler(nil, nil, nil)
	app := fiber.New()
	app.Delete("/students/remove-from-group", h.RemoveFromGroup)

	status, body := post(t, app, "DELETE", "/students/remove-from-group", `{"student_id":1,"group_id":2,"status":"ACTIVE"}`)
	assert.Equal(t, fiber.StatusUnprocessableEntity, status)
	assert.Contains(t, body.Error.Fields, "status")
}
