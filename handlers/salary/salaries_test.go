package salary

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateSalary_RejectsBadInput(t *testing.T) {
	h := NewSalaryHandler(nil, nil)
	app := fiber.New()
	app.Post("/salaries", h.CreateSalary)

	cases := map[string]string{
		"month out of range": `{"teacher_id":1,"month":13,"year":2025}`,
		"missing teacher":    `{"month":3,"year":2025}`,
		"negative penalty":   `{"teacher_id":1,"month":3,"year":2025,"penalty":-1}`,
		"bad date":           `{"teacher_id":1,"month":3,"year":2025,"date":"03.03.2025"}`,
	}

	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/salaries", strings.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
		})
	}
}

func TestGetSalary_InvalidID(t *testing.T) {
	h := NewSalaryHandler(nil, nil)
	app := fiber.New()
	app.Get("/salaries/:id", h.GetSalary)

	resp, err := app.Test(httptest.NewRequest("GET", "/salaries/abc", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}
