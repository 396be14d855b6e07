package group

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeleteMembership_InvalidIDs(t *testing.T) {
	h := NewGroupHandler(nil, nil)
	app := fiber.New()
	app.Delete("/groups/:id/memberships/:membershipId", h.DeleteMembership)

	for _, path := range []string{
		"/groups/abc/memberships/1",
		"/groups/1/memberships/0",
		"/groups/1/memberships/x",
	} {
		t.Run(path, func(t *testing.T) {
			resp, err := app.Test(httptest.NewRequest("DELETE", path, nil))
			require.NoError(t, err)
			assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
		})
	}
}
