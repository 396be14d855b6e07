package middleware

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/learning-center-api/model"
	"github.com/sahilchouksey/learning-center-api/utils/apperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthorize(t *testing.T) {
	tests := []struct {
		name   string
		caller Caller
		owner  uint
		want   bool
	}{
		{"super admin any center", Caller{Role: model.RoleSuperAdmin}, 9, true},
		{"admin any center", Caller{Role: model.RoleAdmin}, 9, true},
		{"owner own center", Caller{Role: model.RoleLearningCenter, LearningCenterID: 3}, 3, true},
		{"owner other center", Caller{Role: model.RoleLearningCenter, LearningCenterID: 3}, 4, false},
		{"teacher own center", Caller{Role: model.RoleTeacher, LearningCenterID: 3, TeacherID: 1}, 3, true},
		{"teacher other center", Caller{Role: model.RoleTeacher, LearningCenterID: 3}, 5, false},
		{"center role without center", Caller{Role: model.RoleLearningCenter}, 0, false},
		{"unknown role", Caller{Role: "guest", LearningCenterID: 3}, 3, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Authorize(tt.caller, tt.owner))
		})
	}
}

func TestCaller_ScopeCenter(t *testing.T) {
	assert.Equal(t, uint(0), Caller{Role: model.RoleAdmin, LearningCenterID: 2}.ScopeCenter())
	assert.Equal(t, uint(2), Caller{Role: model.RoleTeacher, LearningCenterID: 2}.ScopeCenter())
}

func TestRequireRole(t *testing.T) {
	newApp := func(user *model.User) *fiber.App {
		app := fiber.New()
		app.Use(func(c *fiber.Ctx) error {
			if user != nil {
				c.Locals("user", user)
				c.Locals("user_role", user.Role)
			}
			return c.Next()
		})
		app.Get("/", RequireRole(model.RoleLearningCenter, model.RoleAdmin), func(c *fiber.Ctx) error {
			caller := CallerFrom(c)
			return c.JSON(fiber.Map{"center": caller.LearningCenterID})
		})
		return app
	}

	center := uint(4)
	resp, err := newApp(&model.User{ID: 1, Role: model.RoleLearningCenter, LearningCenterID: &center}).Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, err = newApp(&model.User{ID: 2, Role: model.RoleTeacher, LearningCenterID: &center}).Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp, err = newApp(nil).Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestCaller_TargetCenter(t *testing.T) {
	admin := Caller{Role: model.RoleSuperAdmin}
	_, ok := admin.TargetCenter(0)
	assert.False(t, ok)
	id, ok := admin.TargetCenter(7)
	assert.True(t, ok)
	assert.Equal(t, uint(7), id)

	owner := Caller{Role: model.RoleLearningCenter, LearningCenterID: 3}
	id, ok = owner.TargetCenter(0)
	assert.True(t, ok)
	assert.Equal(t, uint(3), id)
	_, ok = owner.TargetCenter(4)
	assert.False(t, ok)
}

func TestGuard(t *testing.T) {
	owners := map[uint]uint{1: 3, 2: 4}
	lookup := func(_ context.Context, id uint) (uint, error) {
		owner, ok := owners[id]
		if !ok {
			return 0, apperror.NotFound("group")
		}
		return owner, nil
	}

	center := uint(3)
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("user", &model.User{ID: 1, Role: model.RoleLearningCenter, LearningCenterID: &center})
		return c.Next()
	})
	app.Get("/groups/:id", func(c *fiber.Ctx) error {
		id, _ := c.ParamsInt("id")
		if ok, err := Guard(c, lookup, uint(id)); !ok {
			return err
		}
		return c.SendStatus(fiber.StatusOK)
	})

	cases := map[string]int{
		"/groups/1": fiber.StatusOK,
		"/groups/2": fiber.StatusForbidden,
		"/groups/9": fiber.StatusNotFound,
	}
	for path, want := range cases {
		resp, err := app.Test(httptest.NewRequest("GET", path, nil))
		require.NoError(t, err)
		assert.Equal(t, want, resp.StatusCode, path)
	}
}
