package query

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPagination_Bounds(t *testing.T) {
	tests := []struct {
		page, limit         int
		wantPage, wantLimit int
	}{
		{0, 0, 1, 10},
		{-3, 5, 1, 5},
		{4, 1000, 4, 100},
		{2, 25, 2, 25},
	}
	for _, tt := range tests {
		p := NewPagination(tt.page, tt.limit)
		assert.Equal(t, tt.wantPage, p.Page)
		assert.Equal(t, tt.wantLimit, p.Limit)
	}

	assert.Equal(t, 50, NewPagination(3, 25).Offset())
}

func TestParsePagination_FromQuery(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		p := ParsePagination(c)
		active := OptionalBool(c, "active")
		teacher := OptionalUint(c, "teacher_id")
		assert.Equal(t, 3, p.Page)
		assert.Equal(t, 20, p.Limit)
		require.NotNil(t, active)
		assert.True(t, *active)
		assert.Nil(t, teacher)
		return c.SendString("ok")
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/?page=3&size=20&active=true&teacher_id=abc", nil))
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "ok", string(body))
}

func TestLikePattern_EscapesWildcards(t *testing.T) {
	assert.Equal(t, `%50\%\_off%`, LikePattern(" 50%_off "))
}
