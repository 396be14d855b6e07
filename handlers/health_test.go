package handlers

import (
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct{ pingErr error }

func (f fakeStore) Init() error        { return nil }
func (f fakeStore) Close() error       { return nil }
func (f fakeStore) HealthCheck() error { return f.pingErr }
func (f fakeStore) GetDB() interface{} { return nil }

func TestHandleCheckHealth(t *testing.T) {
	tests := []struct {
		name  string
		store fakeStore
		want  int
	}{
		{"database up", fakeStore{}, fiber.StatusOK},
		{"database down", fakeStore{pingErr: errors.New("connection refused")}, fiber.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Get("/ping", HandleCheckHealth(tt.store))

			resp, err := app.Test(httptest.NewRequest("GET", "/ping", nil))
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}
