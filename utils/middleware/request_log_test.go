package middleware

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedactBody(t *testing.T) {
	raw := []byte(`{"login":"center1","password":"secret123","refresh_token":"abc"}`)

	out := redactBody(raw, "application/json; charset=utf-8")
	require.NotNil(t, out)

	var payload map[string]string
	require.NoError(t, json.Unmarshal(out, &payload))
	assert.Equal(t, "center1", payload["login"])
	assert.Equal(t, "[REDACTED]", payload["password"])
	assert.Equal(t, "[REDACTED]", payload["refresh_token"])
}

func TestRedactBody_SkipsNonJSON(t *testing.T) {
	assert.Nil(t, redactBody([]byte("name=x"), "application/x-www-form-urlencoded"))
	assert.Nil(t, redactBody([]byte("not json"), "application/json"))
	assert.Nil(t, redactBody(nil, "application/json"))
}
