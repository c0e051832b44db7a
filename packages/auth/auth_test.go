package auth

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testContext(t *testing.T) *gin.Context {
	t.Helper()
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	return c
}

func TestGetUsername(t *testing.T) {
	t.Run("preferred username wins", func(t *testing.T) {
		c := testContext(t)
		c.Set("jwt_claims", map[string]any{
			"sub":                "abc-123",
			"preferred_username": "ivanov",
			"email":              "ivanov@example.com",
		})

		name, ok := GetUsername(c)
		require.True(t, ok)
		assert.Equal(t, "ivanov", name)
	})

	t.Run("falls back to email then sub", func(t *testing.T) {
		c := testContext(t)
		c.Set("jwt_claims", map[string]any{"sub": "abc-123", "email": "ivanov@example.com"})
		name, ok := GetUsername(c)
		require.True(t, ok)
		assert.Equal(t, "ivanov@example.com", name)

		c = testContext(t)
		c.Set("jwt_claims", map[string]any{"sub": "abc-123"})
		name, ok = GetUsername(c)
		require.True(t, ok)
		assert.Equal(t, "abc-123", name)
	})

	t.Run("no claims", func(t *testing.T) {
		c := testContext(t)
		_, ok := GetUsername(c)
		assert.False(t, ok)
	})
}

func TestHasRealmRole(t *testing.T) {
	claims := map[string]any{
		"realm_access": map[string]any{
			"roles": []any{"user", "admin"},
		},
	}

	assert.True(t, hasRealmRole(claims, "admin"))
	assert.False(t, hasRealmRole(claims, "auditor"))
	assert.False(t, hasRealmRole(map[string]any{}, "admin"))
}
