package middleware

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopkart/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type registerPayload struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	FullName string `json:"full_name" binding:"required"`
}

func bindPayload(t *testing.T, body string) error {
	t.Helper()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("POST", "/", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	var req registerPayload
	return c.ShouldBindJSON(&req)
}

func TestFormatBindingError(t *testing.T) {
	SetupValidator()

	t.Run("reports each failed field by its json name", func(t *testing.T) {
		err := bindPayload(t, `{"email": "not-an-email", "password": "short"}`)
		require.Error(t, err)

		resp := FormatBindingError(err)

		assert.False(t, resp.Success)
		assert.Equal(t, "Request validation failed", resp.Message)

		details, ok := resp.Errors.([]dto.FieldError)
		require.True(t, ok)
		require.Len(t, details, 3)

		byField := make(map[string]string, len(details))
		for _, d := range details {
			byField[d.Field] = d.Message
		}
		assert.Equal(t, "Invalid email format", byField["email"])
		assert.Equal(t, "Must be at least 8 characters", byField["password"])
		assert.Equal(t, "This field is required", byField["full_name"])
	})

	t.Run("malformed json gets a generic message", func(t *testing.T) {
		err := bindPayload(t, `{"email": `)
		require.Error(t, err)

		resp := FormatBindingError(err)

		assert.False(t, resp.Success)
		assert.Equal(t, "Invalid request body", resp.Message)
		assert.Nil(t, resp.Errors)
	})
}
