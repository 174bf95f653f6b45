package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRespondError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantMsg    string
	}{
		{"conflict", ConflictError("taken", nil).WithDetails(map[string]any{"reason": "x"}), http.StatusConflict, CodeConflict, "taken"},
		{"wrapped not found", fmt.Errorf("lookup: %w", NotFoundError("Discount not found", nil)), http.StatusNotFound, CodeNotFound, "Discount not found"},
		{"invalid input", InvalidInputError("bad", nil), http.StatusUnprocessableEntity, CodeInvalidInput, "bad"},
		{"plain error hides text", errors.New("pq: password authentication failed"), http.StatusInternalServerError, CodeInternal, "Internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			RespondError(c, tt.err)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.True(t, c.IsAborted())

			var body struct {
				Error struct {
					Code    string         `json:"code"`
					Message string         `json:"message"`
					Details map[string]any `json:"details"`
				} `json:"error"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.wantCode, body.Error.Code)
			assert.Equal(t, tt.wantMsg, body.Error.Message)
			assert.NotContains(t, w.Body.String(), "password")
		})
	}
}

func TestErrorPredicates(t *testing.T) {
	err := WrapError(ConflictError("busy", nil), "create discount")
	assert.True(t, IsConflictError(err))
	assert.False(t, IsNotFoundError(err))
	assert.True(t, IsAppError(err))
	assert.Nil(t, WrapError(nil, "noop"))
	assert.Equal(t, "busy: boom", ConflictError("busy", errors.New("boom")).Error())
}
