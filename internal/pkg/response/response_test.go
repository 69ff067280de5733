package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/adminblog/core/internal/pkg/apperr"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"unauthorized", apperr.ErrUnauthorized, http.StatusUnauthorized},
		{"invalid", apperr.Invalid("missing %s", "title"), http.StatusBadRequest},
		{"not found wrapped", fmt.Errorf("%w: data/md/x.md", apperr.ErrNotFound), http.StatusNotFound},
		{"conflict", apperr.ErrConflict, http.StatusConflict},
		{"remote", apperr.Remote("get", "a", errors.New("dial tcp")), http.StatusBadGateway},
		{"format", apperr.ErrFormat, http.StatusInternalServerError},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusOf(tt.err))
		})
	}
}

func TestErrorEnvelope(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)

	Error(c, apperr.Invalid("missing slug"))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.EqualValues(t, 0, body["ok"])
	assert.EqualValues(t, http.StatusBadRequest, body["code"])
	assert.Equal(t, "invalid argument: missing slug", body["message"])
	assert.True(t, c.IsAborted())
}

func TestDoneMergesExtra(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)

	Done(c, gin.H{"slug": "hello-world"})

	assert.JSONEq(t, `{"ok":true,"slug":"hello-world"}`, rec.Body.String())
}
