package controller

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"examcell_backend/internal/qbank"
	"examcell_backend/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestParseLimits(t *testing.T) {
	assert.Equal(t, map[int]int{2: 5, 10: 3}, parseLimits("2:5, 10:3"))
	assert.Equal(t, map[int]int{5: 1}, parseLimits("x:1,5:1,3:0,7,-2:4"))
	assert.Empty(t, parseLimits(""))
}

func TestRespondErrorStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"incomplete", &qbank.IncompleteSectionError{Module: 1, Category: 2, Required: 3, Found: 1}, http.StatusUnprocessableEntity},
		{"validation", &qbank.ValidationError{Message: "no modules"}, http.StatusBadRequest},
		{"config not found", &qbank.ConfigurationError{Message: "failed", Err: util.ErrConfigurationNotFound}, http.StatusNotFound},
		{"config failed", &qbank.ConfigurationError{Message: "failed", Err: errors.New("timeout")}, http.StatusBadGateway},
		{"permission", util.ErrPermissionDenied, http.StatusForbidden},
		{"credentials", util.ErrInvalidCredentials, http.StatusUnauthorized},
		{"session missing", util.ErrSessionNotFound, http.StatusNotFound},
		{"wrapped conflict", fmt.Errorf("save: %w", util.ErrDuplicateRecord), http.StatusConflict},
		{"session closed", util.ErrSessionClosed, http.StatusConflict},
		{"bad image", util.ErrInvalidImage, http.StatusBadRequest},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			ctx, _ := gin.CreateTestContext(w)
			ctx.Request = httptest.NewRequest(http.MethodGet, "/", nil)
			respondError(ctx, tt.err)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestIncompleteSectionCarriesDetails(t *testing.T) {
	w := httptest.NewRecorder()
	ctx, _ := gin.CreateTestContext(w)
	respondError(ctx, &qbank.IncompleteSectionError{Module: 2, Category: 1, Required: 4, Found: 3})

	var resp struct {
		Data qbank.IncompleteSectionError `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, qbank.IncompleteSectionError{Module: 2, Category: 1, Required: 4, Found: 3}, resp.Data)
}

func TestParseID(t *testing.T) {
	w := httptest.NewRecorder()
	ctx, _ := gin.CreateTestContext(w)
	ctx.Params = gin.Params{{Key: "id", Value: "abc"}}
	_, ok := parseID(ctx, "id")
	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	ctx.Params = gin.Params{{Key: "id", Value: "42"}}
	id, ok := parseID(ctx, "id")
	assert.True(t, ok)
	assert.EqualValues(t, 42, id)
}
