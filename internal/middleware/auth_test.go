package middleware

import (
	"examcell_backend/internal/config"
	"examcell_backend/internal/model"
	"examcell_backend/internal/util"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func tokenFor(t *testing.T, cfg *config.Config, roles ...model.UserRole) string {
	t.Helper()
	u := &model.User{Username: "u"}
	u.ID = 1
	for _, r := range roles {
		u.Roles = append(u.Roles, model.Role{RoleName: r})
	}
	token, err := util.GenerateJWT(u, cfg.JWT.Secret, time.Hour)
	require.NoError(t, err)
	return token
}

func newRouter(cfg *config.Config) *gin.Engine {
	r := gin.New()
	r.GET("/review", AuthMiddleware(cfg), RoleMiddleware(model.ExamCell), func(c *gin.Context) {
		c.String(http.StatusOK, util.GetUserFromContext(c).Username)
	})
	return r
}

func TestAuthAndRoleMiddleware(t *testing.T) {
	cfg := &config.Config{JWT: config.JWTConfig{Secret: "test-secret"}}
	r := newRouter(cfg)

	tests := []struct {
		name   string
		header string
		query  string
		want   int
	}{
		{"no token", "", "", http.StatusUnauthorized},
		{"bad token", "Bearer nope", "", http.StatusUnauthorized},
		{"wrong role", "Bearer " + tokenFor(t, cfg, model.Faculty), "", http.StatusForbidden},
		{"exam cell", "Bearer " + tokenFor(t, cfg, model.ExamCell), "", http.StatusOK},
		{"admin passes", "Bearer " + tokenFor(t, cfg, model.Admin), "", http.StatusOK},
		{"query token", "", tokenFor(t, cfg, model.ExamCell), http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := "/review"
			if tt.query != "" {
				path += "?token=" + tt.query
			}
			req := httptest.NewRequest(http.MethodGet, path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}
