package security

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestCORSPolicyUpdate(t *testing.T) {
	policy := NewOriginPolicy([]string{"http://a.local"})
	r := gin.New()
	r.Use(CORS(policy))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	do := func(origin string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		req.Header.Set("Origin", origin)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, "http://a.local", do("http://a.local").Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, do("http://b.local").Header().Get("Access-Control-Allow-Origin"))

	policy.Update([]string{"http://b.local"})
	assert.Empty(t, do("http://a.local").Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "http://b.local", do("http://b.local").Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSPreflight(t *testing.T) {
	r := gin.New()
	r.Use(CORS(NewOriginPolicy(nil)))
	r.OPTIONS("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/x", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestRateLimiter(t *testing.T) {
	r := gin.New()
	r.Use(RateLimiter(2, time.Hour))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}
