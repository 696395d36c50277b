package security

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type fakeClaims struct{ id uint }

func (c fakeClaims) GetUserID() uint { return c.id }

func newLimitedRouter(max int, key KeyFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		if h := c.GetHeader("X-Test-User"); h == "1" {
			c.Set("user", fakeClaims{id: 1})
		} else if h == "2" {
			c.Set("user", fakeClaims{id: 2})
		}
		c.Next()
	})
	r.GET("/", RateLimiterBy(max, time.Hour, key), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func get(r http.Handler, user string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if user != "" {
		req.Header.Set("X-Test-User", user)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRateLimiterByUser(t *testing.T) {
	r := newLimitedRouter(2, UserKey)

	assert.Equal(t, http.StatusOK, get(r, "1").Code)
	assert.Equal(t, http.StatusOK, get(r, "1").Code)

	w := get(r, "1")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "3600", w.Header().Get("Retry-After"))

	// 其他用户不受影响
	assert.Equal(t, http.StatusOK, get(r, "2").Code)
}

func TestRateLimiterDisabled(t *testing.T) {
	r := newLimitedRouter(0, UserKey)
	for i := 0; i < 10; i++ {
		assert.Equal(t, http.StatusOK, get(r, "1").Code)
	}
}

func TestRateLimiterEmptyKeySkips(t *testing.T) {
	r := newLimitedRouter(1, func(c *gin.Context) string { return "" })
	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, get(r, "").Code)
	}
}

func TestUserKey(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Request.RemoteAddr = "10.0.0.1:1234"

	assert.Equal(t, "10.0.0.1", UserKey(c))
	c.Set("user", fakeClaims{id: 42})
	assert.Equal(t, "u:42", UserKey(c))
}

func TestCORS(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CORS([]string{"https://app.example.com"}))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/", nil)
	req.Header.Set("Origin", "https://app.example.com")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://app.example.com", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}
