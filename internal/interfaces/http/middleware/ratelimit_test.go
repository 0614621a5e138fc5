package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRateLimiter_InvalidConfig(t *testing.T) {
	_, err := NewRateLimiter(RateLimitConfig{Requests: 0, Window: time.Minute})
	assert.Error(t, err)
	_, err = NewRateLimiter(RateLimitConfig{Requests: 5})
	assert.Error(t, err)
}

func TestRateLimit(t *testing.T) {
	l, err := NewRateLimiter(RateLimitConfig{Requests: 2, Window: time.Minute})
	require.NoError(t, err)

	router := gin.New()
	router.Use(RateLimit(l))
	router.GET("/test", func(c *gin.Context) { c.Status(http.StatusOK) })

	call := func(ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.RemoteAddr = ip + ":1234"
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	first := call("10.0.0.1")
	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "2", first.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "1", first.Header().Get("X-RateLimit-Remaining"))

	assert.Equal(t, http.StatusOK, call("10.0.0.1").Code)

	blocked := call("10.0.0.1")
	assert.Equal(t, http.StatusTooManyRequests, blocked.Code)
	assert.Equal(t, "RATE_LIMITED", decodeError(t, blocked).Code)

	// Separate budget per client
	assert.Equal(t, http.StatusOK, call("10.0.0.2").Code)
}
