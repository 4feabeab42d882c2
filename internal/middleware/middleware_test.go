package middleware

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(router *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func ok(c *gin.Context) { c.Status(http.StatusOK) }

func TestInternalAuthMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name      string
		configKey string
		header    string
		status    int
	}{
		{"valid key", "s3cret", "s3cret", http.StatusOK},
		{"wrong key", "s3cret", "guess", http.StatusUnauthorized},
		{"missing key", "s3cret", "", http.StatusUnauthorized},
		{"misconfigured", "", "anything", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.GET("/internal/x", InternalAuthMiddleware(tt.configKey), ok)

			req := httptest.NewRequest("GET", "/internal/x", nil)
			if tt.header != "" {
				req.Header.Set(APIKeyHeader, tt.header)
			}
			assert.Equal(t, tt.status, serve(router, req).Code)
		})
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	router := gin.New()
	router.GET("/v1/x", RateLimitMiddleware(ctx, RateLimiterConfig{RequestsPerSecond: 0.001, BurstSize: 2, IdleTimeout: time.Minute}), ok)

	request := func(ip string) int {
		req := httptest.NewRequest("GET", "/v1/x", nil)
		req.RemoteAddr = ip + ":1234"
		return serve(router, req).Code
	}

	assert.Equal(t, http.StatusOK, request("10.0.0.1"))
	assert.Equal(t, http.StatusOK, request("10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, request("10.0.0.1"))
	assert.Equal(t, http.StatusOK, request("10.0.0.2"), "limits are per client")
}

func TestIPRateLimiterCleanup(t *testing.T) {
	clock := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	rl := NewIPRateLimiter(RateLimiterConfig{RequestsPerSecond: 1, BurstSize: 1, IdleTimeout: time.Minute})
	rl.now = func() time.Time { return clock }

	first := rl.GetLimiter("a")
	rl.GetLimiter("b")
	assert.Same(t, first, rl.GetLimiter("a"))

	clock = clock.Add(45 * time.Second)
	rl.GetLimiter("a")
	clock = clock.Add(30 * time.Second)

	assert.Equal(t, 1, rl.CleanupOldLimiters())
	assert.Equal(t, 1, rl.Len())
}

func TestServiceRateLimitMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/internal/x", ServiceRateLimitMiddleware(0.001, 1), ok)

	assert.Equal(t, http.StatusOK, serve(router, httptest.NewRequest("GET", "/internal/x", nil)).Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(router, httptest.NewRequest("GET", "/internal/x", nil)).Code)
}

func TestRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	router := gin.New()
	router.Use(RequestID(&logger), RequestLogger(&logger))
	router.GET("/v1/x", func(c *gin.Context) {
		zerolog.Ctx(c.Request.Context()).Info().Msg("handler")
		c.Status(http.StatusOK)
	})

	w := serve(router, httptest.NewRequest("GET", "/v1/x", nil))
	id := w.Header().Get(RequestIDHeader)
	_, err := uuid.Parse(id)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), id)
	assert.Contains(t, buf.String(), `"message":"HTTP request"`)

	supplied := uuid.NewString()
	req := httptest.NewRequest("GET", "/v1/x", nil)
	req.Header.Set(RequestIDHeader, supplied)
	assert.Equal(t, supplied, serve(router, req).Header().Get(RequestIDHeader))

	req = httptest.NewRequest("GET", "/v1/x", nil)
	req.Header.Set(RequestIDHeader, "not-a-uuid\nforged")
	assert.NotEqual(t, "not-a-uuid\nforged", serve(router, req).Header().Get(RequestIDHeader))
}
