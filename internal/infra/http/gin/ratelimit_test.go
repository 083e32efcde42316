package ginserver

import (
	"net/http"
	"net/http/httptest"
	"testing"

	gin "github.com/gin-gonic/gin"
)

func newLimitedRouter(perSecond float64, burst int) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(NewRateLimiter(perSecond, burst).Middleware())
	router.GET("/ping", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return router
}

func doRequest(router *gin.Engine, remoteAddr string) int {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.RemoteAddr = remoteAddr
	router.ServeHTTP(rec, req)
	return rec.Code
}

func TestRateLimiterThrottlesPerClient(t *testing.T) {
	router := newLimitedRouter(0.001, 2)

	for i := 0; i < 2; i++ {
		if code := doRequest(router, "10.0.0.1:50000"); code != http.StatusOK {
			t.Fatalf("request %d: got %d, want %d", i+1, code, http.StatusOK)
		}
	}
	if code := doRequest(router, "10.0.0.1:50000"); code != http.StatusTooManyRequests {
		t.Fatalf("burst exhausted: got %d, want %d", code, http.StatusTooManyRequests)
	}

	// A different client has its own bucket.
	if code := doRequest(router, "10.0.0.2:50000"); code != http.StatusOK {
		t.Fatalf("second client: got %d, want %d", code, http.StatusOK)
	}
}

func TestRateLimiterDefaults(t *testing.T) {
	limiter := NewRateLimiter(0, 0)
	if limiter.limit != 20 {
		t.Fatalf("limit = %v, want 20", limiter.limit)
	}
	if limiter.burst != 40 {
		t.Fatalf("burst = %d, want 40", limiter.burst)
	}
}
