package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func TestLimiterStoreAllow(t *testing.T) {
	s := NewLimiterStore(60, 2, time.Minute)
	defer s.Stop()

	if !s.Allow("a") {
		t.Fatal("first request should be allowed")
	}
	if !s.Allow("a") {
		t.Fatal("second request within burst should be allowed")
	}
	if s.Allow("a") {
		t.Fatal("third request should exceed the burst")
	}
	// Other keys have their own limiter
	if !s.Allow("b") {
		t.Fatal("request for a fresh key should be allowed")
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	s := NewLimiterStore(60, 1, time.Minute)
	defer s.Stop()

	router := gin.New()
	router.Use(RateLimit(s))
	router.GET("/ping", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/ping", nil)
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	req, _ = http.NewRequest("GET", "/ping", nil)
	router.ServeHTTP(w, req)
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", w.Code)
	}
}
