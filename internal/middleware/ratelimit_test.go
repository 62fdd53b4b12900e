package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/studygrouphub/backend/internal/config"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newLimitedRouter(h gin.HandlerFunc) *gin.Engine {
	router := gin.New()
	router.Use(h)
	router.GET("/test", func(c *gin.Context) {
		c.JSON(200, gin.H{"code": 200})
	})
	return router
}

func hit(router *gin.Engine, ip string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/test", nil)
	req.RemoteAddr = ip + ":12345"
	router.ServeHTTP(w, req)
	return w
}

func TestRateLimit_AllowsNormalRequests(t *testing.T) {
	rl := NewRateLimiter(10, 10)
	defer rl.Close()

	if w := hit(newLimitedRouter(rl.Middleware()), "192.168.1.1"); w.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, w.Code)
	}
}

func TestRateLimit_BlocksExcessiveRequests(t *testing.T) {
	rl := NewRateLimiter(1, 2)
	defer rl.Close()
	router := newLimitedRouter(rl.Middleware())

	var last *httptest.ResponseRecorder
	for i := 0; i < 5; i++ {
		last = hit(router, "10.0.0.1")
	}

	if last.Code != http.StatusTooManyRequests {
		t.Fatalf("expected status %d after burst exceeded, got %d", http.StatusTooManyRequests, last.Code)
	}
	var body map[string]interface{}
	if err := json.Unmarshal(last.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body["code"] != float64(429) || body["msg"] == "" {
		t.Errorf("unexpected body %v", body)
	}
}

func TestRateLimit_IndependentPerIP(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	defer rl.Close()
	router := newLimitedRouter(rl.Middleware())

	if w := hit(router, "10.0.0.1"); w.Code != http.StatusOK {
		t.Errorf("IP1 first request: expected %d, got %d", http.StatusOK, w.Code)
	}
	if w := hit(router, "10.0.0.2"); w.Code != http.StatusOK {
		t.Errorf("IP2 first request: expected %d, got %d", http.StatusOK, w.Code)
	}
}

func TestRateLimit_DisabledPassesThrough(t *testing.T) {
	router := newLimitedRouter(RateLimit(config.RateLimitConfig{Enabled: false, RPS: 1, Burst: 1}))

	for i := 0; i < 5; i++ {
		if w := hit(router, "10.0.0.3"); w.Code != http.StatusOK {
			t.Fatalf("request %d blocked with %d", i, w.Code)
		}
	}
}
