package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func newTestLimiter(t *testing.T, cfg RateLimitConfig) *RateLimiter {
	t.Helper()
	rl := NewRateLimiter(cfg)
	t.Cleanup(rl.Stop)
	return rl
}

func TestRateLimiter_AllowWithinBurst(t *testing.T) {
	rl := newTestLimiter(t, RateLimitConfig{
		RequestsPerMinute: 60,
		BurstSize:         3,
		CleanupInterval:   time.Minute,
	})

	for i := 0; i < 3; i++ {
		if !rl.Allow("user:abc") {
			t.Fatalf("request %d should be allowed within burst", i+1)
		}
	}
	if rl.Allow("user:abc") {
		t.Error("request beyond burst should be denied")
	}
}

func TestRateLimiter_KeysAreIndependent(t *testing.T) {
	rl := newTestLimiter(t, RateLimitConfig{
		RequestsPerMinute: 60,
		BurstSize:         1,
		CleanupInterval:   time.Minute,
	})

	if !rl.Allow("user:a") {
		t.Fatal("first request for user:a should be allowed")
	}
	if !rl.Allow("user:b") {
		t.Error("user:b has their own bucket and should be allowed")
	}
}

func TestRateLimitMiddleware_Returns429WhenExhausted(t *testing.T) {
	rl := newTestLimiter(t, RateLimitConfig{
		RequestsPerMinute: 1,
		BurstSize:         1,
		CleanupInterval:   time.Minute,
	})

	router := gin.New()
	router.Use(RateLimitMiddleware(rl))
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	first := httptest.NewRecorder()
	router.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/", nil))
	if first.Code != http.StatusOK {
		t.Fatalf("first request: status = %d, want 200", first.Code)
	}
	if first.Header().Get("X-RateLimit-Limit") != "1" {
		t.Errorf("missing X-RateLimit-Limit header")
	}

	second := httptest.NewRecorder()
	router.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/", nil))
	if second.Code != http.StatusTooManyRequests {
		t.Fatalf("second request: status = %d, want 429", second.Code)
	}
	if second.Header().Get("Retry-After") != "60" {
		t.Errorf("missing Retry-After header")
	}
}

func TestRateLimitMiddleware_PrefersUserKey(t *testing.T) {
	rl := newTestLimiter(t, RateLimitConfig{
		RequestsPerMinute: 60,
		BurstSize:         1,
		CleanupInterval:   time.Minute,
	})

	router := gin.New()
	router.Use(IdentityMiddleware())
	router.Use(RateLimitMiddleware(rl))
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	// Exhaust one user's bucket; a different user from the same IP is
	// unaffected because the key is the identity, not the address.
	reqA := httptest.NewRequest(http.MethodGet, "/", nil)
	reqA.Header.Set(UserIDHeader, "user-a")
	wA := httptest.NewRecorder()
	router.ServeHTTP(wA, reqA)

	reqA2 := httptest.NewRequest(http.MethodGet, "/", nil)
	reqA2.Header.Set(UserIDHeader, "user-a")
	wA2 := httptest.NewRecorder()
	router.ServeHTTP(wA2, reqA2)
	if wA2.Code != http.StatusTooManyRequests {
		t.Fatalf("user-a second request: status = %d, want 429", wA2.Code)
	}

	reqB := httptest.NewRequest(http.MethodGet, "/", nil)
	reqB.Header.Set(UserIDHeader, "user-b")
	wB := httptest.NewRecorder()
	router.ServeHTTP(wB, reqB)
	if wB.Code != http.StatusOK {
		t.Errorf("user-b request: status = %d, want 200", wB.Code)
	}
}
