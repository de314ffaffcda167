package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRateLimiter_Disabled(t *testing.T) {
	handler := NewRateLimiter(0, "", zap.NewNop()).Middleware(okHandler())
	for i := 0; i < 100; i++ {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	}
}

func TestRateLimiter_Exhausted(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	limiter := NewRateLimiter(2, "", zap.NewNop())
	limiter.now = func() time.Time { return now }
	handler := limiter.Middleware(okHandler())

	send := func(remoteAddr string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/av170001", nil)
		req.RemoteAddr = remoteAddr
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, http.StatusOK, send("10.0.0.1:1000").Code)
	assert.Equal(t, http.StatusOK, send("10.0.0.1:1001").Code)

	w := send("10.0.0.1:1002")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))

	// другой клиент имеет свой бюджет
	assert.Equal(t, http.StatusOK, send("10.0.0.2:1000").Code)

	now = now.Add(time.Second)
	assert.Equal(t, http.StatusOK, send("10.0.0.1:1003").Code)
}

func TestRateLimiter_SpoofedRealIPIgnored(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	limiter := NewRateLimiter(1, "", zap.NewNop())
	limiter.now = func() time.Time { return now }
	handler := limiter.Middleware(okHandler())

	codes := make([]int, 0, 3)
	for _, ip := range []string{"198.51.100.1", "198.51.100.2", "198.51.100.3"} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "203.0.113.5:4321"
		req.Header.Set("X-Real-IP", ip)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusTooManyRequests, http.StatusTooManyRequests}, codes)
	assert.Len(t, limiter.clients, 1)
}

func TestRateLimiter_TrustedProxy(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	limiter := NewRateLimiter(1, "10.0.0.0/8", zap.NewNop())
	limiter.now = func() time.Time { return now }
	handler := limiter.Middleware(okHandler())

	send := func(realIP string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.1.2.3:5000"
		req.Header.Set("X-Real-IP", realIP)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w.Code
	}

	// за прокси каждый реальный клиент получает свой бюджет
	assert.Equal(t, http.StatusOK, send("198.51.100.1"))
	assert.Equal(t, http.StatusOK, send("198.51.100.2"))
	assert.Equal(t, http.StatusTooManyRequests, send("198.51.100.1"))
}

func TestRateLimiter_IdleClientsEvicted(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	limiter := NewRateLimiter(1, "", zap.NewNop())
	limiter.now = func() time.Time { return now }

	assert.True(t, limiter.allow("a"))
	assert.True(t, limiter.allow("b"))
	assert.Len(t, limiter.clients, 2)

	now = now.Add(idleLimiterTTL + time.Second)
	assert.True(t, limiter.allow("a"))
	assert.Len(t, limiter.clients, 1)
}

func TestRateLimiter_SweepInterval(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	now := start
	limiter := NewRateLimiter(1, "", zap.NewNop())
	limiter.now = func() time.Time { return now }

	limiter.allow("a")
	now = start.Add(5 * time.Minute)
	limiter.allow("b")

	// первая очистка: b ещё активен
	now = start.Add(idleLimiterTTL + time.Second)
	limiter.allow("a")
	assert.Len(t, limiter.clients, 2)
	assert.Equal(t, now, limiter.lastSweep)

	// b уже простаивает дольше TTL, но до следующей очистки интервал не истёк
	now = start.Add(idleLimiterTTL + 5*time.Minute + 2*time.Second)
	limiter.allow("a")
	assert.Len(t, limiter.clients, 2)
	assert.Contains(t, limiter.clients, "b")

	now = start.Add(2*idleLimiterTTL + 2*time.Second)
	limiter.allow("a")
	assert.Len(t, limiter.clients, 1)
	assert.NotContains(t, limiter.clients, "b")
}

func TestNewRateLimiter_Burst(t *testing.T) {
	assert.Equal(t, 1, NewRateLimiter(0.5, "", zap.NewNop()).burst)
	assert.Equal(t, 3, NewRateLimiter(2.5, "", zap.NewNop()).burst)
	assert.Equal(t, 50, NewRateLimiter(50, "", zap.NewNop()).burst)
}

func TestNewRateLimiter_InvalidTrustedProxy(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	limiter := NewRateLimiter(1, "not-a-cidr", zap.New(core))

	assert.Nil(t, limiter.trustedProxy)
	assert.Equal(t, 1, logs.FilterMessage("Invalid trusted_proxy CIDR, X-Real-IP ignored").Len())
}

func TestRateLimiter_ClientKey(t *testing.T) {
	tests := []struct {
		name         string
		trustedProxy string
		remoteAddr   string
		realIP       string
		expected     string
	}{
		{"Remote address", "", "203.0.113.5:4321", "", "203.0.113.5"},
		{"Real IP without proxy", "", "203.0.113.5:4321", "198.51.100.7", "203.0.113.5"},
		{"Real IP from untrusted peer", "10.0.0.0/8", "203.0.113.5:4321", "198.51.100.7", "203.0.113.5"},
		{"Real IP from trusted proxy", "10.0.0.0/8", "10.0.0.2:4321", "198.51.100.7", "198.51.100.7"},
		{"Garbage real IP from trusted proxy", "10.0.0.0/8", "10.0.0.2:4321", "spoofed", "10.0.0.2"},
		{"Address without port", "", "pipe", "", "pipe"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			limiter := NewRateLimiter(1, tt.trustedProxy, zap.NewNop())
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.realIP != "" {
				req.Header.Set("X-Real-IP", tt.realIP)
			}
			assert.Equal(t, tt.expected, limiter.clientKey(req))
		})
	}
}
