package middleware

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// idleLimiterTTL: через сколько неактивный лимитер клиента удаляется.
// Очистка карты клиентов выполняется не чаще одного раза за этот интервал.
const idleLimiterTTL = 10 * time.Minute

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter ограничивает частоту запросов от одного клиента (token bucket на IP)
type RateLimiter struct {
	rps          rate.Limit
	burst        int
	trustedProxy *net.IPNet
	logger       *zap.Logger
	now          func() time.Time
	mu           sync.Mutex
	clients      map[string]*clientLimiter
	lastSweep    time.Time
}

// NewRateLimiter создаёт лимитер на rps запросов в секунду; burst округляется вверх и не меньше 1.
// X-Real-IP учитывается только для соединений из подсети trustedProxy; пустая подсеть отключает доверие к заголовку.
func NewRateLimiter(rps float64, trustedProxy string, logger *zap.Logger) *RateLimiter {
	burst := int(rps + 0.999)
	if burst < 1 {
		burst = 1
	}
	l := &RateLimiter{
		rps:     rate.Limit(rps),
		burst:   burst,
		logger:  logger,
		now:     time.Now,
		clients: make(map[string]*clientLimiter),
	}
	if trustedProxy != "" {
		_, network, err := net.ParseCIDR(trustedProxy)
		if err != nil {
			logger.Error("Invalid trusted_proxy CIDR, X-Real-IP ignored", zap.String("trusted_proxy", trustedProxy), zap.Error(err))
		} else {
			l.trustedProxy = network
		}
	}
	return l
}

// allow проверяет токен клиента
func (l *RateLimiter) allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if l.lastSweep.IsZero() {
		l.lastSweep = now
	}
	if now.Sub(l.lastSweep) > idleLimiterTTL {
		l.sweep(now)
	}

	c, ok := l.clients[key]
	if !ok {
		c = &clientLimiter{limiter: rate.NewLimiter(l.rps, l.burst)}
		l.clients[key] = c
	}
	c.lastSeen = now
	return c.limiter.AllowN(now, 1)
}

// sweep удаляет давно неактивных клиентов; вызывается под l.mu
func (l *RateLimiter) sweep(now time.Time) {
	for k, c := range l.clients {
		if now.Sub(c.lastSeen) > idleLimiterTTL {
			delete(l.clients, k)
		}
	}
	l.lastSweep = now
}

// Middleware возвращает 429, когда клиент исчерпал лимит. Нулевой rps отключает ограничение.
func (l *RateLimiter) Middleware(next http.Handler) http.Handler {
	if l.rps <= 0 {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := l.clientKey(r)
		if !l.allow(key) {
			l.logger.Warn("Rate limit exceeded", zap.String("client", key), zap.String("uri", r.RequestURI))
			w.Header().Set("Retry-After", strconv.Itoa(1))
			http.Error(w, "Too many requests", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientKey определяет клиента по адресу соединения.
// X-Real-IP принимается только от доверенного прокси.
func (l *RateLimiter) clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	if l.trustedProxy == nil {
		return host
	}
	peer := net.ParseIP(host)
	if peer == nil || !l.trustedProxy.Contains(peer) {
		return host
	}
	if ip := net.ParseIP(r.Header.Get("X-Real-IP")); ip != nil {
		return ip.String()
	}
	return host
}
