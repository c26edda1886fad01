package server

import (
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// exemptPaths are never rate limited so health checks keep working under load.
var exemptPaths = map[string]bool{
	"/health": true,
	"/ready":  true,
}

// maxClients bounds the limiter table; idle entries are pruned past it.
const maxClients = 4096

type clientEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// clientLimiter applies a token bucket per client address.
type clientLimiter struct {
	mu      sync.Mutex
	limit   rate.Limit
	burst   int
	clients map[string]*clientEntry
}

// newClientLimiter returns a limiter allowing rps requests per second per
// client with the given burst. rps <= 0 disables limiting.
func newClientLimiter(rps float64, burst int) *clientLimiter {
	l := &clientLimiter{clients: make(map[string]*clientEntry)}
	l.SetLimits(rps, burst)
	return l
}

// SetLimits changes the limits for existing and future clients.
func (l *clientLimiter) SetLimits(rps float64, burst int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.limit = rate.Limit(rps)
	if rps <= 0 {
		l.limit = rate.Inf
	}
	l.burst = max(burst, 1)
	for _, c := range l.clients {
		c.limiter.SetLimit(l.limit)
		c.limiter.SetBurst(l.burst)
	}
}

// Allow reports whether a request from key may proceed now.
func (l *clientLimiter) Allow(key string) bool {
	now := time.Now()

	l.mu.Lock()
	if l.limit == rate.Inf {
		l.mu.Unlock()
		return true
	}
	c, ok := l.clients[key]
	if !ok {
		if len(l.clients) >= maxClients {
			l.pruneLocked(now.Add(-time.Minute))
		}
		c = &clientEntry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.clients[key] = c
	}
	c.lastSeen = now
	l.mu.Unlock()

	return c.limiter.AllowN(now, 1)
}

func (l *clientLimiter) pruneLocked(cutoff time.Time) {
	for key, c := range l.clients {
		if c.lastSeen.Before(cutoff) {
			delete(l.clients, key)
		}
	}
}

// Middleware rejects requests over the limit with 429.
func (l *clientLimiter) Middleware(next http.Handler, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if exemptPaths[r.URL.Path] {
			next.ServeHTTP(w, r)
			return
		}
		key := clientKey(r)
		if !l.Allow(key) {
			logger.Debug("rate limited", "client", key, "path", r.URL.Path)
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"error":"too many requests","kind":"rate_limited"}`))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientKey identifies the caller by remote IP.
func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return strings.TrimSpace(r.RemoteAddr)
	}
	return host
}
