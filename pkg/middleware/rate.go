// Package middleware provides the HTTP middleware stack.
package middleware

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/bytekstore/bytek/pkg/response"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Limiter hands out one token bucket per client IP.
type Limiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	limit    rate.Limit
	burst    int
	idle     time.Duration
}

// NewLimiter allows max requests per window per IP, with bursts up to max.
func NewLimiter(max int, window time.Duration) *Limiter {
	return &Limiter{
		visitors: map[string]*visitor{},
		limit:    rate.Limit(float64(max) / window.Seconds()),
		burst:    max,
		idle:     3 * window,
	}
}

func (l *Limiter) get(ip string, now time.Time) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	v, ok := l.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.visitors[ip] = v
	}
	v.lastSeen = now
	return v.limiter
}

// Sweep drops visitors idle for longer than three windows.
func (l *Limiter) Sweep(now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for ip, v := range l.visitors {
		if now.Sub(v.lastSeen) > l.idle {
			delete(l.visitors, ip)
		}
	}
}

// Allow reports whether ip may make a request at now.
func (l *Limiter) Allow(ip string, now time.Time) bool {
	return l.get(ip, now).AllowN(now, 1)
}

// Handler is the middleware form of the limiter.
func (l *Limiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.Allow(ClientIP(r), time.Now()) {
			w.Header().Set("Retry-After", strconv.Itoa(int(1/float64(l.limit))+1))
			response.Error(w, http.StatusTooManyRequests, "Too Many Requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RateLimit limits each IP to max requests per window.
//
//	r.Use(middleware.RateLimit(120, time.Minute))
func RateLimit(max int, window time.Duration) func(http.Handler) http.Handler {
	l := NewLimiter(max, window)
	go func() {
		t := time.NewTicker(window)
		defer t.Stop()
		for now := range t.C {
			l.Sweep(now)
		}
	}()
	return l.Handler
}

// ClientIP is the first X-Forwarded-For hop, or the connection address.
func ClientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(first)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
