package middleware

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"intervai/internal/models"
	"intervai/internal/utils"
)

// RateLimitRule is a token-bucket rule: Rate tokens per second refill, Burst
// the bucket size. PerMinute builds the common per-minute fixed allowance.
type RateLimitRule struct {
	Rate  float64
	Burst int
}

func PerMinute(n int) RateLimitRule {
	return RateLimitRule{Rate: float64(n) / 60.0, Burst: n}
}

// RateLimiter holds one token bucket per principal+group key. A single
// instance is shared across all rate-limited routes.
type RateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*rateBucket
	now     func() time.Time
}

type rateBucket struct {
	tokens float64
	last   time.Time
}

func NewRateLimiter(now func() time.Time) *RateLimiter {
	if now == nil {
		now = time.Now
	}
	return &RateLimiter{
		buckets: make(map[string]*rateBucket),
		now:     now,
	}
}

// Limit enforces one rule for a route group. The principal is the
// authenticated user ID, falling back to client IP for unauthenticated
// routes.
func (l *RateLimiter) Limit(group string, rule RateLimitRule) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal := GetUserID(r)
			if principal == "" {
				principal = clientIP(r)
			}
			key := principal + "|" + group

			allowed, retryAfter := l.Allow(key, rule)
			if allowed {
				next.ServeHTTP(w, r)
				return
			}

			retryAfterSeconds := int(math.Ceil(retryAfter.Seconds()))
			if retryAfterSeconds <= 0 {
				retryAfterSeconds = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds))
			utils.JSON(w, http.StatusTooManyRequests, models.ErrorResponse{
				Code:    "rate_limited",
				Message: "Too many requests, retry later",
			})
		})
	}
}

// Allow reports whether one request may pass and, when denied, how long
// until the next token is available.
func (l *RateLimiter) Allow(key string, rule RateLimitRule) (bool, time.Duration) {
	if rule.Rate <= 0 || rule.Burst <= 0 {
		return true, 0
	}
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()

	bucket, ok := l.buckets[key]
	if !ok {
		bucket = &rateBucket{tokens: float64(rule.Burst), last: now}
		l.buckets[key] = bucket
	}
	elapsed := now.Sub(bucket.last).Seconds()
	if elapsed > 0 {
		bucket.tokens = math.Min(float64(rule.Burst), bucket.tokens+elapsed*rule.Rate)
		bucket.last = now
	}
	if bucket.tokens >= 1 {
		bucket.tokens--
		return true, 0
	}
	waitSec := (1 - bucket.tokens) / rule.Rate
	return false, time.Duration(math.Ceil(waitSec*1000.0)) * time.Millisecond
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if idx := strings.IndexByte(fwd, ','); idx >= 0 {
			return strings.TrimSpace(fwd[:idx])
		}
		return strings.TrimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
