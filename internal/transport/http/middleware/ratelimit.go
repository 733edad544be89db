package middleware

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"flow4ops/internal/platform/requestctx"
	"flow4ops/internal/transport/http/api"
)

// Counter tracks hits per key inside a fixed window. The Redis
// implementation is shared across instances; the in-memory one covers a
// single process and is the fallback when Redis is not configured.
type Counter interface {
	Incr(ctx context.Context, key string, window time.Duration) (count int, resetIn time.Duration, err error)
}

type memoryCounter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
}

type bucket struct {
	count int
	reset time.Time
}

func NewMemoryCounter() Counter {
	return &memoryCounter{buckets: map[string]*bucket{}}
}

func (m *memoryCounter) Incr(_ context.Context, key string, window time.Duration) (int, time.Duration, error) {
	now := time.Now()
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.buckets[key]
	if !ok || now.After(b.reset) {
		b = &bucket{reset: now.Add(window)}
		m.buckets[key] = b
	}
	b.count++
	return b.count, b.reset.Sub(now), nil
}

type redisCounter struct {
	client *redis.Client
}

func NewRedisCounter(client *redis.Client) Counter {
	return &redisCounter{client: client}
}

func (rc *redisCounter) Incr(ctx context.Context, key string, window time.Duration) (int, time.Duration, error) {
	pipe := rc.client.TxPipeline()
	incr := pipe.Incr(ctx, "ratelimit:"+key)
	pipe.Expire(ctx, "ratelimit:"+key, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, 0, err
	}
	ttl, err := rc.client.TTL(ctx, "ratelimit:"+key).Result()
	if err != nil {
		ttl = window
	}
	return int(incr.Val()), ttl, nil
}

// RateLimit enforces a per-client fixed window on mutating requests.
// Counter errors fail open; throttling is best effort and must never
// take the login page down with Redis.
func RateLimit(limit int, window time.Duration, counter Counter, log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if limit <= 0 || r.Method == http.MethodGet || r.Method == http.MethodHead {
				next.ServeHTTP(w, r)
				return
			}

			key := ClientIP(r)
			count, resetIn, err := counter.Incr(r.Context(), key, window)
			if err != nil {
				log.Warn("rate limit counter unavailable", zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}

			resetSec := int(resetIn.Seconds())
			if resetSec < 1 {
				resetSec = 1
			}
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(max(limit-count, 0)))
			w.Header().Set("X-RateLimit-Reset", strconv.Itoa(resetSec))

			if count > limit {
				w.Header().Set("Retry-After", strconv.Itoa(resetSec))
				log.Warn("rate limit exceeded",
					zap.String("key", key),
					zap.String("path", r.URL.Path),
					zap.Int("limit", limit))
				api.Fail(w, http.StatusTooManyRequests, "rate_limited", "too many requests",
					requestctx.GetRequestID(r.Context()))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// ClientIP prefers the first X-Forwarded-For hop, then the socket peer.
func ClientIP(r *http.Request) string {
	if fwd := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); fwd != "" {
		if first := strings.TrimSpace(strings.Split(fwd, ",")[0]); first != "" {
			return first
		}
	}
	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err == nil && host != "" {
		return host
	}
	return strings.TrimSpace(r.RemoteAddr)
}
