package httpx

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimitConfig defines a token-bucket rate limit.
type RateLimitConfig struct {
	// RequestsPerWindow allowed within Window.
	RequestsPerWindow int
	// Window over which RequestsPerWindow applies.
	Window time.Duration
	// Burst capacity available immediately.
	Burst int
}

var (
	// StrictLimit protects credential endpoints against brute force.
	StrictLimit = RateLimitConfig{RequestsPerWindow: 5, Window: time.Minute, Burst: 5}

	// LenientLimit suits ordinary authenticated traffic and health probes.
	LenientLimit = RateLimitConfig{RequestsPerWindow: 100, Window: time.Minute, Burst: 100}
)

// KeyExtractor derives the bucket key for a request.
type KeyExtractor func(*http.Request) string

// IPKey buckets by the client IP.
func IPKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// FormFieldKey buckets by a posted form field, e.g. the login username.
func FormFieldKey(field string) KeyExtractor {
	return func(r *http.Request) string {
		// ParseForm caches the body in r.PostForm, so downstream
		// handlers still see the fields.
		_ = r.ParseForm()
		return strings.ToLower(strings.TrimSpace(r.FormValue(field)))
	}
}

// CompositeKey joins several extractors into one bucket key.
func CompositeKey(extractors ...KeyExtractor) KeyExtractor {
	return func(r *http.Request) string {
		parts := make([]string, 0, len(extractors))
		for _, ex := range extractors {
			parts = append(parts, ex(r))
		}
		return strings.Join(parts, ":")
	}
}

// bucketSet is a lazily populated set of per-key limiters. Stale entries
// are pruned so the map cannot grow without bound.
type bucketSet struct {
	mu       sync.Mutex
	limiters map[string]*bucket
	limit    rate.Limit
	burst    int
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

const bucketIdleEviction = 10 * time.Minute

func newBucketSet(cfg RateLimitConfig) *bucketSet {
	return &bucketSet{
		limiters: make(map[string]*bucket),
		limit:    rate.Limit(float64(cfg.RequestsPerWindow) / cfg.Window.Seconds()),
		burst:    cfg.Burst,
	}
}

func (s *bucketSet) allow(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	b, ok := s.limiters[key]
	if !ok {
		for k, old := range s.limiters {
			if now.Sub(old.lastSeen) > bucketIdleEviction {
				delete(s.limiters, k)
			}
		}
		b = &bucket{limiter: rate.NewLimiter(s.limit, s.burst)}
		s.limiters[key] = b
	}
	b.lastSeen = now

	return b.limiter.Allow()
}

// RateLimit returns a middleware enforcing cfg per extracted key.
func RateLimit(cfg RateLimitConfig, extract KeyExtractor) Middleware {
	buckets := newBucketSet(cfg)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !buckets.allow(extract(r)) {
				w.Header().Set("Retry-After", "60")
				WriteError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RateLimitByIP limits per client IP.
func RateLimitByIP(cfg RateLimitConfig) Middleware {
	return RateLimit(cfg, IPKey)
}

// RateLimitByIPAndFormField limits per IP plus a form field. Used on login
// so one IP cannot hammer many usernames nor one username from many IPs
// drain a shared bucket.
func RateLimitByIPAndFormField(cfg RateLimitConfig, field string) Middleware {
	return RateLimit(cfg, CompositeKey(IPKey, FormFieldKey(field)))
}
