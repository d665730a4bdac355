package middleware

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"getgsa/onboarding/pkg/api/types"
	"getgsa/onboarding/pkg/telemetry/metrics"
)

// visitorTTL is how long an idle client's limiter is kept.
const visitorTTL = 3 * time.Minute

// RateLimiter enforces a per-client request budget with one token bucket
// per remote IP.
type RateLimiter struct {
	limit   rate.Limit
	burst   int
	exempt  map[string]bool
	metrics *metrics.Collector

	mu          sync.Mutex
	visitors    map[string]*visitor
	lastCleanup time.Time
	now         func() time.Time
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter allows perMinute requests per client per minute, with
// bursts of up to perMinute. Requests to exempt paths are never limited.
func NewRateLimiter(perMinute int, exempt []string, collector *metrics.Collector) *RateLimiter {
	if perMinute <= 0 {
		perMinute = 1
	}
	rl := &RateLimiter{
		limit:    rate.Every(time.Minute / time.Duration(perMinute)),
		burst:    perMinute,
		exempt:   make(map[string]bool, len(exempt)),
		metrics:  collector,
		visitors: make(map[string]*visitor),
		now:      time.Now,
	}
	for _, p := range exempt {
		rl.exempt[p] = true
	}
	return rl
}

// limiter returns the limiter for key, creating it if necessary. Stale
// visitors are swept at most once per TTL.
func (rl *RateLimiter) limiter(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if rl.lastCleanup.IsZero() {
		rl.lastCleanup = now
	}
	if now.Sub(rl.lastCleanup) > visitorTTL {
		for k, v := range rl.visitors {
			if now.Sub(v.lastSeen) > visitorTTL {
				delete(rl.visitors, k)
			}
		}
		rl.lastCleanup = now
	}

	v, ok := rl.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.visitors[key] = v
	}
	v.lastSeen = now
	return v.limiter
}

// Visitors returns the number of tracked clients.
func (rl *RateLimiter) Visitors() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.visitors)
}

// Middleware rejects requests over budget with 429 and a Retry-After hint.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if rl.exempt[r.URL.Path] {
			next.ServeHTTP(w, r)
			return
		}

		lim := rl.limiter(clientIP(r))
		res := lim.ReserveN(rl.now(), 1)
		if delay := res.DelayFrom(rl.now()); delay > 0 {
			res.CancelAt(rl.now())
			rl.metrics.RecordRateLimited()
			w.Header().Set("Retry-After", strconv.Itoa(int(delay.Seconds())+1))
			types.WriteError(w, http.StatusTooManyRequests,
				types.NewRateLimitError("Rate limit exceeded, please retry later"))
			return
		}

		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		ip = strings.Trim(r.RemoteAddr, "[]")
	}
	return ip
}
