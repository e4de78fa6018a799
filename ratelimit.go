package httprpc

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimitConfig configures the RateLimit middleware.
type RateLimitConfig struct {
	Rate  float64 // calls per second per key
	Burst int     // max burst per key

	// KeyFunc picks the bucket a request draws from. The default is the
	// client IP; OperationKey gives each client a budget per operation.
	KeyFunc func(r *http.Request) string

	// OnLimit writes the rejection. The default is a 429 problem.
	OnLimit func(w http.ResponseWriter, r *http.Request)

	CleanupInterval time.Duration // how often idle buckets are pruned (default: 1m)
	MaxIdle         time.Duration // buckets idle longer than this are dropped (default: 5m)
}

// RateLimit returns middleware that applies per-key token buckets ahead of
// dispatch. Rejected requests get Retry-After in whole seconds, computed from
// when the bucket will next have a token.
func RateLimit(cfg RateLimitConfig) Middleware {
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = clientIP
	}
	if cfg.OnLimit == nil {
		cfg.OnLimit = func(w http.ResponseWriter, r *http.Request) {
			writeProblem(w, r, http.StatusTooManyRequests, "rate limit exceeded")
		}
	}

	buckets := &limiterSet{
		limit:           rate.Limit(cfg.Rate),
		burst:           cfg.Burst,
		cleanupInterval: cfg.CleanupInterval,
		maxIdle:         cfg.MaxIdle,
		entries:         make(map[string]*limiterEntry),
	}
	if buckets.cleanupInterval <= 0 {
		buckets.cleanupInterval = time.Minute
	}
	if buckets.maxIdle <= 0 {
		buckets.maxIdle = 5 * time.Minute
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if wait, ok := buckets.take(cfg.KeyFunc(r), time.Now()); !ok {
				w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds(wait)))
				cfg.OnLimit(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// OperationKey returns a RateLimitConfig.KeyFunc that buckets by the
// operation of s a request resolves to and the client IP. Requests that
// match no operation share one bucket per client.
func OperationKey(s *Server) func(r *http.Request) string {
	return func(r *http.Request) string {
		name, ok := s.OperationName(r.Method, r.URL.EscapedPath())
		if !ok {
			name = unroutedOperation
		}
		return name + " " + clientIP(r)
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// retryAfterSeconds rounds a wait up to whole seconds, never below one.
func retryAfterSeconds(wait time.Duration) int {
	return max(1, int(math.Ceil(wait.Seconds())))
}

// limiterSet is a lazily pruned map of token buckets.
type limiterSet struct {
	limit           rate.Limit
	burst           int
	cleanupInterval time.Duration
	maxIdle         time.Duration

	mu          sync.Mutex
	entries     map[string]*limiterEntry
	lastCleanup time.Time
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// take consumes a token for key. When none is available it reports how
// long until one will be, and consumes nothing.
func (ls *limiterSet) take(key string, now time.Time) (time.Duration, bool) {
	lim := ls.limiter(key, now)

	res := lim.ReserveN(now, 1)
	if !res.OK() {
		return time.Duration(math.MaxInt64), false
	}
	if wait := res.DelayFrom(now); wait > 0 {
		res.CancelAt(now)
		return wait, false
	}
	return 0, true
}

func (ls *limiterSet) limiter(key string, now time.Time) *rate.Limiter {
	ls.mu.Lock()
	defer ls.mu.Unlock()

	if now.Sub(ls.lastCleanup) >= ls.cleanupInterval {
		for k, e := range ls.entries {
			if now.Sub(e.lastSeen) > ls.maxIdle {
				delete(ls.entries, k)
			}
		}
		ls.lastCleanup = now
	}

	e, ok := ls.entries[key]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(ls.limit, ls.burst)}
		ls.entries[key] = e
	}
	e.lastSeen = now
	return e.limiter
}
