package restapi

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"stationboard.org/internal/models"
)

// limiterIdleTimeout is how long a client's limiter survives without traffic.
const limiterIdleTimeout = 10 * time.Minute

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimitMiddleware provides per-client rate limiting keyed by remote IP.
type RateLimitMiddleware struct {
	mu        sync.Mutex
	limiters  map[string]*clientLimiter
	rateLimit rate.Limit
	burstSize int
	now       func() time.Time

	cleanupTick *time.Ticker
	done        chan struct{}
	stopOnce    sync.Once
}

// NewRateLimitMiddleware allows ratePerSecond requests per second per client
// with bursts of burstSize. A rate of zero disables limiting.
func NewRateLimitMiddleware(ratePerSecond float64, burstSize int) *RateLimitMiddleware {
	rl := &RateLimitMiddleware{
		limiters:  make(map[string]*clientLimiter),
		rateLimit: rate.Inf,
		burstSize: burstSize,
		now:       time.Now,
		done:      make(chan struct{}),
	}
	if ratePerSecond > 0 {
		rl.rateLimit = rate.Limit(ratePerSecond)
		if rl.burstSize < 1 {
			rl.burstSize = 1
		}
		rl.cleanupTick = time.NewTicker(time.Minute)
		go rl.cleanup()
	}
	return rl
}

func (rl *RateLimitMiddleware) enabled() bool {
	return rl.rateLimit != rate.Inf
}

// getLimiter gets or creates the limiter for a client
func (rl *RateLimitMiddleware) getLimiter(client string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cl, ok := rl.limiters[client]
	if !ok {
		cl = &clientLimiter{limiter: rate.NewLimiter(rl.rateLimit, rl.burstSize)}
		rl.limiters[client] = cl
	}
	cl.lastSeen = rl.now()
	return cl.limiter
}

// Handler is the HTTP middleware function
func (rl *RateLimitMiddleware) Handler(next http.Handler) http.Handler {
	if !rl.enabled() {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.getLimiter(clientKey(r)).Allow() {
			rl.sendRateLimitExceeded(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// retryAfterSeconds is the time until one token is available, rounded up.
func (rl *RateLimitMiddleware) retryAfterSeconds() int {
	return int(math.Max(1, math.Ceil(1/float64(rl.rateLimit))))
}

// sendRateLimitExceeded sends a 429 Too Many Requests response
func (rl *RateLimitMiddleware) sendRateLimitExceeded(w http.ResponseWriter) {
	w.Header().Set("Retry-After", strconv.Itoa(rl.retryAfterSeconds()))
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(rl.burstSize))
	w.Header().Set("X-RateLimit-Remaining", "0")

	response := models.NewResponse(http.StatusTooManyRequests, nil, "rate limit exceeded, please try again later")
	writeJSON(w, response)
}

// cleanup periodically drops limiters of clients that went quiet
func (rl *RateLimitMiddleware) cleanup() {
	for {
		select {
		case <-rl.done:
			return
		case <-rl.cleanupTick.C:
			rl.evictIdle()
		}
	}
}

func (rl *RateLimitMiddleware) evictIdle() {
	cutoff := rl.now().Add(-limiterIdleTimeout)
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for key, cl := range rl.limiters {
		if cl.lastSeen.Before(cutoff) {
			delete(rl.limiters, key)
		}
	}
}

func (rl *RateLimitMiddleware) clients() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.limiters)
}

// Stop stops the cleanup goroutine. It is safe to call more than once.
func (rl *RateLimitMiddleware) Stop() {
	rl.stopOnce.Do(func() {
		if rl.cleanupTick != nil {
			rl.cleanupTick.Stop()
		}
		close(rl.done)
	})
}
