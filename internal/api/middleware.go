package api

import (
	"fmt"
	"math"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// RequestLogger logs one structured line per request
func RequestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			logger.Info("HTTP request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", status),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("remote_ip", clientIP(r)),
				zap.String("request_id", middleware.GetReqID(r.Context())))
		})
	}
}

// Recoverer turns a handler panic into a logged 500 JSON response
func Recoverer(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}
					logger.Error("Panic recovered",
						zap.String("panic", fmt.Sprintf("%v", rec)),
						zap.String("path", r.URL.Path),
						zap.Stack("stack"))
					respondError(w, r, http.StatusInternalServerError, "Internal server error", "", nil)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// SecurityHeaders sets conservative browser security headers
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "SAMEORIGIN")
		h.Set("Referrer-Policy", "no-referrer")
		next.ServeHTTP(w, r)
	})
}

// RateLimiter keeps one token bucket per client IP. A bucket holds max tokens and
// refills fully over window, which approximates max requests per window.
type RateLimiter struct {
	name     string
	max      int
	window   time.Duration
	limit    rate.Limit
	mu       sync.Mutex
	clients  map[string]*clientLimiter
	now      func() time.Time
	lastScan time.Time
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter creates a limiter allowing max requests per window for each client
func NewRateLimiter(name string, max int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		name:    name,
		max:     max,
		window:  window,
		limit:   rate.Every(window / time.Duration(max)),
		clients: make(map[string]*clientLimiter),
		now:     time.Now,
	}
}

// Allow reports whether the client identified by key may proceed
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	rl.evictIdle(now)

	cl, ok := rl.clients[key]
	if !ok {
		cl = &clientLimiter{limiter: rate.NewLimiter(rl.limit, rl.max)}
		rl.clients[key] = cl
	}
	cl.lastSeen = now
	return cl.limiter.AllowN(now, 1)
}

// evictIdle drops buckets that have refilled completely. Callers hold rl.mu.
func (rl *RateLimiter) evictIdle(now time.Time) {
	if now.Sub(rl.lastScan) < rl.window {
		return
	}
	rl.lastScan = now
	for key, cl := range rl.clients {
		if now.Sub(cl.lastSeen) > rl.window {
			delete(rl.clients, key)
		}
	}
}

// Middleware rejects requests over the budget with 429
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	retryAfter := int(math.Ceil(rl.window.Seconds()))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.Allow(clientIP(r)) {
			w.Header().Set("Retry-After", fmt.Sprintf("%d", retryAfter))
			respondJSON(w, http.StatusTooManyRequests, errorResponse{
				Success:    false,
				Error:      rl.name + " rate limit exceeded",
				Message:    "Too many requests from this IP. Please try again later.",
				Timestamp:  timestamp(),
				Path:       r.URL.Path,
				Method:     r.Method,
				RetryAfter: retryAfter,
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// passthrough is used in place of a disabled limiter
func passthrough(next http.Handler) http.Handler {
	return next
}

// clientIP strips the port from RemoteAddr. RealIP only rewrites it when the proxy is trusted.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
