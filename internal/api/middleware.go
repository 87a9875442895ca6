package api

import (
	"context"
	"net/http"
	"runtime/debug"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/Kerhoff/moamoa/internal/apperr"
	"github.com/Kerhoff/moamoa/internal/auth"
	"github.com/Kerhoff/moamoa/pkg/logger"
)

type userSlotKey struct{}

// userSlot lets the access log see the user id that authenticate resolves
// further down the chain.
type userSlot struct {
	id int64
}

// accessLog logs one line per request once the response is written.
func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		slot := &userSlot{}
		start := time.Now()

		next.ServeHTTP(ww, r.WithContext(context.WithValue(r.Context(), userSlotKey{}, slot)))

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		entry := logger.WithRequest(s.logger, middleware.GetReqID(r.Context()), slot.id).WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   status,
			"bytes":    ww.BytesWritten(),
			"duration": time.Since(start).String(),
		})
		if status >= http.StatusInternalServerError {
			entry.Warn("http request")
			return
		}
		entry.Info("http request")
	})
}

// recoverer turns a handler panic into a 500 envelope.
func (s *Server) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				logger.WithRequest(s.logger, middleware.GetReqID(r.Context()), auth.UserID(r.Context())).WithFields(logrus.Fields{
					"panic": rec,
					"stack": string(debug.Stack()),
				}).Error("handler panicked")
				s.respondFail(w, http.StatusInternalServerError, "INTERNAL_ERROR", "서버 오류가 발생했습니다", nil)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// authenticate requires a bearer token and stores its user id in the request
// context.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			s.respondError(w, r, apperr.Unauthorized("MISSING_TOKEN", "인증 토큰이 필요합니다"))
			return
		}

		claims, err := s.tokens.Parse(strings.TrimSpace(token))
		if err != nil {
			s.respondError(w, r, err)
			return
		}
		if slot, ok := r.Context().Value(userSlotKey{}).(*userSlot); ok {
			slot.id = claims.UserID
		}
		next.ServeHTTP(w, r.WithContext(auth.WithUserID(r.Context(), claims.UserID)))
	})
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per authenticated user, falling back to
// the remote address.
type RateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*clientLimiter
	rate     rate.Limit
	burst    int
	now      func() time.Time
}

// NewRateLimiter allows rps requests per second with the given burst. A
// non-positive rps disables limiting.
func NewRateLimiter(rps, burst int) *RateLimiter {
	if burst <= 0 {
		burst = rps
	}
	return &RateLimiter{
		limiters: make(map[string]*clientLimiter),
		rate:     rate.Limit(rps),
		burst:    burst,
		now:      time.Now,
	}
}

func (rl *RateLimiter) allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cl, ok := rl.limiters[key]
	if !ok {
		cl = &clientLimiter{limiter: rate.NewLimiter(rl.rate, rl.burst)}
		rl.limiters[key] = cl
	}
	cl.lastSeen = rl.now()
	return cl.limiter.AllowN(cl.lastSeen, 1)
}

// Handler returns the middleware. It must run after authenticate.
func (rl *RateLimiter) Handler(s *Server) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if rl.rate <= 0 {
				next.ServeHTTP(w, r)
				return
			}

			key := r.RemoteAddr
			if uid := auth.UserID(r.Context()); uid != 0 {
				key = "user:" + strconv.FormatInt(uid, 10)
			}

			if !rl.allow(key) {
				w.Header().Set("Retry-After", "1")
				s.respondError(w, r, apperr.RateLimited("RATE_LIMITED", "요청이 너무 많습니다. 잠시 후 다시 시도해주세요"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Sweep drops buckets idle for longer than idle and returns how many were
// removed.
func (rl *RateLimiter) Sweep(idle time.Duration) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := rl.now().Add(-idle)
	removed := 0
	for key, cl := range rl.limiters {
		if cl.lastSeen.Before(cutoff) {
			delete(rl.limiters, key)
			removed++
		}
	}
	return removed
}

// StartSweeper sweeps idle buckets every interval. It blocks until ctx is
// cancelled, so launch it in a goroutine.
func (rl *RateLimiter) StartSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.Sweep(interval)
		}
	}
}
