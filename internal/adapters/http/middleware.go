package httpadapter

import (
	"context"
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/kirillkom/unit-converter/internal/core/usecase"
)

const (
	requestIDHeader = "X-Request-Id"
	maxRequestIDLen = 128
)

func requestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(usecase.RequestIDKey{}).(string)
	return id
}

// requestIDMiddleware keeps a caller supplied X-Request-Id when it is sane
// and otherwise mints one. The id also rides on published conversion events.
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(requestIDHeader))
		if id == "" || len(id) > maxRequestIDLen {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), usecase.RequestIDKey{}, id)))
	})
}

func accessLogMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		client := r.RemoteAddr
		if host, _, err := net.SplitHostPort(client); err == nil {
			client = host
		}
		slog.Log(r.Context(), accessLevel(rec.status), "http_request",
			"request_id", requestIDFromContext(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"bytes", rec.written,
			"elapsed_ms", time.Since(start).Milliseconds(),
			"client", client,
		)
	})
}

// accessLevel is ERROR for 5xx, WARN for 4xx and INFO otherwise.
func accessLevel(status int) slog.Level {
	switch status / 100 {
	case 5:
		return slog.LevelError
	case 4:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}

// rateLimitMiddleware throttles the credential endpoints. Only POST and
// DELETE are limited so page loads never count against the budget.
func (rt *Router) rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if rt.authLimiter == nil || r.Method == http.MethodGet || r.Method == http.MethodHead {
			next.ServeHTTP(w, r)
			return
		}

		reservation := rt.authLimiter.Reserve()
		if !reservation.OK() {
			rt.rejectRateLimited(w, r, time.Second)
			return
		}
		if delay := reservation.Delay(); delay > 0 {
			reservation.Cancel()
			rt.rejectRateLimited(w, r, delay)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (rt *Router) rejectRateLimited(w http.ResponseWriter, r *http.Request, wait time.Duration) {
	if rt.metrics != nil {
		rt.metrics.RecordRateLimited(rt.service, r.URL.Path)
	}
	w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
	if isAPIPath(r.URL.Path) {
		writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: "too many attempts, slow down"})
		return
	}
	http.Error(w, "Too many attempts, try again shortly.", http.StatusTooManyRequests)
}

func newAuthLimiter(rps float64, burst int) *rate.Limiter {
	if rps <= 0 || burst <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(rps), burst)
}

type statusRecorder struct {
	http.ResponseWriter
	status  int
	written int
}

func (w *statusRecorder) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func (w *statusRecorder) Write(b []byte) (int, error) {
	n, err := w.ResponseWriter.Write(b)
	w.written += n
	return n, err
}
