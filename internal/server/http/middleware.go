package http

import (
	"net/http"
	"time"

	"github.com/dmitrijs2005/ingestgate/internal/logging"
	"golang.org/x/time/rate"
)

// RequestIDHeader is echoed on every response.
const RequestIDHeader = "X-Request-Id"

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := logging.WithRequestID(r.Context(), r.Header.Get(RequestIDHeader))
		w.Header().Set(RequestIDHeader, logging.RequestID(ctx))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func withLogging(l logging.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		l.Debug(r.Context(), "http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start).String(),
		)
	})
}

// withRateLimit rejects requests beyond the global limiter with 429. A nil
// limiter disables limiting.
func withRateLimit(lim *rate.Limiter, next http.Handler) http.Handler {
	if lim == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !lim.Allow() {
			writeJSON(w, http.StatusTooManyRequests, Response{Error: map[string]any{"request": []string{"rate limit exceeded"}}})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// NewLimiter returns nil when perSecond is not positive.
func NewLimiter(perSecond float64, burst int) *rate.Limiter {
	if perSecond <= 0 {
		return nil
	}
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(perSecond), burst)
}
