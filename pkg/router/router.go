package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// New builds the chi router with request logging and panic recovery wired
// in.
func New(logger zerolog.Logger) *chi.Mux {
	r := chi.NewRouter()
	r.Use(RequestLogger(logger))
	r.Use(middleware.Recoverer)
	return r
}

// RequestLogger logs one line per request with method, path, status and
// duration, and makes the logger available on the request context.
func RequestLogger(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			start := time.Now()
			lrw := &loggingResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			reqLogger := logger.With().
				Str("method", req.Method).
				Str("path", req.URL.Path).
				Logger()
			ctx := reqLogger.WithContext(req.Context())

			next.ServeHTTP(lrw, req.WithContext(ctx))

			reqLogger.Info().
				Int("status", lrw.statusCode).
				Dur("took", time.Since(start)).
				Msg("request")
		})
	}
}

// loggingResponseWriter captures the status code for the request log.
type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}
