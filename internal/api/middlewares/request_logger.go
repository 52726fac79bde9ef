package middleware

import (
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/markdave123-py/baboon-api/internal/logging"
)

// RequestLogger logs method, path, status and duration for every request.
func RequestLogger(log logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			args := []any{
				"method", r.Method,
				"path", r.URL.Path,
				"status", status,
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
			}
			if id := chimw.GetReqID(r.Context()); id != "" {
				args = append(args, "request_id", id)
			}

			if status >= http.StatusInternalServerError {
				log.Error(r.Context(), "request", args...)
				return
			}
			log.Info(r.Context(), "request", args...)
		})
	}
}
