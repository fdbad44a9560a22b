// Package httpmw provides the small recovery/logging/metrics middleware
// chain that wraps the submission endpoint, grounded on the shape of
// baseplate.go's httpbp.DefaultMiddleware but adapted to plain net/http
// handlers instead of httpbp's HandlerFunc since this repo only needs the
// one HTTP surface.
package httpmw

import (
	"fmt"
	"net/http"
	"time"

	"github.com/mozilla/antenna/log"
)

// Middleware wraps an http.Handler with additional behavior.
type Middleware func(next http.Handler) http.Handler

// Wrap applies middlewares to next in the order given, so Wrap(h, A, B)
// runs A before B on the way in.
func Wrap(next http.Handler, middlewares ...Middleware) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		next = middlewares[i](next)
	}
	return next
}

// statusCodeRecorder captures the status code written to the underlying
// ResponseWriter so later middleware can observe it.
type statusCodeRecorder struct {
	http.ResponseWriter
	code int
}

func (r *statusCodeRecorder) WriteHeader(code int) {
	r.ResponseWriter.WriteHeader(code)
	if r.code == 0 {
		r.code = code
	}
}

func (r *statusCodeRecorder) status() int {
	if r.code == 0 {
		return http.StatusOK
	}
	return r.code
}

// Recovery recovers from a panic in next, logs it, and responds with a
// generic 500 instead of letting the panic escape the handler goroutine.
func Recovery(name string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					err, ok := rec.(error)
					if !ok {
						err = fmt.Errorf("panic in %q: %v", name, rec)
					}
					log.Errorw("recovered from panic", "endpoint", name, "err", err)
					http.Error(w, "internal server error", http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// Logging emits a structured per-request log line: method, path, status and
// latency.
func Logging(name string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := &statusCodeRecorder{ResponseWriter: w}
			next.ServeHTTP(wrapped, r)
			log.Infow("handled request",
				"endpoint", name,
				"method", r.Method,
				"path", r.URL.Path,
				"status", wrapped.status(),
				"duration_ms", time.Since(start).Milliseconds(),
			)
		})
	}
}
