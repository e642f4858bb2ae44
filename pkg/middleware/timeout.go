package middleware

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	apperrors "facilitybook/pkg/errors"
	httputil "facilitybook/pkg/http"
	"facilitybook/pkg/logger"
)

// deadlineWriter lets either the handler or the deadline answer the request,
// whichever writes first. Later writes are dropped.
type deadlineWriter struct {
	http.ResponseWriter
	mu      sync.Mutex
	expired bool
	started bool
}

func (dw *deadlineWriter) WriteHeader(code int) {
	dw.mu.Lock()
	defer dw.mu.Unlock()

	if dw.expired || dw.started {
		return
	}
	dw.started = true
	dw.ResponseWriter.WriteHeader(code)
}

func (dw *deadlineWriter) Write(b []byte) (int, error) {
	dw.mu.Lock()
	defer dw.mu.Unlock()

	if dw.expired {
		return 0, http.ErrHandlerTimeout
	}
	dw.started = true
	return dw.ResponseWriter.Write(b)
}

// expire marks the writer closed to the handler and reports whether the
// handler had already started its response.
func (dw *deadlineWriter) expire() bool {
	dw.mu.Lock()
	defer dw.mu.Unlock()
	dw.expired = true
	return dw.started
}

// RequestTimeout bounds each request by timeout. A handler that has not
// answered by then gets a TIMEOUT error in the API's usual error shape.
func RequestTimeout(timeout time.Duration, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()

			dw := &deadlineWriter{ResponseWriter: w}
			done := make(chan struct{})
			go func() {
				defer close(done)
				next.ServeHTTP(dw, r.WithContext(ctx))
			}()

			select {
			case <-done:
			case <-ctx.Done():
				if !errors.Is(ctx.Err(), context.DeadlineExceeded) {
					dw.expire()
					return
				}
				if dw.expire() {
					return
				}
				logger.FromContext(r.Context(), log).Warn("Request timed out",
					"method", r.Method,
					"path", r.URL.Path,
					"timeout", timeout,
				)
				_ = httputil.WriteError(w, apperrors.Timeout("Request timed out"))
			}
		})
	}
}
