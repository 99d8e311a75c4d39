package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"loom/internal/httputil"
)

// Recovery turns a handler panic into a 500. If the handler already started
// its response (an SSE stream, say) the connection is left to close and
// only the log entry is written.
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tw := &trackingWriter{ResponseWriter: w}

			defer func() {
				if err := recover(); err != nil {
					if err == http.ErrAbortHandler {
						panic(err)
					}
					logger.Error("panic recovered",
						"error", err,
						"path", r.URL.Path,
						"method", r.Method,
						"user_id", httputil.GetUserID(r),
						"response_started", tw.started,
						"stack", string(debug.Stack()),
					)

					if !tw.started {
						httputil.RespondError(w, http.StatusInternalServerError, "internal server error")
					}
				}
			}()

			next.ServeHTTP(tw, r)
		})
	}
}

// trackingWriter records whether a response has started.
type trackingWriter struct {
	http.ResponseWriter
	started bool
}

func (w *trackingWriter) WriteHeader(status int) {
	w.started = true
	w.ResponseWriter.WriteHeader(status)
}

func (w *trackingWriter) Write(b []byte) (int, error) {
	w.started = true
	return w.ResponseWriter.Write(b)
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (w *trackingWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// Flush keeps SSE working through the wrapper.
func (w *trackingWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		w.started = true
		f.Flush()
	}
}
