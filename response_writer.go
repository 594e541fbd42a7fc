package inertia

import (
	"bytes"
	"net/http"

	"go.trall.dev/inertia/internal/inertiaheader"
)

var _ http.ResponseWriter = (*responseWriter)(nil)

// responseWriter buffers the response of the wrapped handler so that the
// middleware can adjust the status code and headers before anything reaches
// the client.
type responseWriter struct {
	w           http.ResponseWriter
	buf         bytes.Buffer
	statusCode  int
	wroteHeader bool
}

func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{
		w:           w,
		buf:         bytes.Buffer{},
		statusCode:  http.StatusOK,
		wroteHeader: false,
	}
}

func (w *responseWriter) Header() http.Header { return w.w.Header() }

// WriteHeader records the status code. Only the first call has effect.
func (w *responseWriter) WriteHeader(statusCode int) {
	if w.wroteHeader {
		return
	}

	w.statusCode = statusCode
	w.wroteHeader = true
}

func (w *responseWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}

	return w.buf.Write(b) //nolint:wrapcheck
}

// Unwrap returns the underlying ResponseWriter, for http.ResponseController.
func (w *responseWriter) Unwrap() http.ResponseWriter { return w.w }

// Empty reports whether the handler produced no response at all.
func (w *responseWriter) Empty() bool { return !w.wroteHeader && w.buf.Len() == 0 }

// isRedirect reports whether the buffered response sends the client
// elsewhere, either with a 3xx redirect or an Inertia location visit.
func (w *responseWriter) isRedirect() bool {
	h := w.Header()
	if w.statusCode == http.StatusConflict {
		return h.Get(inertiaheader.HeaderXInertiaLocation) != ""
	}

	return w.statusCode >= http.StatusMultipleChoices && w.statusCode < http.StatusBadRequest &&
		h.Get(inertiaheader.HeaderLocation) != ""
}

// flush sends the buffered response to the client.
func (w *responseWriter) flush() {
	w.w.WriteHeader(w.statusCode)
	_, _ = w.buf.WriteTo(w.w)
}
