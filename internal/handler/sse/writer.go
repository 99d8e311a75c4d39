package sse

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
)

// ErrStreamingUnsupported is returned when the response writer cannot flush.
var ErrStreamingUnsupported = errors.New("streaming unsupported")

// Writer writes Server-Sent Events. Events and keep-alive comments may come
// from different goroutines; writes are serialized.
type Writer struct {
	w       http.ResponseWriter
	flusher http.Flusher
	mu      sync.Mutex
}

// NewWriter sets the SSE response headers and returns a writer.
func NewWriter(w http.ResponseWriter) (*Writer, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, ErrStreamingUnsupported
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	return &Writer{w: w, flusher: flusher}, nil
}

// WriteEvent writes one event. Multi-line data is split into data: lines.
// An empty id omits the id field.
func (s *Writer) WriteEvent(eventType, id string, data []byte) error {
	var b strings.Builder
	if id != "" {
		fmt.Fprintf(&b, "id: %s\n", id)
	}
	if eventType != "" {
		fmt.Fprintf(&b, "event: %s\n", eventType)
	}
	for _, line := range strings.Split(string(data), "\n") {
		fmt.Fprintf(&b, "data: %s\n", line)
	}
	b.WriteString("\n")

	return s.write(b.String())
}

// WriteKeepAlive writes an SSE comment (: keepalive) and flushes.
// Implements KeepAliveWriter.
func (s *Writer) WriteKeepAlive() error {
	return s.write(": keepalive\n\n")
}

func (s *Writer) write(payload string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := fmt.Fprint(s.w, payload); err != nil {
		return fmt.Errorf("write failed: %w", err)
	}
	s.flusher.Flush()
	return nil
}
