package sse

import (
	"errors"
	"log/slog"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriter_WriteEvent(t *testing.T) {
	rec := httptest.NewRecorder()
	w, err := NewWriter(rec)
	require.NoError(t, err)

	require.NoError(t, w.WriteEvent("render", "7", []byte("line one\nline two")))
	require.NoError(t, w.WriteKeepAlive())

	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.Equal(t, "id: 7\nevent: render\ndata: line one\ndata: line two\n\n: keepalive\n\n", rec.Body.String())
}

type countingWriter struct {
	calls     atomic.Int32
	failAfter int32
}

func (c *countingWriter) WriteKeepAlive() error {
	if c.calls.Add(1) > c.failAfter {
		return errors.New("closed")
	}
	return nil
}

func TestTickerKeepAlive_StopsOnWriteError(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	writer := &countingWriter{failAfter: 2}
	ka := NewTickerKeepAlive(time.Millisecond)

	select {
	case <-ka.Start(writer, logger):
	case <-time.After(2 * time.Second):
		t.Fatal("keep-alive did not stop after a failed write")
	}
	assert.Equal(t, int32(3), writer.calls.Load())

	ka.Stop()
	ka.Stop()
}

func TestTickerKeepAlive_Stop(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	ka := NewTickerKeepAlive(time.Hour)
	stopped := ka.Start(&countingWriter{failAfter: 100}, logger)

	ka.Stop()
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("keep-alive did not stop")
	}
}
