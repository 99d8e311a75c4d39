package sse

import (
	"log/slog"
	"sync"
	"time"
)

// KeepAliveStrategy defines how keep-alive pings are sent to maintain SSE connections
type KeepAliveStrategy interface {
	// Start begins sending keep-alive pings using the provided writer.
	// The returned channel closes when the strategy stops, including after
	// a failed write.
	Start(writer KeepAliveWriter, logger *slog.Logger) <-chan struct{}

	// Stop terminates the keep-alive mechanism. Safe to call multiple times.
	Stop()
}

// KeepAliveWriter abstracts the mechanism for writing keep-alive messages
type KeepAliveWriter interface {
	// WriteKeepAlive writes a keep-alive message (SSE comment).
	// Returns error if connection is closed or write fails
	WriteKeepAlive() error
}

// TickerKeepAlive sends keep-alive pings at fixed intervals until stopped or
// a write fails.
type TickerKeepAlive struct {
	interval time.Duration
	done     chan struct{}
	stopOnce sync.Once
}

// NewTickerKeepAlive creates a new ticker-based keep-alive strategy
func NewTickerKeepAlive(interval time.Duration) *TickerKeepAlive {
	return &TickerKeepAlive{
		interval: interval,
		done:     make(chan struct{}),
	}
}

// Start implements KeepAliveStrategy.
func (k *TickerKeepAlive) Start(writer KeepAliveWriter, logger *slog.Logger) <-chan struct{} {
	ticker := time.NewTicker(k.interval)
	stopped := make(chan struct{})

	go func() {
		defer close(stopped)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if err := writer.WriteKeepAlive(); err != nil {
					logger.Warn("keep-alive write failed, stopping", "error", err)
					return
				}
			case <-k.done:
				return
			}
		}
	}()

	return stopped
}

// Stop implements KeepAliveStrategy.
func (k *TickerKeepAlive) Stop() {
	k.stopOnce.Do(func() { close(k.done) })
}
