// Package streaming runs streaming turns: chunks flow from a source through
// a TurnStream and render events fan out to connected clients.
package streaming

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	mstream "github.com/haowjy/meridian-stream-go"

	"loom/internal/domain/models/chat"
	"loom/internal/service/chat/streamplan"
	"loom/internal/service/chat/thought"
)

// Event types
const (
	EventRender        = "render"
	EventTurnComplete  = "turn_complete"
	EventTurnError     = "turn_error"
	EventTurnCancelled = "turn_cancelled"
)

// Status of a streaming turn
type Status string

const (
	StatusStreaming Status = "streaming"
	StatusComplete  Status = "complete"
	StatusError     Status = "error"
	StatusCancelled Status = "cancelled"
)

// IsTerminal reports whether the turn has stopped streaming.
func (s Status) IsTerminal() bool {
	return s == StatusComplete || s == StatusError || s == StatusCancelled
}

// Event is one message for clients of a turn.
type Event struct {
	Type string
	Data []byte
}

// RenderEvent is the payload of EventRender.
type RenderEvent struct {
	TurnID string `json:"turn_id"`
	streamplan.Step
}

// State is a point-in-time view of a turn.
type State struct {
	TurnID string `json:"turn_id"`
	Status Status `json:"status"`
	Error  string `json:"error,omitempty"`
	streamplan.Snapshot
}

const clientBuffer = 64

// StreamExecutor wraps mstream.Stream and drives one turn's TurnStream from
// a ChunkSource. Chunks are consumed one at a time by the stream's work
// func; Snapshot and client management are safe from any goroutine.
type StreamExecutor struct {
	turnID string
	stream *mstream.Stream
	source ChunkSource
	logger *slog.Logger

	mu          sync.Mutex
	turn        *streamplan.TurnStream
	status      Status
	err         error
	completedAt time.Time

	clients   map[string]chan Event
	clientsMu sync.RWMutex
}

// NewStreamExecutor creates an executor for a turn. Event IDs are only
// generated in debug mode.
func NewStreamExecutor(turnID string, source ChunkSource, merger thought.Merger, logger *slog.Logger, debugMode bool) *StreamExecutor {
	se := &StreamExecutor{
		turnID:  turnID,
		source:  source,
		logger:  logger.With("turn_id", turnID),
		turn:    streamplan.NewTurnStream(merger, logger),
		status:  StatusStreaming,
		clients: make(map[string]chan Event),
	}

	se.stream = mstream.NewStream(
		turnID,
		se.workFunc,
		mstream.WithEventIDs(debugMode),
	)
	return se
}

// TurnID returns the turn this executor serves.
func (se *StreamExecutor) TurnID() string {
	return se.turnID
}

// GetStream returns the underlying mstream.Stream
func (se *StreamExecutor) GetStream() *mstream.Stream {
	return se.stream
}

// Start begins consuming the source in the background.
func (se *StreamExecutor) Start() {
	se.stream.Start()
}

func (se *StreamExecutor) workFunc(ctx context.Context, send func(mstream.Event)) error {
	return se.run(ctx, func(ev Event) {
		send(mstream.NewEvent(ev.Data).WithType(ev.Type))
		se.broadcast(ev)
	})
}

// closer is implemented by sources that accept pushed chunks.
type closer interface {
	Close()
}

// run consumes the source until it ends, fails or ctx is cancelled.
// Heartbeat chunks update state without emitting anything. A closable
// source is closed on return so later pushes fail fast.
func (se *StreamExecutor) run(ctx context.Context, emit func(Event)) error {
	defer se.closeClients()
	if c, ok := se.source.(closer); ok {
		defer c.Close()
	}

	for {
		chunk, err := se.source.Recv(ctx)
		if err != nil {
			return se.finish(ctx, err, emit)
		}

		se.mu.Lock()
		step := se.turn.Consume(chunk)
		se.mu.Unlock()

		if step.Transition.Action == chat.ActionNoop {
			continue
		}
		se.emit(emit, EventRender, RenderEvent{TurnID: se.turnID, Step: step})
	}
}

func (se *StreamExecutor) finish(ctx context.Context, err error, emit func(Event)) error {
	// Cancellation wins over a source that was closed at the same time.
	switch {
	case ctx.Err() != nil:
		se.setStatus(StatusCancelled, nil)
		se.emit(emit, EventTurnCancelled, se.Snapshot())
		se.logger.Info("turn stream cancelled")
		return nil

	case errors.Is(err, io.EOF):
		se.setStatus(StatusComplete, nil)
		se.emit(emit, EventTurnComplete, se.Snapshot())
		se.logger.Info("turn stream complete")
		return nil

	default:
		se.setStatus(StatusError, err)
		se.emit(emit, EventTurnError, se.Snapshot())
		se.logger.Error("turn stream failed", "error", err)
		return err
	}
}

func (se *StreamExecutor) emit(emit func(Event), eventType string, data interface{}) {
	payload, err := json.Marshal(data)
	if err != nil {
		se.logger.Error("failed to marshal event data", "error", err, "event_type", eventType)
		return
	}
	emit(Event{Type: eventType, Data: payload})
}

func (se *StreamExecutor) setStatus(status Status, err error) {
	se.mu.Lock()
	defer se.mu.Unlock()
	se.status = status
	se.err = err
	se.completedAt = time.Now()
}

// Status returns the current status.
func (se *StreamExecutor) Status() Status {
	se.mu.Lock()
	defer se.mu.Unlock()
	return se.status
}

// CompletedAt returns when the turn reached a terminal status, or the zero
// time while it is streaming.
func (se *StreamExecutor) CompletedAt() time.Time {
	se.mu.Lock()
	defer se.mu.Unlock()
	return se.completedAt
}

// Snapshot returns the accumulated state of the turn.
func (se *StreamExecutor) Snapshot() State {
	se.mu.Lock()
	defer se.mu.Unlock()

	state := State{
		TurnID:   se.turnID,
		Status:   se.status,
		Snapshot: se.turn.Snapshot(),
	}
	if se.err != nil {
		state.Error = se.err.Error()
	}
	return state
}

// AddClient registers a client and returns its event channel. The channel
// is closed when the turn ends or the client is removed. A client joining
// a finished turn gets a closed channel.
func (se *StreamExecutor) AddClient(clientID string) <-chan Event {
	se.clientsMu.Lock()
	defer se.clientsMu.Unlock()

	ch := make(chan Event, clientBuffer)
	if se.clients == nil {
		close(ch)
		return ch
	}
	se.clients[clientID] = ch
	return ch
}

// RemoveClient unregisters a client.
func (se *StreamExecutor) RemoveClient(clientID string) {
	se.clientsMu.Lock()
	defer se.clientsMu.Unlock()

	if ch, ok := se.clients[clientID]; ok {
		close(ch)
		delete(se.clients, clientID)
	}
}

// broadcast never blocks: a client that falls a full buffer behind misses
// events and can resync from Snapshot.
func (se *StreamExecutor) broadcast(ev Event) {
	se.clientsMu.RLock()
	defer se.clientsMu.RUnlock()

	for id, ch := range se.clients {
		select {
		case ch <- ev:
		default:
			se.logger.Warn("client buffer full, dropping event", "client_id", id, "event_type", ev.Type)
		}
	}
}

func (se *StreamExecutor) closeClients() {
	se.clientsMu.Lock()
	defer se.clientsMu.Unlock()

	for _, ch := range se.clients {
		close(ch)
	}
	se.clients = nil
}
