package streaming

import (
	"context"
	"errors"
	"io"
	"sync"

	"loom/internal/domain/models/chat"
)

// ErrSourceClosed is returned when pushing to a finished source.
var ErrSourceClosed = errors.New("chunk source is closed")

// ChunkSource yields the chunks of one streamed response. Recv returns
// io.EOF once the response is complete.
type ChunkSource interface {
	Recv(ctx context.Context) (chat.Chunk, error)
}

// ChannelSource is a ChunkSource fed by Push, typically from HTTP requests.
// Chunks pushed before Close are still delivered.
type ChannelSource struct {
	ch        chan chat.Chunk
	done      chan struct{}
	closeOnce sync.Once
}

// NewChannelSource creates a source buffering up to buffer chunks.
func NewChannelSource(buffer int) *ChannelSource {
	return &ChannelSource{
		ch:   make(chan chat.Chunk, buffer),
		done: make(chan struct{}),
	}
}

// Push queues a chunk, blocking while the buffer is full.
func (s *ChannelSource) Push(ctx context.Context, chunk chat.Chunk) error {
	select {
	case <-s.done:
		return ErrSourceClosed
	default:
	}

	select {
	case s.ch <- chunk:
		return nil
	case <-s.done:
		return ErrSourceClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close marks the end of the response. Safe to call more than once.
func (s *ChannelSource) Close() {
	s.closeOnce.Do(func() { close(s.done) })
}

// Recv implements ChunkSource.
func (s *ChannelSource) Recv(ctx context.Context) (chat.Chunk, error) {
	select {
	case chunk := <-s.ch:
		return chunk, nil
	case <-ctx.Done():
		return chat.Chunk{}, ctx.Err()
	case <-s.done:
		select {
		case chunk := <-s.ch:
			return chunk, nil
		default:
			return chat.Chunk{}, io.EOF
		}
	}
}

// SliceSource replays a fixed list of chunks.
type SliceSource struct {
	chunks []chat.Chunk
	next   int
}

// NewSliceSource creates a source over chunks.
func NewSliceSource(chunks []chat.Chunk) *SliceSource {
	return &SliceSource{chunks: chunks}
}

// Recv implements ChunkSource.
func (s *SliceSource) Recv(ctx context.Context) (chat.Chunk, error) {
	if err := ctx.Err(); err != nil {
		return chat.Chunk{}, err
	}
	if s.next >= len(s.chunks) {
		return chat.Chunk{}, io.EOF
	}
	chunk := s.chunks[s.next]
	s.next++
	return chunk, nil
}
