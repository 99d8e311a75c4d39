package streaming

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	mstream "github.com/haowjy/meridian-stream-go"

	"loom/internal/domain"
	"loom/internal/domain/models/chat"
	"loom/internal/service/chat/thought"
)

const sourceBuffer = 256

// Service opens streaming turns and routes chunks, completion and
// interrupts to them.
type Service struct {
	executors *ExecutorRegistry
	streams   *mstream.Registry
	merger    thought.Merger
	logger    *slog.Logger
	debug     bool
}

// NewService creates a streaming service.
func NewService(executors *ExecutorRegistry, streams *mstream.Registry, merger thought.Merger, logger *slog.Logger, debug bool) *Service {
	return &Service{
		executors: executors,
		streams:   streams,
		merger:    merger,
		logger:    logger,
		debug:     debug,
	}
}

// Open creates, registers and starts the executor for a new turn.
func (s *Service) Open(turnID string) (*StreamExecutor, error) {
	source := NewChannelSource(sourceBuffer)
	executor := NewStreamExecutor(turnID, source, s.merger, s.logger, s.debug)

	if !s.executors.Register(executor) {
		return nil, &domain.ConflictError{
			Message:      fmt.Sprintf("turn %s is already streaming", turnID),
			ResourceType: "turn",
			ResourceID:   turnID,
		}
	}

	// Register before starting so interrupts can find the stream at once.
	s.streams.Register(executor.GetStream())
	executor.Start()

	s.logger.Info("stream registered, streaming started", "turn_id", turnID)
	return executor, nil
}

// Push feeds one chunk to a turn.
func (s *Service) Push(ctx context.Context, turnID string, chunk chat.Chunk) error {
	source, err := s.source(turnID)
	if err != nil {
		return err
	}
	if err := source.Push(ctx, chunk); err != nil {
		if errors.Is(err, ErrSourceClosed) {
			return fmt.Errorf("%w: turn %s is no longer accepting chunks", domain.ErrValidation, turnID)
		}
		return fmt.Errorf("push chunk: %w", err)
	}
	return nil
}

// Complete marks the end of a turn's response.
func (s *Service) Complete(turnID string) error {
	source, err := s.source(turnID)
	if err != nil {
		return err
	}
	source.Close()
	return nil
}

// Interrupt cancels a streaming turn.
func (s *Service) Interrupt(turnID string) error {
	stream := s.streams.Get(turnID)
	if stream == nil {
		return fmt.Errorf("turn %s is not currently streaming: %w", turnID, domain.ErrNotFound)
	}
	stream.Cancel()
	if source, err := s.source(turnID); err == nil {
		source.Close()
	}
	s.logger.Info("turn interrupted", "turn_id", turnID)
	return nil
}

// State returns the current snapshot of a turn.
func (s *Service) State(turnID string) (*State, error) {
	executor := s.executors.Get(turnID)
	if executor == nil {
		return nil, fmt.Errorf("turn %s: %w", turnID, domain.ErrNotFound)
	}
	state := executor.Snapshot()
	return &state, nil
}

// Executor returns the executor of a turn for event subscription.
func (s *Service) Executor(turnID string) (*StreamExecutor, error) {
	executor := s.executors.Get(turnID)
	if executor == nil {
		return nil, fmt.Errorf("turn %s: %w", turnID, domain.ErrNotFound)
	}
	return executor, nil
}

// source returns the pushable source of a turn opened by this service.
func (s *Service) source(turnID string) (*ChannelSource, error) {
	executor := s.executors.Get(turnID)
	if executor == nil {
		return nil, fmt.Errorf("turn %s: %w", turnID, domain.ErrNotFound)
	}
	source, ok := executor.source.(*ChannelSource)
	if !ok {
		return nil, fmt.Errorf("%w: turn %s does not accept pushed chunks", domain.ErrValidation, turnID)
	}
	return source, nil
}
