package streaming

import (
	"context"
	"sync"
	"time"
)

// ExecutorRegistry tracks the executors of live and recently finished turns,
// keyed by turn ID. Finished executors stay readable for the retention
// period so late clients can still fetch the final state.
type ExecutorRegistry struct {
	executors map[string]*StreamExecutor
	mu        sync.RWMutex

	cleanupInterval time.Duration
	retentionPeriod time.Duration
}

// NewExecutorRegistry creates an empty registry.
func NewExecutorRegistry(cleanupInterval, retentionPeriod time.Duration) *ExecutorRegistry {
	return &ExecutorRegistry{
		executors:       make(map[string]*StreamExecutor),
		cleanupInterval: cleanupInterval,
		retentionPeriod: retentionPeriod,
	}
}

// Register adds an executor. It returns false if the turn already has one.
func (r *ExecutorRegistry) Register(executor *StreamExecutor) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.executors[executor.TurnID()]; exists {
		return false
	}
	r.executors[executor.TurnID()] = executor
	return true
}

// Get returns the executor for a turn, or nil.
func (r *ExecutorRegistry) Get(turnID string) *StreamExecutor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.executors[turnID]
}

// Remove drops a turn. Safe to call for unknown turns.
func (r *ExecutorRegistry) Remove(turnID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.executors, turnID)
}

// Count returns the number of tracked executors.
func (r *ExecutorRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.executors)
}

// StartCleanup removes expired executors every cleanup interval until ctx
// is done.
func (r *ExecutorRegistry) StartCleanup(ctx context.Context) {
	ticker := time.NewTicker(r.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			r.cleanup(now)
		}
	}
}

// cleanup removes executors that finished more than the retention period
// before now.
func (r *ExecutorRegistry) cleanup(now time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for turnID, executor := range r.executors {
		if !executor.Status().IsTerminal() {
			continue
		}
		if now.Sub(executor.CompletedAt()) > r.retentionPeriod {
			delete(r.executors, turnID)
			removed++
		}
	}
	return removed
}
