// Package conversation keeps branching chat histories. There is no global
// cursor: callers always name the leaf whose path they want.
package conversation

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"loom/internal/domain"
	"loom/internal/domain/models/chat"
	chatRepo "loom/internal/domain/repositories/chat"
)

// MaxPathDepth bounds path walks so a corrupted parent chain cannot loop.
const MaxPathDepth = 1000

// Tree is an in-memory NodeRepository. It backs the CLI and tests, and the
// server when no database is configured.
type Tree struct {
	mu    sync.RWMutex
	chats map[string]map[string]chat.ConversationNode
	seq   map[string]int // insertion order, breaks CreatedAt ties
	now   func() time.Time
}

var _ chatRepo.NodeRepository = (*Tree)(nil)

// NewTree returns an empty tree.
func NewTree() *Tree {
	return &Tree{
		chats: make(map[string]map[string]chat.ConversationNode),
		seq:   make(map[string]int),
		now:   time.Now,
	}
}

// CreateNode implements NodeRepository.
func (t *Tree) CreateNode(_ context.Context, chatID string, node *chat.ConversationNode) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	nodes := t.chats[chatID]
	if nodes == nil {
		nodes = make(map[string]chat.ConversationNode)
		t.chats[chatID] = nodes
	}

	if node.ParentID != "" {
		if _, ok := nodes[node.ParentID]; !ok {
			return fmt.Errorf("parent node %s: %w", node.ParentID, domain.ErrNotFound)
		}
	}
	if node.ID == "" {
		node.ID = uuid.New().String()
	}
	if _, exists := nodes[node.ID]; exists {
		return &domain.ConflictError{
			Message:      fmt.Sprintf("node %s already exists", node.ID),
			ResourceType: "node",
			ResourceID:   node.ID,
		}
	}
	if node.CreatedAt.IsZero() {
		node.CreatedAt = t.now().UTC()
	}

	stored := *node
	stored.Content = node.Content.Clone()
	nodes[node.ID] = stored
	t.seq[node.ID] = len(t.seq)
	return nil
}

// GetNode implements NodeRepository.
func (t *Tree) GetNode(_ context.Context, chatID, nodeID string) (*chat.ConversationNode, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	node, ok := t.chats[chatID][nodeID]
	if !ok {
		return nil, fmt.Errorf("node %s: %w", nodeID, domain.ErrNotFound)
	}
	return &node, nil
}

// GetPath implements NodeRepository.
func (t *Tree) GetPath(_ context.Context, chatID, leafID string) ([]chat.ConversationNode, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	nodes := t.chats[chatID]
	if _, ok := nodes[leafID]; !ok {
		return nil, fmt.Errorf("node %s: %w", leafID, domain.ErrNotFound)
	}

	var path []chat.ConversationNode
	for id := leafID; id != "" && len(path) < MaxPathDepth; {
		node, ok := nodes[id]
		if !ok {
			break
		}
		path = append(path, node)
		id = node.ParentID
	}

	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path, nil
}

// GetChildren implements NodeRepository.
func (t *Tree) GetChildren(_ context.Context, chatID, parentID string) ([]chat.ConversationNode, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	children := []chat.ConversationNode{}
	for _, node := range t.chats[chatID] {
		if node.ParentID == parentID {
			children = append(children, node)
		}
	}

	sort.Slice(children, func(i, j int) bool {
		if !children[i].CreatedAt.Equal(children[j].CreatedAt) {
			return children[i].CreatedAt.Before(children[j].CreatedAt)
		}
		return t.seq[children[i].ID] < t.seq[children[j].ID]
	})
	return children, nil
}
