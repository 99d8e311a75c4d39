package chat

import (
	"context"

	"loom/internal/domain/models/chat"
)

// NodeRepository stores conversation nodes. Nodes form a tree per chat
// through ParentID; a branch is a node with siblings.
type NodeRepository interface {
	// CreateNode inserts a node. The parent, when set, must exist in the
	// same chat. ID and CreatedAt are filled in when empty.
	CreateNode(ctx context.Context, chatID string, node *chat.ConversationNode) error

	// GetNode returns one node of a chat.
	GetNode(ctx context.Context, chatID, nodeID string) (*chat.ConversationNode, error)

	// GetPath returns the nodes from the root down to leafID, inclusive.
	GetPath(ctx context.Context, chatID, leafID string) ([]chat.ConversationNode, error)

	// GetChildren returns the direct children of parentID ordered by
	// creation time. An empty parentID returns the roots.
	GetChildren(ctx context.Context, chatID, parentID string) ([]chat.ConversationNode, error)
}
