package chat

import (
	"encoding/json"
	"log/slog"
	"time"
)

// ConversationNode is one turn in the chat-history tree.
// Nodes link to their parent; a root node has an empty ParentID.
type ConversationNode struct {
	ID            string          `json:"id"`
	ParentID      string          `json:"parent_id,omitempty"`
	Role          Role            `json:"role"`
	Content       MessageContent  `json:"content"`
	Reasoning     *ReasoningTrace `json:"reasoning,omitempty"`
	SourceModelID string          `json:"source_model_id,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// UnmarshalJSON decodes a node, dropping a reasoning unit that is not a
// valid signed trace instead of failing the whole node.
func (n *ConversationNode) UnmarshalJSON(data []byte) error {
	type nodeAlias ConversationNode
	aux := struct {
		*nodeAlias
		Reasoning json.RawMessage `json:"reasoning,omitempty"`
	}{nodeAlias: (*nodeAlias)(n)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	n.Reasoning = nil
	if len(aux.Reasoning) == 0 || string(aux.Reasoning) == "null" {
		return nil
	}
	var trace ReasoningTrace
	if err := json.Unmarshal(aux.Reasoning, &trace); err != nil {
		slog.Debug("dropping invalid reasoning", "node_id", n.ID, "error", err)
		return nil
	}
	n.Reasoning = &trace
	return nil
}

// ComposedMessage is the request-shaped projection of a node. It is rebuilt
// for every request and never stored.
type ComposedMessage struct {
	Role          Role            `json:"role"`
	Content       MessageContent  `json:"content"`
	Reasoning     *ReasoningTrace `json:"reasoning,omitempty"`
	SourceModelID string          `json:"source_model_id,omitempty"`
}

// PageContext describes the page the user is looking at.
type PageContext struct {
	Title   string `json:"title,omitempty"`
	URL     string `json:"url,omitempty"`
	Content string `json:"content,omitempty"`
}

// LatestIndexOfRole returns the index of the newest node with the given role,
// or -1 if there is none.
func LatestIndexOfRole(nodes []ConversationNode, role Role) int {
	for i := len(nodes) - 1; i >= 0; i-- {
		if nodes[i].Role == role {
			return i
		}
	}
	return -1
}
