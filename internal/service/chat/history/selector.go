// Package history decides which prior turns of a conversation are sent
// with a request.
package history

import (
	"sort"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"loom/internal/domain/models/chat"
)

// Ceilings caps how many user and assistant turns are included. A nil
// ceiling (or a negative one) leaves that role unbounded. Ceilings count
// turns, not tokens.
type Ceilings struct {
	User      *int `json:"user,omitempty"`
	Assistant *int `json:"assistant,omitempty"`
}

// IsSet reports whether at least one role ceiling is configured. Negative
// ceilings count as unset.
func (c Ceilings) IsSet() bool {
	_, user := limit(c.User)
	_, assistant := limit(c.Assistant)
	return user || assistant
}

func limit(ceiling *int) (int, bool) {
	if ceiling == nil || *ceiling < 0 {
		return 0, false
	}
	return *ceiling, true
}

// SelectIndices returns the ascending indices of nodes to include.
//
// Nodes are scanned newest first. A user or assistant node is taken while
// its role is under its ceiling; system nodes are always taken and not
// counted. The scan stops once both ceilings are finite and reached. The
// newest user node is always included, even with a ceiling of zero.
func SelectIndices(nodes []chat.ConversationNode, c Ceilings) []int {
	userMax, userBounded := limit(c.User)
	assistantMax, assistantBounded := limit(c.Assistant)

	included := make([]int, 0, len(nodes))
	userCount, assistantCount := 0, 0

	for i := len(nodes) - 1; i >= 0; i-- {
		if userBounded && assistantBounded && userCount >= userMax && assistantCount >= assistantMax {
			break
		}

		switch nodes[i].Role {
		case chat.RoleSystem:
			included = append(included, i)
		case chat.RoleAssistant:
			if !assistantBounded || assistantCount < assistantMax {
				included = append(included, i)
				assistantCount++
			}
		default:
			if !userBounded || userCount < userMax {
				included = append(included, i)
				userCount++
			}
		}
	}

	return EnsureLatestUser(nodes, included)
}

// Select returns the included nodes in their original order.
func Select(nodes []chat.ConversationNode, c Ceilings) []chat.ConversationNode {
	return Pick(nodes, SelectIndices(nodes, c))
}

// EnsureLatestUser adds the newest user node's index to indices when it is
// missing and returns the indices sorted ascending.
func EnsureLatestUser(nodes []chat.ConversationNode, indices []int) []int {
	latest := chat.LatestIndexOfRole(nodes, chat.RoleUser)
	if latest >= 0 {
		found := false
		for _, idx := range indices {
			if idx == latest {
				found = true
				break
			}
		}
		if !found {
			indices = append(indices, latest)
		}
	}
	sort.Ints(indices)
	return indices
}

// LastN returns the indices of the newest n nodes. n <= 0 selects nothing.
func LastN(nodes []chat.ConversationNode, n int) []int {
	if n <= 0 {
		return []int{}
	}
	start := len(nodes) - n
	if start < 0 {
		start = 0
	}
	indices := make([]int, 0, len(nodes)-start)
	for i := start; i < len(nodes); i++ {
		indices = append(indices, i)
	}
	return indices
}

// All returns every index of nodes.
func All(nodes []chat.ConversationNode) []int {
	return LastN(nodes, len(nodes))
}

// Pick returns nodes at the given indices, in the order given.
func Pick(nodes []chat.ConversationNode, indices []int) []chat.ConversationNode {
	out := make([]chat.ConversationNode, 0, len(indices))
	for _, idx := range indices {
		if idx >= 0 && idx < len(nodes) {
			out = append(out, nodes[idx])
		}
	}
	return out
}

// Validate rejects negative ceilings. Selection itself tolerates them.
func (c Ceilings) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.User, validation.Min(0)),
		validation.Field(&c.Assistant, validation.Min(0)),
	)
}
