package history

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loom/internal/domain/models/chat"
)

func intPtr(v int) *int { return &v }

// chain builds nodes from a compact role string: u=user, a=assistant, s=system.
func chain(roles string) []chat.ConversationNode {
	nodes := make([]chat.ConversationNode, len(roles))
	for i, r := range roles {
		role := chat.RoleUser
		switch r {
		case 'a':
			role = chat.RoleAssistant
		case 's':
			role = chat.RoleSystem
		}
		nodes[i] = chat.ConversationNode{
			ID:      fmt.Sprintf("n%d", i),
			Role:    role,
			Content: chat.TextContent(fmt.Sprintf("%c%d", r, i)),
		}
	}
	return nodes
}

func TestSelectIndices(t *testing.T) {
	tests := []struct {
		name  string
		roles string
		c     Ceilings
		want  []int
	}{
		{
			name:  "unbounded includes everything",
			roles: "uaua",
			c:     Ceilings{},
			want:  []int{0, 1, 2, 3},
		},
		{
			name:  "one of each keeps newest pair",
			roles: "uauau",
			c:     Ceilings{User: intPtr(1), Assistant: intPtr(1)},
			want:  []int{3, 4},
		},
		{
			name:  "user ceiling zero still forces latest user",
			roles: "uaua u",
			c:     Ceilings{User: intPtr(0), Assistant: intPtr(2)},
			want:  []int{1, 3, 4},
		},
		{
			name:  "assistant ceiling zero drops assistant turns",
			roles: "uauau",
			c:     Ceilings{User: intPtr(2), Assistant: intPtr(0)},
			want:  []int{2, 4},
		},
		{
			name:  "system nodes are uncounted",
			roles: "suasu",
			c:     Ceilings{User: intPtr(1)},
			want:  []int{0, 2, 3, 4},
		},
		{
			name:  "scan stops once both ceilings reached",
			roles: "suau",
			c:     Ceilings{User: intPtr(1), Assistant: intPtr(1)},
			want:  []int{2, 3},
		},
		{
			name:  "negative ceiling is unbounded",
			roles: "uaua",
			c:     Ceilings{User: intPtr(-1), Assistant: intPtr(1)},
			want:  []int{0, 2, 3},
		},
		{
			name:  "no user node nothing forced",
			roles: "aa",
			c:     Ceilings{User: intPtr(0), Assistant: intPtr(0)},
			want:  []int{},
		},
		{
			name:  "empty chain",
			roles: "",
			c:     Ceilings{User: intPtr(3)},
			want:  []int{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nodes := chain(stripSpaces(tt.roles))
			got := SelectIndices(nodes, tt.c)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSelect_NeverExceedsCeilings(t *testing.T) {
	nodes := chain("uauauauauaua")
	for u := 0; u <= 4; u++ {
		for a := 0; a <= 4; a++ {
			got := Select(nodes, Ceilings{User: intPtr(u), Assistant: intPtr(a)})

			users, assistants := 0, 0
			for _, n := range got {
				if n.Role == chat.RoleUser {
					users++
				} else if n.Role == chat.RoleAssistant {
					assistants++
				}
			}

			maxUsers := u
			if u == 0 {
				maxUsers = 1 // forced latest user
			}
			assert.LessOrEqual(t, users, maxUsers, "u=%d a=%d", u, a)
			assert.LessOrEqual(t, assistants, a, "u=%d a=%d", u, a)
		}
	}
}

func TestSelect_PreservesOrderAndLatestUser(t *testing.T) {
	nodes := chain("uauaua")
	got := Select(nodes, Ceilings{User: intPtr(0), Assistant: intPtr(0)})
	require.Len(t, got, 1)
	assert.Equal(t, "n4", got[0].ID)
}

func TestLastN(t *testing.T) {
	nodes := chain("uaua")
	assert.Equal(t, []int{2, 3}, LastN(nodes, 2))
	assert.Equal(t, []int{0, 1, 2, 3}, LastN(nodes, 10))
	assert.Equal(t, []int{}, LastN(nodes, 0))
	assert.Equal(t, []int{0, 1, 2, 3}, All(nodes))
}

func stripSpaces(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if r != ' ' {
			out = append(out, r)
		}
	}
	return string(out)
}

func TestCeilingsIsSet(t *testing.T) {
	tests := []struct {
		name string
		c    Ceilings
		want bool
	}{
		{"both nil", Ceilings{}, false},
		{"user zero", Ceilings{User: intPtr(0)}, true},
		{"assistant only", Ceilings{Assistant: intPtr(2)}, true},
		{"negative counts as unset", Ceilings{User: intPtr(-1)}, false},
		{"negative and positive", Ceilings{User: intPtr(-1), Assistant: intPtr(1)}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.c.IsSet())
		})
	}
}
