package chat

import (
	"encoding/json"
	"strings"
)

// Role identifies who produced a conversation node.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// NormalizeRole maps free-form role labels onto the three known roles.
// Anything meaning "the model" becomes assistant; unrecognized values
// become user so a turn is never silently dropped.
func NormalizeRole(raw string) Role {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "assistant", "ai", "bot", "model":
		return RoleAssistant
	case "system":
		return RoleSystem
	default:
		return RoleUser
	}
}

// UnmarshalJSON normalizes the role while decoding.
func (r *Role) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*r = NormalizeRole(raw)
	return nil
}
