package chat

import "strings"

// PromptKind names a prompt template in the catalog.
type PromptKind string

const (
	PromptKindChat      PromptKind = "chat"
	PromptKindSummarize PromptKind = "summarize"
	PromptKindExplain   PromptKind = "explain"
)

// FollowCurrentModel is the PromptTemplate.Model value meaning "use whatever
// model the conversation is on".
const FollowCurrentModel = "follow"

// PromptTemplate is a system template and its preferred model.
type PromptTemplate struct {
	Template string `json:"template" yaml:"template"`
	Model    string `json:"model,omitempty" yaml:"model"`
}

// PromptsConfig maps prompt kinds to templates. Read-only once loaded.
type PromptsConfig map[PromptKind]PromptTemplate

// Template returns the template text for kind, or "" when absent.
func (p PromptsConfig) Template(kind PromptKind) string {
	if p == nil {
		return ""
	}
	return p[kind].Template
}

// ResolveModel returns the preferred model for kind, falling back to current
// when the template follows the current model or does not exist.
func (p PromptsConfig) ResolveModel(kind PromptKind, current string) string {
	if p == nil {
		return current
	}
	tmpl, ok := p[kind]
	if !ok {
		return current
	}
	model := strings.TrimSpace(tmpl.Model)
	if model == "" || strings.EqualFold(model, FollowCurrentModel) {
		return current
	}
	return model
}
