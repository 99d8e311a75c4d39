// Package compose assembles the ordered, role-tagged messages sent to the
// model API for one turn.
package compose

import (
	"log/slog"
	"strings"

	"loom/internal/domain/models/chat"
	"loom/internal/service/chat/history"
	"loom/internal/service/chat/thought"
)

// ScreenshotNotice is added to the system block when a screenshot is attached.
const ScreenshotNotice = "A screenshot of the current page is attached to the latest user message. Use it together with the page context when answering."

// Composer builds request messages. It holds no per-request state and is
// safe for concurrent use.
type Composer struct {
	logger *slog.Logger
}

// NewComposer creates a Composer.
func NewComposer(logger *slog.Logger) *Composer {
	return &Composer{logger: logger}
}

// Compose returns the system message (if any) followed by the selected
// history. It never fails: missing optional inputs are skipped.
func (c *Composer) Compose(req *Request) []chat.ComposedMessage {
	if req == nil {
		return []chat.ComposedMessage{}
	}

	chain := effectiveChain(req)
	selected := history.Pick(chain, c.selectHistory(chain, req))

	var systemNodes []string
	messages := make([]chat.ComposedMessage, 0, len(selected)+1)
	dropped := 0

	for _, node := range selected {
		if node.Role == chat.RoleSystem {
			if text := strings.TrimSpace(stripContent(node.Content).PlainText()); text != "" {
				systemNodes = append(systemNodes, text)
			}
			continue
		}

		msg, keptReasoning := toComposed(node, req)
		if node.Reasoning != nil && !keptReasoning {
			dropped++
		}
		messages = append(messages, msg)
	}

	if system := buildSystemText(req, systemNodes); system != "" {
		messages = append([]chat.ComposedMessage{{
			Role:    chat.RoleSystem,
			Content: chat.TextContent(system),
		}}, messages...)
	}

	messages = SeparateUserTurns(messages)

	c.logger.Debug("composed request messages",
		"chain_length", len(req.Chain),
		"effective_length", len(chain),
		"selected", len(selected),
		"messages", len(messages),
		"reasoning_dropped", dropped,
		"send_history", req.SendHistory,
		"role_ceilings", req.Ceilings.IsSet(),
	)

	return messages
}

// effectiveChain truncates the chain at the regenerate target, inclusive.
// An unknown target leaves the chain whole.
func effectiveChain(req *Request) []chat.ConversationNode {
	if !req.Regenerate || req.RegenerateTargetID == "" {
		return req.Chain
	}
	for i, node := range req.Chain {
		if node.ID == req.RegenerateTargetID {
			return req.Chain[:i+1]
		}
	}
	return req.Chain
}

// selectHistory picks node indices for the three history modes and then
// applies the latest-user guarantee shared by all of them.
func (c *Composer) selectHistory(chain []chat.ConversationNode, req *Request) []int {
	if len(chain) == 0 {
		return []int{}
	}

	var indices []int
	switch {
	case !req.SendHistory:
		indices = []int{len(chain) - 1}
	case req.Ceilings.IsSet():
		indices = history.SelectIndices(chain, req.Ceilings)
	default:
		indices = legacyIndices(chain, req.LegacyCeiling)
	}

	return history.EnsureLatestUser(chain, indices)
}

func legacyIndices(chain []chat.ConversationNode, ceiling *int) []int {
	switch {
	case ceiling == nil || *ceiling < 0:
		return history.All(chain)
	case *ceiling == 0:
		return []int{}
	default:
		return history.LastN(chain, *ceiling)
	}
}

// toComposed projects a node into a request message. The second result
// reports whether the node's reasoning trace was attached.
func toComposed(node chat.ConversationNode, req *Request) (chat.ComposedMessage, bool) {
	msg := chat.ComposedMessage{
		Role:    node.Role,
		Content: stripContent(node.Content),
	}

	if reasoningMatches(node, req) {
		msg.Reasoning = node.Reasoning
		msg.SourceModelID = node.SourceModelID
		return msg, true
	}
	return msg, false
}

// reasoningMatches reports whether the node's trace may be replayed to the
// request's target. The signature and its payload are attached together or
// not at all.
func reasoningMatches(node chat.ConversationNode, req *Request) bool {
	if node.Reasoning == nil || req.TargetSource == "" {
		return false
	}
	if node.Reasoning.Source() != req.TargetSource {
		return false
	}
	if req.TargetModel != "" && node.SourceModelID != "" &&
		!strings.EqualFold(node.SourceModelID, req.TargetModel) {
		return false
	}
	return true
}

// stripContent removes thought spans from every text the node carries.
func stripContent(content chat.MessageContent) chat.MessageContent {
	if content.IsString() {
		return chat.TextContent(thought.Strip(content.Text))
	}

	parts := make([]chat.ContentPart, 0, len(content.Parts))
	for _, part := range content.Parts {
		if part.Type == chat.PartTypeText {
			part.Text = thought.Strip(part.Text)
			if strings.TrimSpace(part.Text) == "" {
				continue
			}
		}
		parts = append(parts, part)
	}
	return chat.PartsContent(parts...)
}
