package payload

import (
	"encoding/json"
	"fmt"

	"loom/internal/domain/models/chat"
)

// UnifiedRequest is an OpenAI Chat Completions body, the shape accepted by
// OpenAI-compatible gateways.
type UnifiedRequest struct {
	Model     string    `json:"model"`
	Messages  []Message `json:"messages"`
	Stream    bool      `json:"stream,omitempty"`
	MaxTokens int       `json:"max_tokens,omitempty"`
}

// Message is a single message of the unified body.
type Message struct {
	Role             string            `json:"role"`
	Content          interface{}       `json:"content"` // string or []ContentPart
	ToolCalls        []ToolCall        `json:"tool_calls,omitempty"`
	ReasoningDetails []ReasoningDetail `json:"reasoning_details,omitempty"`
}

// ContentPart is used for multi-modal inputs.
type ContentPart struct {
	Type     string    `json:"type"` // "text" or "image_url"
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageURL `json:"image_url,omitempty"`
}

// ImageURL specifies the URL or base64 data URL of an image.
type ImageURL struct {
	URL string `json:"url"`
}

// ToolCall is a tool call the assistant made in an earlier turn.
type ToolCall struct {
	ID       string           `json:"id"`
	Type     string           `json:"type"` // "function"
	Function ToolCallFunction `json:"function"`
}

// ToolCallFunction carries the call's name and JSON-encoded arguments.
type ToolCallFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// ReasoningDetail replays a signed reasoning unit to gateways that forward
// it to the issuing provider.
type ReasoningDetail struct {
	Type      string `json:"type"` // "reasoning.text"
	Text      string `json:"text,omitempty"`
	Signature string `json:"signature"`
	Format    string `json:"format"`
}

// Reasoning formats per signature source.
var reasoningFormats = map[chat.SignatureSource]string{
	chat.SignatureSourceAnthropic: "anthropic-claude-v1",
	chat.SignatureSourceGemini:    "google-gemini-v1",
}

// BuildUnifiedRequest serializes composed messages into a unified body. The
// stream flag follows the resolved response mode.
func BuildUnifiedRequest(model string, messages []chat.ComposedMessage, mode chat.ResponseMode) (*UnifiedRequest, error) {
	out := make([]Message, 0, len(messages))
	for i, msg := range messages {
		m := Message{
			Role:    string(msg.Role),
			Content: unifiedContent(msg.Content),
		}

		if msg.Reasoning != nil {
			m.ReasoningDetails = []ReasoningDetail{{
				Type:      "reasoning.text",
				Text:      msg.Reasoning.Text(),
				Signature: msg.Reasoning.Signature(),
				Format:    reasoningFormats[msg.Reasoning.Source()],
			}}

			calls, err := toolCalls(msg.Reasoning.ToolInvocations())
			if err != nil {
				return nil, fmt.Errorf("message %d: %w", i, err)
			}
			m.ToolCalls = calls
		}

		out = append(out, m)
	}

	return &UnifiedRequest{
		Model:    model,
		Messages: out,
		Stream:   mode == chat.ModeStream,
	}, nil
}

func unifiedContent(content chat.MessageContent) interface{} {
	if content.IsString() {
		return content.Text
	}

	parts := make([]ContentPart, 0, len(content.Parts))
	for _, p := range content.Parts {
		switch p.Type {
		case chat.PartTypeImageURL:
			parts = append(parts, ContentPart{Type: chat.PartTypeImageURL, ImageURL: &ImageURL{URL: p.ImageURL}})
		default:
			parts = append(parts, ContentPart{Type: chat.PartTypeText, Text: p.Text})
		}
	}
	return parts
}

func toolCalls(invocations []chat.ToolInvocation) ([]ToolCall, error) {
	if len(invocations) == 0 {
		return nil, nil
	}

	calls := make([]ToolCall, 0, len(invocations))
	for _, inv := range invocations {
		args := []byte("{}")
		if inv.Input != nil {
			encoded, err := json.Marshal(inv.Input)
			if err != nil {
				return nil, fmt.Errorf("encode arguments of tool call %s: %w", inv.ID, err)
			}
			args = encoded
		}
		calls = append(calls, ToolCall{
			ID:   inv.ID,
			Type: "function",
			Function: ToolCallFunction{
				Name:      inv.Name,
				Arguments: string(args),
			},
		})
	}
	return calls, nil
}
