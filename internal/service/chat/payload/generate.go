// Package payload serializes composed messages into provider request bodies.
package payload

import (
	"strings"

	llmprovider "github.com/haowjy/meridian-llm-go"

	"loom/internal/domain/models/chat"
)

// Block types understood by the provider library.
const (
	BlockTypeText     = "text"
	BlockTypeThinking = "thinking"
	BlockTypeToolUse  = "tool_use"
	BlockTypeImage    = "image"
)

// BuildGenerateRequest converts composed messages into a provider library
// request. The system message moves into the request params; reasoning
// becomes a thinking block (and tool_use blocks) ahead of the answer text.
//
// Anthropic signs the thinking text, so its signature rides on the thinking
// block. Gemini binds the signature to the first tool call when there is
// one, and to the thinking block otherwise.
func BuildGenerateRequest(model string, messages []chat.ComposedMessage) *llmprovider.GenerateRequest {
	var system *string
	converted := make([]llmprovider.Message, 0, len(messages))

	for _, msg := range messages {
		if msg.Role == chat.RoleSystem {
			text := msg.Content.PlainText()
			if system != nil {
				text = *system + "\n\n" + text
			}
			system = &text
			continue
		}

		converted = append(converted, llmprovider.Message{
			Role:   string(msg.Role),
			Blocks: messageBlocks(msg),
		})
	}

	req := &llmprovider.GenerateRequest{
		Messages: converted,
		Model:    model,
	}
	if system != nil {
		req.Params = &llmprovider.RequestParams{System: system}
	}
	return req
}

func messageBlocks(msg chat.ComposedMessage) []*llmprovider.Block {
	var blocks []*llmprovider.Block
	add := func(b *llmprovider.Block) {
		b.Sequence = len(blocks)
		blocks = append(blocks, b)
	}

	if r := msg.Reasoning; r != nil {
		invocations := r.ToolInvocations()
		signOnTool := r.Source() == chat.SignatureSourceGemini && len(invocations) > 0

		if r.Text() != "" || !signOnTool {
			content := map[string]interface{}{}
			if !signOnTool {
				content["signature"] = r.Signature()
			}
			add(&llmprovider.Block{
				BlockType:   BlockTypeThinking,
				TextContent: strPtr(r.Text()),
				Content:     content,
			})
		}

		for i, inv := range invocations {
			input := inv.Input
			if input == nil {
				input = map[string]interface{}{}
			}
			content := map[string]interface{}{
				"tool_use_id": inv.ID,
				"tool_name":   inv.Name,
				"input":       input,
			}
			if signOnTool && i == 0 {
				content["thought_signature"] = r.Signature()
			}
			add(&llmprovider.Block{BlockType: BlockTypeToolUse, Content: content})
		}
	}

	if msg.Content.IsString() {
		if msg.Content.Text != "" {
			add(&llmprovider.Block{BlockType: BlockTypeText, TextContent: strPtr(msg.Content.Text)})
		}
		return blocks
	}

	for _, p := range msg.Content.Parts {
		switch p.Type {
		case chat.PartTypeImageURL:
			add(&llmprovider.Block{
				BlockType: BlockTypeImage,
				Content: map[string]interface{}{
					"url":       p.ImageURL,
					"mime_type": mimeTypeOf(p.ImageURL),
				},
			})
		default:
			add(&llmprovider.Block{BlockType: BlockTypeText, TextContent: strPtr(p.Text)})
		}
	}
	return blocks
}

// mimeTypeOf reads the media type of a data URL. Remote URLs report
// image/*.
func mimeTypeOf(url string) string {
	rest, ok := strings.CutPrefix(url, "data:")
	if !ok {
		return "image/*"
	}
	if end := strings.IndexAny(rest, ";,"); end > 0 {
		return rest[:end]
	}
	return "image/*"
}

func strPtr(s string) *string {
	return &s
}
