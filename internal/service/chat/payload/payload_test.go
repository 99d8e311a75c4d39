package payload

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loom/internal/domain/models/chat"
)

func mustTrace(t *testing.T, source chat.SignatureSource, sig, text string, inv []chat.ToolInvocation) *chat.ReasoningTrace {
	t.Helper()
	trace, err := chat.NewReasoningTrace(source, sig, text, inv)
	require.NoError(t, err)
	return trace
}

func TestBuildUnifiedRequest(t *testing.T) {
	trace := mustTrace(t, chat.SignatureSourceGemini, "g-sig", "", []chat.ToolInvocation{
		{ID: "call-1", Name: "search", Input: map[string]interface{}{"q": "go"}},
	})

	msgs := []chat.ComposedMessage{
		{Role: chat.RoleSystem, Content: chat.TextContent("sys")},
		{Role: chat.RoleUser, Content: chat.PartsContent(
			chat.ContentPart{Type: chat.PartTypeText, Text: "look"},
			chat.ContentPart{Type: chat.PartTypeImageURL, ImageURL: "data:image/png;base64,AA"},
		)},
		{Role: chat.RoleAssistant, Content: chat.TextContent("found it"), Reasoning: trace, SourceModelID: "gemini-pro"},
	}

	req, err := BuildUnifiedRequest("gemini-pro", msgs, chat.ModeStream)
	require.NoError(t, err)

	assert.Equal(t, "gemini-pro", req.Model)
	assert.True(t, req.Stream)
	require.Len(t, req.Messages, 3)

	assert.Equal(t, "system", req.Messages[0].Role)
	assert.Equal(t, "sys", req.Messages[0].Content)

	parts, ok := req.Messages[1].Content.([]ContentPart)
	require.True(t, ok)
	assert.Equal(t, []ContentPart{
		{Type: "text", Text: "look"},
		{Type: "image_url", ImageURL: &ImageURL{URL: "data:image/png;base64,AA"}},
	}, parts)

	asst := req.Messages[2]
	require.Len(t, asst.ReasoningDetails, 1)
	assert.Equal(t, "g-sig", asst.ReasoningDetails[0].Signature)
	assert.Equal(t, "google-gemini-v1", asst.ReasoningDetails[0].Format)
	require.Len(t, asst.ToolCalls, 1)
	assert.Equal(t, "search", asst.ToolCalls[0].Function.Name)
	assert.JSONEq(t, `{"q":"go"}`, asst.ToolCalls[0].Function.Arguments)
}

func TestBuildUnifiedRequest_NonStreamOmitsFlag(t *testing.T) {
	req, err := BuildUnifiedRequest("m", []chat.ComposedMessage{
		{Role: chat.RoleUser, Content: chat.TextContent("hi")},
	}, chat.ModeNonStream)
	require.NoError(t, err)

	body, err := json.Marshal(req)
	require.NoError(t, err)
	assert.JSONEq(t, `{"model":"m","messages":[{"role":"user","content":"hi"}]}`, string(body))
}

func TestBuildGenerateRequest_AnthropicThinking(t *testing.T) {
	trace := mustTrace(t, chat.SignatureSourceAnthropic, "a-sig", "reasoning", nil)

	req := BuildGenerateRequest("claude-sonnet", []chat.ComposedMessage{
		{Role: chat.RoleSystem, Content: chat.TextContent("sys")},
		{Role: chat.RoleUser, Content: chat.TextContent("q")},
		{Role: chat.RoleAssistant, Content: chat.TextContent("a"), Reasoning: trace},
	})

	require.NotNil(t, req.Params)
	require.NotNil(t, req.Params.System)
	assert.Equal(t, "sys", *req.Params.System)
	require.Len(t, req.Messages, 2)

	blocks := req.Messages[1].Blocks
	require.Len(t, blocks, 2)
	assert.Equal(t, BlockTypeThinking, blocks[0].BlockType)
	assert.Equal(t, "reasoning", *blocks[0].TextContent)
	assert.Equal(t, "a-sig", blocks[0].Content["signature"])
	assert.Equal(t, 0, blocks[0].Sequence)
	assert.Equal(t, BlockTypeText, blocks[1].BlockType)
	assert.Equal(t, "a", *blocks[1].TextContent)
	assert.Equal(t, 1, blocks[1].Sequence)
}

func TestBuildGenerateRequest_GeminiToolSignature(t *testing.T) {
	trace := mustTrace(t, chat.SignatureSourceGemini, "g-sig", "", []chat.ToolInvocation{
		{ID: "c1", Name: "lookup"},
		{ID: "c2", Name: "fetch", Input: map[string]interface{}{"id": 7}},
	})

	req := BuildGenerateRequest("gemini-pro", []chat.ComposedMessage{
		{Role: chat.RoleAssistant, Content: chat.TextContent(""), Reasoning: trace},
	})

	assert.Nil(t, req.Params)
	require.Len(t, req.Messages, 1)

	blocks := req.Messages[0].Blocks
	require.Len(t, blocks, 2)
	assert.Equal(t, BlockTypeToolUse, blocks[0].BlockType)
	assert.Equal(t, "c1", blocks[0].Content["tool_use_id"])
	assert.Equal(t, "g-sig", blocks[0].Content["thought_signature"])
	assert.Equal(t, map[string]interface{}{}, blocks[0].Content["input"])
	assert.NotContains(t, blocks[1].Content, "thought_signature")
}

func TestBuildGenerateRequest_ImageParts(t *testing.T) {
	req := BuildGenerateRequest("m", []chat.ComposedMessage{
		{Role: chat.RoleUser, Content: chat.PartsContent(
			chat.ContentPart{Type: chat.PartTypeImageURL, ImageURL: "data:image/jpeg;base64,AA"},
			chat.ContentPart{Type: chat.PartTypeImageURL, ImageURL: "https://example.com/a.png"},
		)},
	})

	blocks := req.Messages[0].Blocks
	require.Len(t, blocks, 2)
	assert.Equal(t, "image/jpeg", blocks[0].Content["mime_type"])
	assert.Equal(t, "image/*", blocks[1].Content["mime_type"])
}
