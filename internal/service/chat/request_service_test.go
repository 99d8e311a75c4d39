package chat

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loom/internal/domain"
	chatModels "loom/internal/domain/models/chat"
	"loom/internal/service/chat/compose"
	"loom/internal/service/chat/conversation"
)

type staticPrompts chatModels.PromptsConfig

func (p staticPrompts) Config() chatModels.PromptsConfig { return chatModels.PromptsConfig(p) }

func newTestService(t *testing.T, cfg RequestConfig) (*RequestService, *conversation.Service) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn}))
	conv := conversation.NewService(conversation.NewTree(), logger)
	prompts := staticPrompts{
		chatModels.PromptKindChat:      {Template: "Be helpful.", Model: chatModels.FollowCurrentModel},
		chatModels.PromptKindSummarize: {Template: "Summarize.", Model: "gemini-2.5-flash"},
	}
	return NewRequestService(compose.NewComposer(logger), conv, prompts, cfg, logger), conv
}

func anthropicTrace(t *testing.T) *chatModels.ReasoningTrace {
	t.Helper()
	trace, err := chatModels.NewReasoningTrace(chatModels.SignatureSourceAnthropic, "sig-1", "thinking", nil)
	require.NoError(t, err)
	return trace
}

func inlineChain(t *testing.T) []chatModels.ConversationNode {
	return []chatModels.ConversationNode{
		{ID: "u1", Role: chatModels.RoleUser, Content: chatModels.TextContent("hi")},
		{ID: "a1", Role: chatModels.RoleAssistant, Content: chatModels.TextContent("hello"), Reasoning: anthropicTrace(t), SourceModelID: "claude-haiku-4-5"},
		{ID: "u2", Role: chatModels.RoleUser, Content: chatModels.TextContent("what is this page?")},
	}
}

func TestRequestService_Compose(t *testing.T) {
	svc, _ := newTestService(t, RequestConfig{DefaultModel: "claude-haiku-4-5", APIFamily: "openai-compatible"})

	req := &ComposeRequest{
		Request: compose.Request{Chain: inlineChain(t), SendHistory: true},
		Stream:  true,
	}
	preview, err := svc.Compose(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, "claude-haiku-4-5", preview.Model)
	assert.Equal(t, "anthropic", preview.Provider)
	assert.Equal(t, chatModels.ModeStream, preview.Mode)
	assert.Equal(t, chatModels.SignatureSourceAnthropic, preview.TargetSource)

	require.Len(t, preview.Messages, 4)
	assert.Equal(t, chatModels.RoleSystem, preview.Messages[0].Role)
	assert.Equal(t, "Be helpful.", preview.Messages[0].Content.PlainText())
	require.NotNil(t, preview.Messages[2].Reasoning, "matching model keeps the signed reasoning")
	assert.Equal(t, "sig-1", preview.Messages[2].Reasoning.Signature())

	require.NotNil(t, preview.Unified)
	assert.True(t, preview.Unified.Stream)
	assert.Len(t, preview.Unified.Messages, 4)

	require.NotNil(t, preview.Generate)
	require.NotNil(t, preview.Generate.Params)
	require.NotNil(t, preview.Generate.Params.System)
	assert.Equal(t, "Be helpful.", *preview.Generate.Params.System)
	assert.Len(t, preview.Generate.Messages, 3)

	assert.Nil(t, req.Prompts, "caller request is not modified")
	assert.Empty(t, req.TargetSource)
}

func TestRequestService_Compose_DropsForeignReasoning(t *testing.T) {
	svc, _ := newTestService(t, RequestConfig{DefaultModel: "claude-haiku-4-5"})

	preview, err := svc.Compose(context.Background(), &ComposeRequest{
		Request: compose.Request{Chain: inlineChain(t), SendHistory: true},
		Model:   "gemini-2.5-pro",
	})
	require.NoError(t, err)

	assert.Equal(t, chatModels.SignatureSourceGemini, preview.TargetSource)
	for _, msg := range preview.Messages {
		assert.Nil(t, msg.Reasoning)
		assert.Empty(t, msg.SourceModelID)
	}
}

func TestRequestService_Compose_PromptModel(t *testing.T) {
	svc, _ := newTestService(t, RequestConfig{DefaultModel: "claude-haiku-4-5"})

	preview, err := svc.Compose(context.Background(), &ComposeRequest{
		Request: compose.Request{Chain: inlineChain(t), PromptKind: chatModels.PromptKindSummarize},
	})
	require.NoError(t, err)

	assert.Equal(t, "gemini-2.5-flash", preview.Model)
	assert.Equal(t, "Summarize.", preview.Messages[0].Content.PlainText())
	require.Len(t, preview.Messages, 2, "history off sends only the latest node")
	assert.Equal(t, "what is this page?", preview.Messages[1].Content.PlainText())
}

func TestRequestService_Compose_ResponseMode(t *testing.T) {
	off := false
	svc, _ := newTestService(t, RequestConfig{DefaultModel: "claude-haiku-4-5", APIFamily: " GenAI ", StreamingEnabled: &off})

	preview, err := svc.Compose(context.Background(), &ComposeRequest{
		Request: compose.Request{Chain: inlineChain(t)},
		Stream:  true,
	})
	require.NoError(t, err)

	assert.Equal(t, chatModels.ModeNonStream, preview.Mode)
	assert.False(t, preview.Unified.Stream)
}

func TestRequestService_Compose_Errors(t *testing.T) {
	negative := -1
	tests := []struct {
		name string
		cfg  RequestConfig
		req  *ComposeRequest
	}{
		{
			name: "nil request",
			cfg:  RequestConfig{DefaultModel: "claude-haiku-4-5"},
			req:  nil,
		},
		{
			name: "no model anywhere",
			cfg:  RequestConfig{},
			req:  &ComposeRequest{Request: compose.Request{Chain: inlineChain(t)}},
		},
		{
			name: "negative legacy ceiling",
			cfg:  RequestConfig{DefaultModel: "claude-haiku-4-5"},
			req:  &ComposeRequest{Request: compose.Request{Chain: inlineChain(t), LegacyCeiling: &negative}},
		},
		{
			name: "unknown target source",
			cfg:  RequestConfig{DefaultModel: "claude-haiku-4-5"},
			req:  &ComposeRequest{Request: compose.Request{Chain: inlineChain(t), TargetSource: "openai"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newTestService(t, tt.cfg)
			_, err := svc.Compose(context.Background(), tt.req)
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}
}

func TestRequestService_Preview(t *testing.T) {
	ctx := context.Background()
	svc, conv := newTestService(t, RequestConfig{DefaultModel: "claude-haiku-4-5"})

	var parentID string
	var ids []string
	for _, turn := range []struct {
		role chatModels.Role
		text string
	}{
		{chatModels.RoleUser, "first question"},
		{chatModels.RoleAssistant, "first answer"},
		{chatModels.RoleUser, "second question"},
		{chatModels.RoleAssistant, "second answer"},
	} {
		node, err := conv.Append(ctx, "chat-1", &conversation.AppendRequest{
			ParentID: parentID,
			Role:     turn.role,
			Content:  chatModels.TextContent(turn.text),
		})
		require.NoError(t, err)
		parentID = node.ID
		ids = append(ids, node.ID)
	}

	t.Run("full path", func(t *testing.T) {
		preview, err := svc.Preview(ctx, "chat-1", &PreviewRequest{
			ComposeRequest: ComposeRequest{Request: compose.Request{SendHistory: true}},
			LeafID:         ids[3],
		})
		require.NoError(t, err)
		require.Len(t, preview.Messages, 5)
		assert.Equal(t, "second answer", preview.Messages[4].Content.PlainText())
	})

	t.Run("regenerate assistant truncates to its parent", func(t *testing.T) {
		preview, err := svc.Preview(ctx, "chat-1", &PreviewRequest{
			ComposeRequest: ComposeRequest{Request: compose.Request{
				SendHistory:        true,
				Regenerate:         true,
				RegenerateTargetID: ids[3],
			}},
			LeafID: ids[3],
		})
		require.NoError(t, err)
		require.Len(t, preview.Messages, 4)
		assert.Equal(t, "second question", preview.Messages[3].Content.PlainText())
	})

	t.Run("unknown regenerate target uses full path", func(t *testing.T) {
		preview, err := svc.Preview(ctx, "chat-1", &PreviewRequest{
			ComposeRequest: ComposeRequest{Request: compose.Request{
				SendHistory:        true,
				Regenerate:         true,
				RegenerateTargetID: "missing",
			}},
			LeafID: ids[3],
		})
		require.NoError(t, err)
		assert.Len(t, preview.Messages, 5)
	})

	t.Run("unknown leaf", func(t *testing.T) {
		_, err := svc.Preview(ctx, "chat-1", &PreviewRequest{LeafID: "missing"})
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("missing leaf", func(t *testing.T) {
		_, err := svc.Preview(ctx, "chat-1", &PreviewRequest{})
		assert.ErrorIs(t, err, domain.ErrValidation)
	})
}

func TestModelName(t *testing.T) {
	assert.Equal(t, "claude-x", modelName("openrouter/anthropic/claude-x"))
	assert.Equal(t, "gemini-2.5-pro", modelName("gemini-2.5-pro"))
}
