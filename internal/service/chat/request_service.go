// Package chat ties the composition core to storage and provider payloads.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	llmprovider "github.com/haowjy/meridian-llm-go"

	"loom/internal/config"
	"loom/internal/domain"
	chatModels "loom/internal/domain/models/chat"
	"loom/internal/service/chat/compose"
	"loom/internal/service/chat/conversation"
	"loom/internal/service/chat/payload"
	"loom/internal/service/chat/provider"
	"loom/internal/service/chat/responsemode"
)

// PromptSource supplies the active prompt catalog.
type PromptSource interface {
	Config() chatModels.PromptsConfig
}

// RequestConfig holds the deployment-level request settings.
type RequestConfig struct {
	DefaultModel string
	APIFamily    string
	// StreamingEnabled is the dedicated streaming toggle; nil means unset.
	StreamingEnabled *bool
}

// ComposeRequest is a composition request plus the outbound model choice.
type ComposeRequest struct {
	compose.Request
	Model  string `json:"model,omitempty"`
	Stream bool   `json:"stream"`
}

// Validate checks the request at API boundaries.
func (r *ComposeRequest) Validate() error {
	if err := r.Request.Validate(); err != nil {
		return err
	}
	return validation.ValidateStruct(r,
		validation.Field(&r.Model, validation.Length(0, config.MaxModelLength)),
	)
}

// PreviewRequest composes from the stored path ending at LeafID instead of
// an inline chain.
type PreviewRequest struct {
	ComposeRequest
	LeafID string `json:"leaf_id"`
}

// Preview is the fully resolved outbound request.
type Preview struct {
	Model        string                       `json:"model"`
	Provider     string                       `json:"provider,omitempty"`
	Mode         chatModels.ResponseMode      `json:"mode"`
	TargetSource chatModels.SignatureSource   `json:"target_source,omitempty"`
	Messages     []chatModels.ComposedMessage `json:"messages"`
	Unified      *payload.UnifiedRequest      `json:"unified"`
	Generate     *llmprovider.GenerateRequest `json:"generate"`
}

// RequestService builds outbound requests.
type RequestService struct {
	composer     *compose.Composer
	conversation *conversation.Service
	prompts      PromptSource
	config       RequestConfig
	logger       *slog.Logger
}

// NewRequestService creates a request service.
func NewRequestService(
	composer *compose.Composer,
	conv *conversation.Service,
	prompts PromptSource,
	config RequestConfig,
	logger *slog.Logger,
) *RequestService {
	return &RequestService{
		composer:     composer,
		conversation: conv,
		prompts:      prompts,
		config:       config,
		logger:       logger,
	}
}

// Compose builds a request from the inline chain in req.
func (s *RequestService) Compose(ctx context.Context, req *ComposeRequest) (*Preview, error) {
	if req == nil {
		return nil, fmt.Errorf("%w: request body is required", domain.ErrValidation)
	}
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	// Work on a copy so the caller's request is left as sent.
	composeReq := req.Request
	composeReq.Prompts = s.prompts.Config()

	current := strings.TrimSpace(req.Model)
	if current == "" {
		current = s.config.DefaultModel
	}
	model := composeReq.Prompts.ResolveModel(composeReq.PromptKind, current)
	if model == "" {
		return nil, fmt.Errorf("%w: model is required when no default model is configured", domain.ErrValidation)
	}

	providerName := ""
	if info, err := provider.ParseModel(model); err == nil {
		providerName = info.Provider
		if composeReq.TargetSource == "" {
			if source, ok := info.SignatureSource(); ok {
				composeReq.TargetSource = source
			}
		}
	} else {
		s.logger.Debug("model provider not recognized", "model", model, "error", err)
	}
	if composeReq.TargetModel == "" {
		composeReq.TargetModel = modelName(model)
	}

	messages := s.composer.Compose(&composeReq)
	mode := responsemode.Resolve(s.config.APIFamily, s.config.StreamingEnabled, req.Stream)

	unified, err := payload.BuildUnifiedRequest(model, messages, mode)
	if err != nil {
		return nil, fmt.Errorf("build unified request: %w", err)
	}

	s.logger.Info("request composed",
		"model", model,
		"provider", providerName,
		"mode", mode,
		"target_source", composeReq.TargetSource,
		"messages", len(messages),
	)

	return &Preview{
		Model:        model,
		Provider:     providerName,
		Mode:         mode,
		TargetSource: composeReq.TargetSource,
		Messages:     messages,
		Unified:      unified,
		Generate:     payload.BuildGenerateRequest(model, messages),
	}, nil
}

// Preview builds a request from the stored active path ending at
// req.LeafID. A regenerate target naming an assistant node truncates to its
// parent; an unknown target falls back to the full path.
func (s *RequestService) Preview(ctx context.Context, chatID string, req *PreviewRequest) (*Preview, error) {
	if req == nil {
		return nil, fmt.Errorf("%w: request body is required", domain.ErrValidation)
	}
	if strings.TrimSpace(chatID) == "" {
		return nil, fmt.Errorf("%w: chat id is required", domain.ErrValidation)
	}

	path, err := s.conversation.Path(ctx, chatID, req.LeafID)
	if err != nil {
		return nil, err
	}

	composeReq := req.ComposeRequest
	composeReq.Chain = path

	if composeReq.Regenerate && composeReq.RegenerateTargetID != "" {
		target, err := s.conversation.RegenerateTarget(ctx, chatID, composeReq.RegenerateTargetID)
		switch {
		case err == nil:
			composeReq.RegenerateTargetID = target
		case errors.Is(err, domain.ErrNotFound):
			s.logger.Debug("regenerate target not found, using full path",
				"chat_id", chatID,
				"target_id", composeReq.RegenerateTargetID,
			)
		default:
			return nil, err
		}
	}

	return s.Compose(ctx, &composeReq)
}

// modelName strips gateway prefixes: "openrouter/anthropic/claude-x" is
// "claude-x".
func modelName(model string) string {
	if i := strings.LastIndex(model, "/"); i >= 0 {
		return model[i+1:]
	}
	return model
}
