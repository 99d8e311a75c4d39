// Package provider identifies which provider family serves a model string.
package provider

import (
	"fmt"
	"strings"

	"loom/internal/domain/models/chat"
)

// ModelInfo contains parsed provider and model information
type ModelInfo struct {
	Provider string // "anthropic", "gemini", "openai", "openrouter", ...
	Model    string // model identifier for that provider
}

// ParseModel extracts provider information from a model string.
//
// Supported formats:
//   - "claude-haiku-4-5" → {Provider: "anthropic", Model: "claude-haiku-4-5"}
//   - "gemini-2.5-pro" → {Provider: "gemini", Model: "gemini-2.5-pro"}
//   - "openrouter/anthropic/claude-haiku-4-5" → {Provider: "openrouter", Model: "anthropic/claude-haiku-4-5"}
//
// A string containing "/" is split on the first "/"; otherwise the provider
// is inferred from the model prefix.
func ParseModel(modelStr string) (*ModelInfo, error) {
	modelStr = strings.TrimSpace(modelStr)
	if modelStr == "" {
		return nil, fmt.Errorf("model string cannot be empty")
	}

	if provider, model, ok := strings.Cut(modelStr, "/"); ok {
		if provider == "" {
			return nil, fmt.Errorf("provider cannot be empty in model string: %s", modelStr)
		}
		if model == "" {
			return nil, fmt.Errorf("model cannot be empty in model string: %s", modelStr)
		}
		return &ModelInfo{Provider: strings.ToLower(provider), Model: model}, nil
	}

	provider := inferProvider(modelStr)
	if provider == "" {
		return nil, fmt.Errorf("unable to infer provider from model: %s", modelStr)
	}
	return &ModelInfo{Provider: provider, Model: modelStr}, nil
}

// inferProvider infers the provider from model name prefix
func inferProvider(model string) string {
	modelLower := strings.ToLower(model)

	switch {
	case strings.HasPrefix(modelLower, "claude-"):
		return "anthropic"
	case strings.HasPrefix(modelLower, "gemini-"):
		return "gemini"
	case strings.HasPrefix(modelLower, "gpt-"), strings.HasPrefix(modelLower, "o1-"), strings.HasPrefix(modelLower, "o3-"):
		return "openai"
	default:
		return ""
	}
}

// SignatureSource returns the family whose reasoning signatures this model
// accepts. Gateway paths such as "anthropic/claude-..." resolve through the
// vendor segment. Models without signed reasoning report false.
func (m *ModelInfo) SignatureSource() (chat.SignatureSource, bool) {
	if source, ok := familySource(m.Provider); ok {
		return source, true
	}

	vendor, _, nested := strings.Cut(m.Model, "/")
	if nested {
		if source, ok := familySource(vendor); ok {
			return source, true
		}
	}
	return familySource(inferProvider(m.Model))
}

func familySource(provider string) (chat.SignatureSource, bool) {
	switch strings.ToLower(provider) {
	case "anthropic", "bedrock":
		return chat.SignatureSourceAnthropic, true
	case "gemini", "google", "vertex":
		return chat.SignatureSourceGemini, true
	default:
		return "", false
	}
}
