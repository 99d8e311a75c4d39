// Package prompts loads the prompt catalog: an embedded default plus an
// optional override file.
package prompts

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"sync"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"

	"loom/internal/domain/models/chat"
)

//go:embed config/prompts.yaml
var defaultCatalog []byte

type catalogFile struct {
	Prompts map[chat.PromptKind]chat.PromptTemplate `yaml:"prompts"`
}

// Registry holds the active prompt catalog.
type Registry struct {
	prompts chat.PromptsConfig
	mu      sync.RWMutex
}

// NewRegistry creates a registry with the embedded catalog loaded.
func NewRegistry() (*Registry, error) {
	prompts, err := Parse(defaultCatalog)
	if err != nil {
		return nil, fmt.Errorf("failed to load embedded prompts: %w", err)
	}
	return &Registry{prompts: prompts}, nil
}

// LoadOverride merges the entries of a YAML file over the current catalog.
func (r *Registry) LoadOverride(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	override, err := Parse(data)
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	merged := make(chat.PromptsConfig, len(r.prompts)+len(override))
	for kind, tmpl := range r.prompts {
		merged[kind] = tmpl
	}
	for kind, tmpl := range override {
		merged[kind] = tmpl
	}
	r.prompts = merged
	return nil
}

// Config returns the current catalog. The map is never mutated after it is
// published, so callers may keep it.
func (r *Registry) Config() chat.PromptsConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.prompts
}

// Kinds lists the configured prompt kinds.
func (r *Registry) Kinds() []chat.PromptKind {
	r.mu.RLock()
	defer r.mu.RUnlock()

	kinds := make([]chat.PromptKind, 0, len(r.prompts))
	for kind := range r.prompts {
		kinds = append(kinds, kind)
	}
	return kinds
}

// Parse decodes and validates a YAML catalog.
func Parse(data []byte) (chat.PromptsConfig, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to unmarshal prompts: %w", err)
	}

	prompts := make(chat.PromptsConfig, len(file.Prompts))
	for kind, tmpl := range file.Prompts {
		kind = chat.PromptKind(strings.ToLower(strings.TrimSpace(string(kind))))
		if err := validateTemplate(tmpl); err != nil {
			return nil, fmt.Errorf("prompt %q: %w", kind, err)
		}
		tmpl.Template = strings.TrimSpace(tmpl.Template)
		tmpl.Model = strings.TrimSpace(tmpl.Model)
		prompts[kind] = tmpl
	}
	return prompts, nil
}

func validateTemplate(tmpl chat.PromptTemplate) error {
	return validation.ValidateStruct(&tmpl,
		validation.Field(&tmpl.Template, validation.Required),
		validation.Field(&tmpl.Model, validation.Length(0, 200)),
	)
}
