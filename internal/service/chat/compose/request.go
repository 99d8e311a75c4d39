package compose

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"loom/internal/config"
	"loom/internal/domain/models/chat"
	"loom/internal/service/chat/history"
)

// Request is everything the composer needs for one outbound request.
type Request struct {
	// Prompts is the template catalog; PromptKind picks the system template.
	Prompts    chat.PromptsConfig `json:"-"`
	PromptKind chat.PromptKind    `json:"prompt_kind,omitempty"`

	// SystemMessages are injected instructions appended to the system block.
	SystemMessages     []string          `json:"system_messages,omitempty"`
	PageContext        *chat.PageContext `json:"page_context,omitempty"`
	ScreenshotAttached bool              `json:"screenshot_attached,omitempty"`

	Regenerate         bool   `json:"regenerate,omitempty"`
	RegenerateTargetID string `json:"regenerate_target_id,omitempty"`

	// Chain is the active conversation path, oldest first.
	Chain []chat.ConversationNode `json:"chain"`

	SendHistory bool `json:"send_history"`
	// LegacyCeiling is the total-count ceiling used when no role ceiling is
	// set: 0 sends no history, n > 0 sends the last n nodes, nil sends all.
	LegacyCeiling *int             `json:"legacy_ceiling,omitempty"`
	Ceilings      history.Ceilings `json:"ceilings"`

	// TargetSource is the provider family the request is sent to. Reasoning
	// traces from another family are never attached.
	TargetSource chat.SignatureSource `json:"target_source,omitempty"`
	// TargetModel, when set, also drops traces issued by a different model.
	TargetModel string `json:"target_model,omitempty"`
}

// Validate checks the request at API boundaries. Compose never calls it:
// composition degrades instead of failing.
func (r *Request) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.LegacyCeiling, validation.Min(0)),
		validation.Field(&r.Ceilings),
		validation.Field(&r.TargetSource, validation.In(chat.SignatureSourceAnthropic, chat.SignatureSourceGemini)),
		validation.Field(&r.SystemMessages, validation.Length(0, config.MaxSystemMessages)),
		validation.Field(&r.Chain, validation.Length(0, config.MaxChainLength)),
	)
}
