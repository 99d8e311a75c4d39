package chat

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// SignatureSource names the provider family that issued a reasoning signature.
type SignatureSource string

const (
	// SignatureSourceAnthropic signs the thinking text of a turn.
	SignatureSourceAnthropic SignatureSource = "anthropic"
	// SignatureSourceGemini binds thought signatures to tool invocations.
	SignatureSourceGemini SignatureSource = "gemini"
)

// ParseSignatureSource returns the source for a label, case-insensitively.
func ParseSignatureSource(raw string) (SignatureSource, bool) {
	switch SignatureSource(strings.ToLower(strings.TrimSpace(raw))) {
	case SignatureSourceAnthropic:
		return SignatureSourceAnthropic, true
	case SignatureSourceGemini:
		return SignatureSourceGemini, true
	default:
		return "", false
	}
}

var (
	ErrUnknownSignatureSource = errors.New("unknown signature source")
	ErrMissingSignature       = errors.New("reasoning signature is required")
)

// ToolInvocation is a tool call issued by the model during a turn.
type ToolInvocation struct {
	ID    string                 `json:"id"`
	Name  string                 `json:"name"`
	Input map[string]interface{} `json:"input,omitempty"`
}

// ReasoningTrace is the provider-issued reasoning unit of a turn: the
// signature together with the payload it vouches for. The fields are only
// reachable through accessors so a trace cannot exist without a signature
// and a known source.
type ReasoningTrace struct {
	source          SignatureSource
	signature       string
	text            string
	toolInvocations []ToolInvocation
}

// NewReasoningTrace validates and builds a trace.
func NewReasoningTrace(source SignatureSource, signature, text string, invocations []ToolInvocation) (*ReasoningTrace, error) {
	parsed, ok := ParseSignatureSource(string(source))
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSignatureSource, source)
	}
	if signature == "" {
		return nil, ErrMissingSignature
	}

	var tools []ToolInvocation
	if len(invocations) > 0 {
		tools = make([]ToolInvocation, len(invocations))
		copy(tools, invocations)
	}

	return &ReasoningTrace{
		source:          parsed,
		signature:       signature,
		text:            text,
		toolInvocations: tools,
	}, nil
}

func (t *ReasoningTrace) Source() SignatureSource { return t.source }
func (t *ReasoningTrace) Signature() string       { return t.signature }
func (t *ReasoningTrace) Text() string            { return t.text }

// ToolInvocations returns a copy of the invocations bound to the signature.
func (t *ReasoningTrace) ToolInvocations() []ToolInvocation {
	if len(t.toolInvocations) == 0 {
		return nil
	}
	out := make([]ToolInvocation, len(t.toolInvocations))
	copy(out, t.toolInvocations)
	return out
}

// WithText returns a copy of the trace carrying different reasoning text.
func (t *ReasoningTrace) WithText(text string) *ReasoningTrace {
	clone := *t
	clone.text = text
	clone.toolInvocations = t.ToolInvocations()
	return &clone
}

type reasoningTraceJSON struct {
	Source          SignatureSource  `json:"signature_source"`
	Signature       string           `json:"reasoning_signature"`
	Text            string           `json:"reasoning_text,omitempty"`
	ToolInvocations []ToolInvocation `json:"tool_invocations,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (t *ReasoningTrace) MarshalJSON() ([]byte, error) {
	return json.Marshal(reasoningTraceJSON{
		Source:          t.source,
		Signature:       t.signature,
		Text:            t.text,
		ToolInvocations: t.toolInvocations,
	})
}

// UnmarshalJSON decodes through NewReasoningTrace so invalid pairs are rejected.
func (t *ReasoningTrace) UnmarshalJSON(data []byte) error {
	var raw reasoningTraceJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	trace, err := NewReasoningTrace(raw.Source, raw.Signature, raw.Text, raw.ToolInvocations)
	if err != nil {
		return err
	}
	*t = *trace
	return nil
}
