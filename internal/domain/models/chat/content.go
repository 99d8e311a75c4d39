package chat

import (
	"encoding/json"
	"fmt"
)

// Content part types
const (
	PartTypeText     = "text"
	PartTypeImageURL = "image_url"
)

// ContentPart is one element of multi-part content (text or image).
type ContentPart struct {
	Type     string `json:"type"`
	Text     string `json:"text,omitempty"`
	ImageURL string `json:"image_url,omitempty"`
}

// MessageContent is either plain text or an ordered list of parts.
// A nil Parts slice means the content is the string in Text.
//
// On the wire it is a JSON string or a JSON array of parts.
type MessageContent struct {
	Text  string
	Parts []ContentPart
}

// TextContent builds string content.
func TextContent(text string) MessageContent {
	return MessageContent{Text: text}
}

// PartsContent builds multi-part content.
func PartsContent(parts ...ContentPart) MessageContent {
	if parts == nil {
		parts = []ContentPart{}
	}
	return MessageContent{Parts: parts}
}

// IsString reports whether the content is plain text.
func (c MessageContent) IsString() bool {
	return c.Parts == nil
}

// PlainText returns the text of string content, or the text parts joined
// with newlines.
func (c MessageContent) PlainText() string {
	if c.IsString() {
		return c.Text
	}
	var out string
	for _, part := range c.Parts {
		if part.Type != PartTypeText || part.Text == "" {
			continue
		}
		if out != "" {
			out += "\n"
		}
		out += part.Text
	}
	return out
}

// Clone returns a copy that shares no slice memory with c.
func (c MessageContent) Clone() MessageContent {
	if c.IsString() {
		return MessageContent{Text: c.Text}
	}
	parts := make([]ContentPart, len(c.Parts))
	copy(parts, c.Parts)
	return MessageContent{Parts: parts}
}

// MarshalJSON writes a string or an array of parts.
func (c MessageContent) MarshalJSON() ([]byte, error) {
	if c.IsString() {
		return json.Marshal(c.Text)
	}
	return json.Marshal(c.Parts)
}

// UnmarshalJSON accepts a string, an array of parts, or null (empty text).
func (c *MessageContent) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*c = MessageContent{}
		return nil
	}

	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		*c = MessageContent{Text: text}
		return nil
	}

	var parts []ContentPart
	if err := json.Unmarshal(data, &parts); err != nil {
		return fmt.Errorf("content must be a string or an array of parts: %w", err)
	}
	*c = PartsContent(parts...)
	return nil
}
