// Package responsemode decides whether an exchange with the model API is
// streamed.
package responsemode

import (
	"strings"
	"unicode"

	"loom/internal/domain/models/chat"
)

// FamilyGenAI is the API family whose client enables streaming through its
// own toggle instead of a "stream" flag in the request body.
const FamilyGenAI = "genai"

// Resolve picks the response mode for one request.
//
// For the genai family the configured toggle wins and only an explicit false
// disables streaming. Every other family streams iff the request body
// declares it.
func Resolve(apiFamily string, configuredWantsStreaming *bool, requestDeclaresStream bool) chat.ResponseMode {
	if NormalizeFamily(apiFamily) == FamilyGenAI {
		if configuredWantsStreaming != nil && !*configuredWantsStreaming {
			return chat.ModeNonStream
		}
		return chat.ModeStream
	}

	if requestDeclaresStream {
		return chat.ModeStream
	}
	return chat.ModeNonStream
}

// NormalizeFamily lowercases a family label and drops all whitespace, so
// " Gen AI " and "genai" compare equal.
func NormalizeFamily(label string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return unicode.ToLower(r)
	}, label)
}
