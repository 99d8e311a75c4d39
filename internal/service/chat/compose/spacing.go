package compose

import (
	"strings"
	"unicode"

	"loom/internal/domain/models/chat"
)

// UserTurnSeparator is put between two consecutive user turns so Markdown
// renderers do not fuse them into one paragraph.
const UserTurnSeparator = "\n\n---\n\n"

// separatorHead is the separator without its leading blank lines. Only the
// full token counts; a bare "---" such as front matter does not.
var separatorHead = strings.TrimLeftFunc(UserTurnSeparator, unicode.IsSpace)

// SeparateUserTurns prefixes every user message that directly follows
// another user message (both with string content) with UserTurnSeparator,
// unless the message already starts with it. Applying it twice changes
// nothing.
func SeparateUserTurns(messages []chat.ComposedMessage) []chat.ComposedMessage {
	for i := 1; i < len(messages); i++ {
		prev, cur := messages[i-1], messages[i]
		if prev.Role != chat.RoleUser || cur.Role != chat.RoleUser {
			continue
		}
		if !prev.Content.IsString() || !cur.Content.IsString() {
			continue
		}
		if hasSeparator(cur.Content.Text) {
			continue
		}
		messages[i].Content = chat.TextContent(UserTurnSeparator + cur.Content.Text)
	}
	return messages
}

func hasSeparator(text string) bool {
	return strings.HasPrefix(strings.TrimLeftFunc(text, unicode.IsSpace), separatorHead)
}
