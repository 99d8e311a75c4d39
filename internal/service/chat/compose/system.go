package compose

import (
	"fmt"
	"strings"

	"loom/internal/domain/models/chat"
)

// buildSystemText concatenates the template, the screenshot notice, the
// injected messages, folded system turns and the page context block. An
// all-blank result returns "".
func buildSystemText(req *Request, systemNodes []string) string {
	var parts []string

	kind := req.PromptKind
	if kind == "" {
		kind = chat.PromptKindChat
	}
	if tmpl := strings.TrimSpace(req.Prompts.Template(kind)); tmpl != "" {
		parts = append(parts, tmpl)
	}

	if req.ScreenshotAttached {
		parts = append(parts, ScreenshotNotice)
	}

	var injected []string
	for _, msg := range req.SystemMessages {
		if strings.TrimSpace(msg) != "" {
			injected = append(injected, msg)
		}
	}
	if len(injected) > 0 {
		parts = append(parts, strings.Join(injected, "\n"))
	}

	parts = append(parts, systemNodes...)

	if block := pageContextBlock(req.PageContext); block != "" {
		parts = append(parts, block)
	}

	return strings.TrimSpace(strings.Join(parts, "\n\n"))
}

// pageContextBlock renders the page the user is on. Without page content
// there is no block.
func pageContextBlock(page *chat.PageContext) string {
	if page == nil || strings.TrimSpace(page.Content) == "" {
		return ""
	}

	var b strings.Builder
	b.WriteString("[Current page]\n")
	if title := strings.TrimSpace(page.Title); title != "" {
		fmt.Fprintf(&b, "Title: %s\n", title)
	}
	if url := strings.TrimSpace(page.URL); url != "" {
		fmt.Fprintf(&b, "URL: %s\n", url)
	}
	b.WriteString("Content:\n")
	b.WriteString(strings.TrimSpace(page.Content))
	return b.String()
}
