package rag

import (
	"strings"

	"github.com/cloudwego/eino/schema"
)

// MessageText normalizes a generated message to its text content. Plain
// content wins; otherwise the text parts of a composite message are
// concatenated in order and non-text parts are dropped. Anything else
// degrades to an empty string rather than failing the stream.
func MessageText(msg *schema.Message) string {
	if msg == nil {
		return ""
	}
	if msg.Content != "" {
		return msg.Content
	}
	if len(msg.MultiContent) == 0 {
		return ""
	}

	var b strings.Builder
	for _, part := range msg.MultiContent {
		if part.Type == schema.ChatMessagePartTypeText {
			b.WriteString(part.Text)
		}
	}
	return b.String()
}
