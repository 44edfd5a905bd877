// Package prompt renders conversations into the ChatML template the
// fine-tuned models were trained on.
package prompt

import (
	"strings"

	"expertchat/pkg/types"
)

// ChatML delimiters.
const (
	StartMarker = "<|im_start|>"
	// EndOfTurn closes a block. A model emits it when its reply is finished.
	EndOfTurn = "<|im_end|>"
)

// Roles used in block headers.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Format renders the system prompt (when non-empty), every history turn in
// order, and message, followed by an open assistant block with no end marker.
// History is never truncated or reordered; context limits belong to the runtime.
func Format(message string, history []types.Turn, systemPrompt string) string {
	var b strings.Builder
	if systemPrompt != "" {
		writeBlock(&b, RoleSystem, systemPrompt)
	}
	for _, t := range history {
		writeBlock(&b, RoleUser, t.User)
		writeBlock(&b, RoleAssistant, t.Assistant)
	}
	writeBlock(&b, RoleUser, message)
	b.WriteString(StartMarker)
	b.WriteString(RoleAssistant)
	b.WriteByte('\n')
	return b.String()
}

func writeBlock(b *strings.Builder, role, content string) {
	b.WriteString(StartMarker)
	b.WriteString(role)
	b.WriteByte('\n')
	b.WriteString(content)
	b.WriteString(EndOfTurn)
	b.WriteByte('\n')
}

// Clean removes every end-of-turn marker and surrounding whitespace from a completion.
func Clean(completion string) string {
	return strings.TrimSpace(strings.ReplaceAll(completion, EndOfTurn, ""))
}

// ContainsEndOfTurn reports whether a decoded token carries the end-of-turn marker.
func ContainsEndOfTurn(piece string) bool { return strings.Contains(piece, EndOfTurn) }
