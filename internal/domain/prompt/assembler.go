// Package prompt builds the ordered message list handed to the
// generation backend.
package prompt

import (
	"fmt"

	"coachchat/ai-bridge/internal/domain/chat"
	"coachchat/ai-bridge/internal/domain/llm"
)

const personaTemplate = "You are an AI coach; you are here to help the user achieve their goals. " +
	"User context: %s " +
	"Only output information on user context when the user specifically asked about it or asked a relevant question."

// Assemble prepends exactly one system turn built from the coaching
// persona and the current memory, then the history in chronological
// order, then the new user turn — unless the last history turn is
// already a user turn with identical text (double-submission guard).
func Assemble(memory string, history []chat.Turn, newMessage string) []chat.Turn {
	turns := make([]chat.Turn, 0, len(history)+2)
	turns = append(turns, chat.Turn{
		Role:    chat.RoleSystem,
		Content: fmt.Sprintf(personaTemplate, memory),
	})
	turns = append(turns, history...)

	if n := len(history); n > 0 {
		last := history[n-1]
		if last.Role == chat.RoleUser && last.Content == newMessage {
			return turns
		}
	}
	return append(turns, chat.Turn{Role: chat.RoleUser, Content: newMessage})
}

// ToLLM converts turns into the wire shape of the generation backend.
func ToLLM(turns []chat.Turn) []llm.ChatMessage {
	out := make([]llm.ChatMessage, 0, len(turns))
	for _, t := range turns {
		out = append(out, llm.ChatMessage{Role: string(t.Role), Content: t.Content})
	}
	return out
}
