// Package prompt builds the ordered message sequence for one sample.
package prompt

import (
	"strings"

	"github.com/bench-hub/bench-hub/internal/abstractions"
	"github.com/bench-hub/bench-hub/pkg/api"
)

// instructionPreamble is prepended to every task instruction.
const instructionPreamble = "You are an assistant completing an evaluation task. " +
	"Answer with the requested output only, without explanations."

// Assemble returns the message list for one sample: a system message from
// the preamble and task instruction, the few-shot pairs in file order, and
// the sample input as the final user message. Deterministic, no I/O.
func Assemble(instruction string, fewShot []api.FewShotPair, input string) []abstractions.ChatMessage {
	messages := make([]abstractions.ChatMessage, 0, 2*len(fewShot)+2)

	system := instructionPreamble
	if trimmed := strings.TrimSpace(instruction); trimmed != "" {
		system += "\n\n" + trimmed
	}
	messages = append(messages, abstractions.ChatMessage{
		Role:    abstractions.RoleSystem,
		Content: system,
	})

	for _, pair := range fewShot {
		messages = append(messages,
			abstractions.ChatMessage{Role: abstractions.RoleUser, Content: pair.User},
			abstractions.ChatMessage{Role: abstractions.RoleAssistant, Content: pair.Assistant},
		)
	}

	messages = append(messages, abstractions.ChatMessage{
		Role:    abstractions.RoleUser,
		Content: input,
	})
	return messages
}
