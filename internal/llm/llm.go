// Package llm is the language model port used by the assistant and command
// pipelines. Model output is untrusted text; callers parse and validate it.
package llm

import (
	"context"
	"errors"

	"github.com/dvloznov/finance-assistant/internal/domain"
)

// DefaultModelName is the Gemini model used when none is configured.
const DefaultModelName = "gemini-2.5-flash"

// ErrEmptyResponse is returned when the model answers with no text.
var ErrEmptyResponse = errors.New("llm: empty response from model")

// Client sends prompts to a language model.
type Client interface {
	// Generate sends a single-shot prompt and returns the model's text.
	Generate(ctx context.Context, prompt string) (string, error)

	// Chat continues a conversation. history must alternate roles and start
	// with a user turn; message is appended as the final user turn.
	Chat(ctx context.Context, system string, history []domain.NormalizedTurn, message string) (string, error)

	// Model returns the model name, recorded alongside archived outputs.
	Model() string
}
