package command

import (
	"context"

	"github.com/dvloznov/finance-assistant/internal/llm"
	"github.com/dvloznov/finance-assistant/internal/logger"
	"github.com/rs/zerolog"
)

// Classification is the model's reading of one command.
type Classification struct {
	// Raw is the model's text, kept even when no envelope could be read.
	Raw      string
	Envelope *Envelope
}

// Classifier asks the model which action a command means.
type Classifier struct {
	llm llm.Client
	log zerolog.Logger
}

// NewClassifier creates a classifier.
func NewClassifier(client llm.Client, log zerolog.Logger) *Classifier {
	return &Classifier{llm: client, log: log}
}

// Classify sends command with the action taxonomy and extracts the envelope.
// Failures are not retried. The returned Classification is non-nil whenever
// the model answered, so the raw text can be archived.
func (c *Classifier) Classify(ctx context.Context, command string) (*Classification, error) {
	log := logger.FromContext(ctx, c.log)

	raw, err := c.llm.Generate(ctx, buildClassifierPrompt(command))
	if err != nil {
		log.Error().Err(err).Msg("classifier call failed")
		return nil, newError(KindClassifierUnavailable, "", err, "the language model is unavailable")
	}
	log.Debug().Str("raw", raw).Msg("classifier output")

	result := &Classification{Raw: raw}
	env, err := ExtractEnvelope(raw)
	if err != nil {
		log.Error().Err(err).Msg("could not extract intent envelope")
		return result, err
	}
	result.Envelope = env
	return result, nil
}

// Model returns the name of the model behind the classifier.
func (c *Classifier) Model() string {
	return c.llm.Model()
}
