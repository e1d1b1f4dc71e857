package command

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// objectSpan matches from the first '{' to the last '}'.
var objectSpan = regexp.MustCompile(`(?s)\{.*\}`)

// Envelope is the {action, payload} object extracted from model output.
// The payload stays raw until the Validator decodes it for the action.
type Envelope struct {
	Action  ActionName      `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// ExtractEnvelope reads the JSON object embedded in raw model text.
// Failures are KindUnparseableResponse errors.
func ExtractEnvelope(raw string) (*Envelope, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return nil, newError(KindUnparseableResponse, "", errors.New("empty model response"),
			"the model returned no text")
	}

	span := objectSpan.FindString(text)
	if span == "" {
		return nil, newError(KindUnparseableResponse, "", fmt.Errorf("no JSON object in %q", truncate(text, 200)),
			"no JSON object found in the model response")
	}

	var env Envelope
	if err := json.Unmarshal([]byte(span), &env); err != nil {
		return nil, newError(KindUnparseableResponse, "", fmt.Errorf("unmarshal envelope: %w", err),
			"the model response is not valid JSON")
	}
	return &env, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
