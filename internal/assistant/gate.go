package assistant

import (
	"context"
	"strings"
	"unicode"

	"github.com/dvloznov/finance-assistant/internal/domain"
	"github.com/dvloznov/finance-assistant/internal/llm"
	"github.com/dvloznov/finance-assistant/internal/logger"
	"github.com/rs/zerolog"
)

// affirmativeWords are matched case-insensitively against the first word
// of the gate answer.
var affirmativeWords = map[string]bool{"yes": true, "예": true, "네": true}

// Gate decides whether answering a chat message needs the caller's
// transaction data.
type Gate struct {
	llm llm.Client
	log zerolog.Logger
}

// NewGate creates a gate that asks client a closed yes/no question.
func NewGate(client llm.Client, log zerolog.Logger) *Gate {
	return &Gate{llm: client, log: log}
}

// DataRequired returns false for anonymous callers without calling the
// model. For authenticated callers a classifier failure resolves to true and
// is only logged.
func (g *Gate) DataRequired(ctx context.Context, principal *domain.Principal, message string) bool {
	if principal == nil || principal.UserID == "" {
		return false
	}

	log := logger.FromContext(ctx, g.log)

	answer, err := g.llm.Generate(ctx, buildGatePrompt(message))
	if err != nil {
		log.Warn().Err(err).Str("user_id", principal.UserID).Msg("data requirement check failed, fetching data")
		return true
	}

	required := isAffirmative(answer)
	log.Debug().
		Str("user_id", principal.UserID).
		Str("answer", strings.TrimSpace(answer)).
		Bool("data_required", required).
		Msg("data requirement check")
	return required
}

func isAffirmative(answer string) bool {
	return affirmativeWords[firstWord(strings.ToLower(answer))]
}

// firstWord returns the first run of letters, skipping leading markup
// such as quotes or asterisks.
func firstWord(s string) string {
	start := strings.IndexFunc(s, unicode.IsLetter)
	if start < 0 {
		return ""
	}
	s = s[start:]
	if end := strings.IndexFunc(s, func(r rune) bool { return !unicode.IsLetter(r) }); end >= 0 {
		s = s[:end]
	}
	return s
}
