package assistant

import (
	"context"
	"fmt"

	"github.com/dvloznov/finance-assistant/internal/domain"
	"github.com/dvloznov/finance-assistant/internal/llm"
	"github.com/dvloznov/finance-assistant/internal/logger"
	"github.com/dvloznov/finance-assistant/internal/store"
	"github.com/rs/zerolog"
)

// ChatRequest is one end-user chat message with its prior transcript.
type ChatRequest struct {
	Principal   *domain.Principal // nil for anonymous callers
	Message     string
	CurrentPage string
	// History is the transcript before Message; the in-flight message must
	// not be included.
	History []domain.ChatMessage
}

// ChatReply is the model's answer.
type ChatReply struct {
	Text     string
	UsedData bool
}

// Chat composes model context for chat messages and returns the answer.
type Chat struct {
	llm  llm.Client
	gate *Gate
	txs  store.TransactionStore
	log  zerolog.Logger
}

// NewChat creates a chat service.
func NewChat(client llm.Client, gate *Gate, txs store.TransactionStore, log zerolog.Logger) *Chat {
	return &Chat{llm: client, gate: gate, txs: txs, log: log}
}

// Reply answers req. Store and model failures end the request.
func (c *Chat) Reply(ctx context.Context, req ChatRequest) (*ChatReply, error) {
	log := logger.FromContext(ctx, c.log)

	useData := c.gate.DataRequired(ctx, req.Principal, req.Message)

	var txs []*domain.Transaction
	if useData {
		var err error
		txs, err = c.txs.ListTransactionsByUser(ctx, req.Principal.UserID)
		if err != nil {
			return nil, fmt.Errorf("Chat.Reply: list transactions: %w", err)
		}
		log.Debug().Str("user_id", req.Principal.UserID).Int("transactions", len(txs)).Msg("chat context loaded")
	}

	history := NormalizeHistory(req.History)
	// The new message is sent as a user turn, so a trailing user turn would
	// break alternation.
	if n := len(history); n > 0 && history[n-1].Role == domain.RoleUserTurn {
		history = history[:n-1]
	}

	system := buildChatSystemPrompt(req.CurrentPage, useData, txs)

	text, err := c.llm.Chat(ctx, system, history, req.Message)
	if err != nil {
		return nil, fmt.Errorf("Chat.Reply: model: %w", err)
	}

	return &ChatReply{Text: text, UsedData: useData}, nil
}
