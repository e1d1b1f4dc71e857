package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/dvloznov/finance-assistant/internal/api/middleware"
	"github.com/dvloznov/finance-assistant/internal/assistant"
	"github.com/dvloznov/finance-assistant/internal/domain"
	"github.com/dvloznov/finance-assistant/internal/logger"
	"github.com/rs/zerolog"
)

// Insights produces single-shot model suggestions.
type Insights interface {
	SuggestCategory(ctx context.Context, userID, description string) (string, error)
	GenerateTips(ctx context.Context, txs []*domain.Transaction) ([]string, error)
}

// InsightsHandler handles the category suggestion and saving tips endpoints.
type InsightsHandler struct {
	insights Insights
	log      zerolog.Logger
}

// NewInsightsHandler creates a new insights handler.
func NewInsightsHandler(insights Insights, log zerolog.Logger) *InsightsHandler {
	return &InsightsHandler{insights: insights, log: log}
}

// SuggestCategory handles POST /api/gemini/suggest-category
func (h *InsightsHandler) SuggestCategory(w http.ResponseWriter, r *http.Request) {
	principal := middleware.PrincipalFrom(r.Context())
	if principal == nil {
		middleware.WriteError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req struct {
		Description string `json:"description"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	name, err := h.insights.SuggestCategory(r.Context(), principal.UserID, req.Description)
	if errors.Is(err, assistant.ErrEmptyDescription) {
		middleware.WriteError(w, http.StatusBadRequest, "Please enter a transaction description.")
		return
	}
	if err != nil {
		log := logger.FromContext(r.Context(), h.log)
		log.Error().Err(err).Msg("Category suggestion failed")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to suggest a category.")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]string{"suggestedCategory": name})
}

// tipTransaction is the row shape the client sends for tips.
type tipTransaction struct {
	TransactionDate string                 `json:"transaction_date"`
	Category        string                 `json:"category"`
	Description     string                 `json:"description"`
	Type            domain.TransactionType `json:"type"`
	Amount          int64                  `json:"amount"`
}

func (t tipTransaction) toDomain() (*domain.Transaction, error) {
	date, err := parseDate(t.TransactionDate)
	if err != nil {
		return nil, err
	}
	if t.Type != domain.TransactionIncome && t.Type != domain.TransactionExpense {
		return nil, errors.New("type must be income or expense")
	}
	return &domain.Transaction{
		Type:        t.Type,
		Amount:      t.Amount,
		Description: t.Description,
		Category:    t.Category,
		Date:        date,
	}, nil
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if d, err := time.Parse(time.DateOnly, s); err == nil {
		return d, nil
	}
	return time.Parse(time.RFC3339, s)
}

// GenerateTips handles POST /api/gemini/generate-tips
func (h *InsightsHandler) GenerateTips(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Transactions []tipTransaction `json:"transactions"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if len(req.Transactions) == 0 {
		middleware.WriteError(w, http.StatusBadRequest, "No transaction data provided.")
		return
	}

	txs := make([]*domain.Transaction, 0, len(req.Transactions))
	for _, t := range req.Transactions {
		tx, err := t.toDomain()
		if err != nil {
			middleware.WriteError(w, http.StatusBadRequest, "Invalid transaction: "+err.Error())
			return
		}
		txs = append(txs, tx)
	}

	tips, err := h.insights.GenerateTips(r.Context(), txs)
	if err != nil {
		log := logger.FromContext(r.Context(), h.log)
		log.Error().Err(err).Msg("Tip generation failed")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to generate saving tips.")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string][]string{"tips": tips})
}
