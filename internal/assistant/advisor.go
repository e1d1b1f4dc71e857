package assistant

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/dvloznov/finance-assistant/internal/domain"
	"github.com/dvloznov/finance-assistant/internal/llm"
	"github.com/dvloznov/finance-assistant/internal/store"
	"github.com/rs/zerolog"
)

var (
	// ErrEmptyDescription is returned when a category is requested for no text.
	ErrEmptyDescription = errors.New("assistant: description is required")

	// ErrNoTransactions is returned when tips are requested for an empty list.
	ErrNoTransactions = errors.New("assistant: no transactions provided")
)

var tipNumbering = regexp.MustCompile(`\n?[0-9]+\.\s`)

// Advisor produces small single-shot insights.
type Advisor struct {
	llm        llm.Client
	categories store.CategoryStore
	log        zerolog.Logger
}

// NewAdvisor creates an advisor.
func NewAdvisor(client llm.Client, categories store.CategoryStore, log zerolog.Logger) *Advisor {
	return &Advisor{llm: client, categories: categories, log: log}
}

// SuggestCategory returns the name of one of userID's visible categories, or
// FallbackCategory when the model answers with anything else.
func (a *Advisor) SuggestCategory(ctx context.Context, userID, description string) (string, error) {
	if strings.TrimSpace(description) == "" {
		return "", ErrEmptyDescription
	}

	cats, err := a.categories.ListCategoriesForUser(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("Advisor.SuggestCategory: list categories: %w", err)
	}
	names := make([]string, 0, len(cats))
	for _, c := range cats {
		names = append(names, c.Name)
	}

	answer, err := a.llm.Generate(ctx, buildSuggestCategoryPrompt(names, description))
	if err != nil {
		return "", fmt.Errorf("Advisor.SuggestCategory: model: %w", err)
	}

	suggested := strings.TrimSpace(answer)
	for _, n := range names {
		if n == suggested {
			return suggested, nil
		}
	}
	return FallbackCategory, nil
}

// GenerateTips asks for three numbered saving tips and returns them split.
func (a *Advisor) GenerateTips(ctx context.Context, txs []*domain.Transaction) ([]string, error) {
	if len(txs) == 0 {
		return nil, ErrNoTransactions
	}

	answer, err := a.llm.Generate(ctx, buildTipsPrompt(txs))
	if err != nil {
		return nil, fmt.Errorf("Advisor.GenerateTips: model: %w", err)
	}
	return splitTips(answer), nil
}

// splitTips splits a numbered list. Text before the first number is dropped
// when the answer is numbered at all.
func splitTips(text string) []string {
	parts := tipNumbering.Split(strings.TrimSpace(text), -1)
	if len(parts) > 1 {
		parts = parts[1:]
	}

	tips := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			tips = append(tips, p)
		}
	}
	return tips
}
