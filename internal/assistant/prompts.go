package assistant

import (
	"fmt"
	"strings"

	"github.com/dvloznov/finance-assistant/internal/domain"
)

const (
	// FallbackCategory is suggested when the model names no known category.
	FallbackCategory = "기타"

	noTransactionsMarker = "No transactions have been recorded yet. (아직 기록된 거래 내역이 없습니다.)"
	loginHint            = "로그인이 필요한 기능입니다. 로그인하시면 고객님의 소중한 데이터를 바탕으로 답변해 드릴게요!"
)

// ChatCategories are the categories the chat assistant may mention when it
// helps a user classify spending.
var ChatCategories = []string{"식비", "교통", "공과금", "쇼핑", "여가", "의료/건강", "기타"}

func buildGatePrompt(message string) string {
	var b strings.Builder
	b.WriteString("Does answering the following user question require the user's transaction history?\n")
	b.WriteString("Answer with a single word: \"yes\" or \"no\" (예 / 아니오). Do not explain.\n\n")
	fmt.Fprintf(&b, "Question: %q\n", message)
	return b.String()
}

// buildChatSystemPrompt assembles the system instruction for one chat turn.
// When withData is false the model is told to send users to the login page
// instead of guessing at their data.
func buildChatSystemPrompt(currentPage string, withData bool, txs []*domain.Transaction) string {
	var b strings.Builder
	b.WriteString("You are the assistant of a personal finance book-keeping web service.\n")
	b.WriteString("Answer in the language of the user's message, briefly and kindly.\n\n")

	b.WriteString("Available categories: ")
	b.WriteString(strings.Join(ChatCategories, ", "))
	b.WriteString("\n")

	page := currentPage
	if page == "" {
		page = "unknown"
	}
	fmt.Fprintf(&b, "The user is currently on page: %s\n\n", page)

	b.WriteString("DATA RULES:\n")
	if withData {
		b.WriteString("- The user's complete transaction history follows. Answer ONLY from this data, ")
		b.WriteString("regardless of what the current page shows.\n")
		b.WriteString("---\n")
		b.WriteString("User transactions (date | category | description | amount):\n")
		b.WriteString(formatTransactions(txs))
		b.WriteString("\n---\n")
	} else {
		fmt.Fprintf(&b, "- If the user asks about their own transactions, reply exactly: %q\n", loginHint)
	}
	return b.String()
}

func formatTransactions(txs []*domain.Transaction) string {
	if len(txs) == 0 {
		return noTransactionsMarker
	}
	lines := make([]string, 0, len(txs))
	for _, tx := range txs {
		lines = append(lines, fmt.Sprintf("%s | %s | %s | %s",
			tx.Date.Format("2006-01-02"), tx.Category, tx.Description, formatAmount(tx)))
	}
	return strings.Join(lines, "\n")
}

func formatAmount(tx *domain.Transaction) string {
	sign := "+"
	if tx.Type == domain.TransactionExpense {
		sign = "-"
	}
	return fmt.Sprintf("%s%d KRW", sign, tx.Amount)
}

func buildSuggestCategoryPrompt(categories []string, description string) string {
	var b strings.Builder
	b.WriteString("Pick the single most suitable category for the spending below from the list.\n")
	b.WriteString("Return ONLY the category name exactly as written, with no explanation.\n")
	fmt.Fprintf(&b, "If no category fits, answer %q.\n\n", FallbackCategory)
	fmt.Fprintf(&b, "Categories: [%s]\n", strings.Join(categories, ", "))
	fmt.Fprintf(&b, "Spending: %q\n", description)
	return b.String()
}

func buildTipsPrompt(txs []*domain.Transaction) string {
	var b strings.Builder
	b.WriteString("You are a friendly and clear financial analyst.\n")
	b.WriteString("Here are the user's transactions for one month:\n\n")
	for _, tx := range txs {
		fmt.Fprintf(&b, "%s - %s: %s (%s)\n",
			tx.Date.Format("2006-01-02"), tx.Category, tx.Description, formatAmount(tx))
	}
	b.WriteString("\nBased on these, suggest exactly 3 concrete, practical tips for saving money.\n")
	b.WriteString("Number them \"1.\", \"2.\", \"3.\" as a list.\n")
	b.WriteString("Mention the category with the highest spending and focus the advice on it.\n")
	b.WriteString("Keep each tip to 2-3 sentences in a friendly tone, in Korean.\n")
	return b.String()
}
