// Package assistant answers end-user chat messages and small insight
// requests (category suggestion, saving tips) on top of the llm port.
package assistant

import "github.com/dvloznov/finance-assistant/internal/domain"

// NormalizeHistory reshapes a client transcript into turns the model accepts.
// Everything before the first user message is dropped. Senders other than
// "user" become model turns, and a run of same-role turns keeps only its
// first entry. Text is never merged. The in-flight message must already be
// excluded by the caller.
func NormalizeHistory(messages []domain.ChatMessage) []domain.NormalizedTurn {
	start := -1
	for i, m := range messages {
		if m.Sender == domain.SenderUser {
			start = i
			break
		}
	}
	if start == -1 {
		return []domain.NormalizedTurn{}
	}

	turns := make([]domain.NormalizedTurn, 0, len(messages)-start)
	var last domain.Role
	for _, m := range messages[start:] {
		role := domain.RoleModelTurn
		if m.Sender == domain.SenderUser {
			role = domain.RoleUserTurn
		}
		if role == last {
			continue
		}
		turns = append(turns, domain.NormalizedTurn{Role: role, Text: m.Text})
		last = role
	}
	return turns
}
