// Package llmtest provides a scriptable llm.Client for tests.
package llmtest

import (
	"context"
	"errors"
	"sync"

	"github.com/dvloznov/finance-assistant/internal/domain"
	"github.com/dvloznov/finance-assistant/internal/llm"
)

// ChatCall records the arguments of one Chat call.
type ChatCall struct {
	System  string
	History []domain.NormalizedTurn
	Message string
}

// Fake is an llm.Client whose answers come from GenerateFunc and ChatFunc.
// A nil func fails the call.
type Fake struct {
	GenerateFunc func(ctx context.Context, prompt string) (string, error)
	ChatFunc     func(ctx context.Context, system string, history []domain.NormalizedTurn, message string) (string, error)

	mu        sync.Mutex
	prompts   []string
	chatCalls []ChatCall
}

// Reply returns a fake whose Generate always answers text.
func Reply(text string) *Fake {
	return &Fake{
		GenerateFunc: func(ctx context.Context, prompt string) (string, error) {
			return text, nil
		},
	}
}

// Fail returns a fake whose calls all fail with err.
func Fail(err error) *Fake {
	return &Fake{
		GenerateFunc: func(ctx context.Context, prompt string) (string, error) {
			return "", err
		},
		ChatFunc: func(ctx context.Context, system string, history []domain.NormalizedTurn, message string) (string, error) {
			return "", err
		},
	}
}

// Generate implements llm.Client.
func (f *Fake) Generate(ctx context.Context, prompt string) (string, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.mu.Unlock()

	if f.GenerateFunc == nil {
		return "", errors.New("llmtest: Generate not scripted")
	}
	return f.GenerateFunc(ctx, prompt)
}

// Chat implements llm.Client.
func (f *Fake) Chat(ctx context.Context, system string, history []domain.NormalizedTurn, message string) (string, error) {
	f.mu.Lock()
	f.chatCalls = append(f.chatCalls, ChatCall{System: system, History: history, Message: message})
	f.mu.Unlock()

	if f.ChatFunc == nil {
		return "", errors.New("llmtest: Chat not scripted")
	}
	return f.ChatFunc(ctx, system, history, message)
}

// Model implements llm.Client.
func (f *Fake) Model() string {
	return "fake-model"
}

// Prompts returns every prompt passed to Generate.
func (f *Fake) Prompts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.prompts...)
}

// ChatCalls returns every recorded Chat call.
func (f *Fake) ChatCalls() []ChatCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]ChatCall(nil), f.chatCalls...)
}

// Calls returns the total number of model calls.
func (f *Fake) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts) + len(f.chatCalls)
}

var _ llm.Client = (*Fake)(nil)
