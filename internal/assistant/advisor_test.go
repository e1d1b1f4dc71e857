package assistant

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/dvloznov/finance-assistant/internal/domain"
	"github.com/dvloznov/finance-assistant/internal/infra/memory"
	"github.com/dvloznov/finance-assistant/internal/llm/llmtest"
	"github.com/dvloznov/finance-assistant/internal/logger"
	"github.com/dvloznov/finance-assistant/internal/store"
)

func TestAdvisor_SuggestCategory(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStore()
	if _, err := store.SeedDefaultCategories(ctx, s); err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	userID, _ := s.CreateUser(ctx, &domain.User{Username: "hong"})
	if err := s.CreateCategories(ctx, []*domain.Category{{Name: "반려동물", UserID: userID}}); err != nil {
		t.Fatalf("CreateCategories failed: %v", err)
	}

	tests := []struct {
		name   string
		answer string
		want   string
	}{
		{name: "default category", answer: "식비\n", want: "식비"},
		{name: "owned category", answer: " 반려동물 ", want: "반려동물"},
		{name: "unknown answer falls back", answer: "Pets", want: FallbackCategory},
		{name: "chatty answer falls back", answer: "카테고리는 식비입니다", want: FallbackCategory},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := llmtest.Reply(tt.answer)
			a := NewAdvisor(fake, s, logger.Nop())

			got, err := a.SuggestCategory(ctx, userID, "사료 구매")
			if err != nil {
				t.Fatalf("SuggestCategory failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("SuggestCategory() = %q, want %q", got, tt.want)
			}
			if p := fake.Prompts()[0]; !strings.Contains(p, "반려동물") || !strings.Contains(p, "사료 구매") {
				t.Errorf("prompt lacks categories or description: %s", p)
			}
		})
	}
}

func TestAdvisor_SuggestCategory_EmptyDescription(t *testing.T) {
	a := NewAdvisor(llmtest.Reply("식비"), memory.NewStore(), logger.Nop())
	if _, err := a.SuggestCategory(context.Background(), "u", "  "); !errors.Is(err, ErrEmptyDescription) {
		t.Errorf("error = %v, want ErrEmptyDescription", err)
	}
}

func TestAdvisor_GenerateTips(t *testing.T) {
	fake := llmtest.Reply("이번 달 분석입니다.\n1. 배달을 줄여보세요.\n2. 대중교통을 이용해요.\n3. 구독을 정리해요.")
	a := NewAdvisor(fake, memory.NewStore(), logger.Nop())

	tips, err := a.GenerateTips(context.Background(), []*domain.Transaction{
		{Type: domain.TransactionExpense, Amount: 30000, Category: "식비", Description: "저녁 배달음식",
			Date: time.Date(2026, 4, 3, 0, 0, 0, 0, time.UTC)},
	})
	if err != nil {
		t.Fatalf("GenerateTips failed: %v", err)
	}

	want := []string{"배달을 줄여보세요.", "대중교통을 이용해요.", "구독을 정리해요."}
	if !reflect.DeepEqual(tips, want) {
		t.Errorf("tips = %q, want %q", tips, want)
	}
	if !strings.Contains(fake.Prompts()[0], "2026-04-03 - 식비: 저녁 배달음식 (-30000 KRW)") {
		t.Errorf("prompt lacks transaction summary: %s", fake.Prompts()[0])
	}
}

func TestAdvisor_GenerateTips_Empty(t *testing.T) {
	a := NewAdvisor(llmtest.Reply(""), memory.NewStore(), logger.Nop())
	if _, err := a.GenerateTips(context.Background(), nil); !errors.Is(err, ErrNoTransactions) {
		t.Errorf("error = %v, want ErrNoTransactions", err)
	}
}

func TestSplitTips(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{name: "numbered from start", in: "1. a\n2. b", want: []string{"a", "b"}},
		{name: "unnumbered", in: "just one tip", want: []string{"just one tip"}},
		{name: "blank", in: "  ", want: []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := splitTips(tt.in); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("splitTips(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
