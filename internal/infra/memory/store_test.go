package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dvloznov/finance-assistant/internal/domain"
	"github.com/dvloznov/finance-assistant/internal/store"
)

func TestStore_CreateUser(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	id, err := s.CreateUser(ctx, &domain.User{Name: "홍길동", Username: "hong", PasswordHash: "hash"})
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	if id == "" {
		t.Fatal("CreateUser returned empty id")
	}

	got, err := s.FindUserByUsername(ctx, "hong")
	if err != nil {
		t.Fatalf("FindUserByUsername failed: %v", err)
	}
	if got.ID != id {
		t.Errorf("ID = %q, want %q", got.ID, id)
	}
	if got.Role != domain.RoleUser {
		t.Errorf("Role = %q, want %q", got.Role, domain.RoleUser)
	}

	_, err = s.CreateUser(ctx, &domain.User{Username: "hong"})
	if !errors.Is(err, store.ErrDuplicate) {
		t.Errorf("duplicate CreateUser error = %v, want ErrDuplicate", err)
	}
}

func TestStore_FindUserByUsername_NotFound(t *testing.T) {
	s := NewStore()
	_, err := s.FindUserByUsername(context.Background(), "ghost")
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	if _, err := s.CreateUser(ctx, &domain.User{Username: "hong", Name: "before"}); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	u, _ := s.FindUserByUsername(ctx, "hong")
	u.Name = "after"

	again, _ := s.FindUserByUsername(ctx, "hong")
	if again.Name != "before" {
		t.Errorf("stored user was mutated through returned pointer: %q", again.Name)
	}
}

func TestStore_CreateCategories(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	userID, _ := s.CreateUser(ctx, &domain.User{Username: "owner"})

	tests := []struct {
		name    string
		batch   []*domain.Category
		wantErr error
	}{
		{
			name:  "default category",
			batch: []*domain.Category{{Name: "식비", IsDefault: true}},
		},
		{
			name:  "owned category with same name as default",
			batch: []*domain.Category{{Name: "식비", UserID: userID}},
		},
		{
			name:    "duplicate default",
			batch:   []*domain.Category{{Name: "식비", IsDefault: true}},
			wantErr: store.ErrDuplicate,
		},
		{
			name:    "unknown owner",
			batch:   []*domain.Category{{Name: "여행", UserID: "missing"}},
			wantErr: store.ErrNotFound,
		},
		{
			name: "duplicate inside batch",
			batch: []*domain.Category{
				{Name: "용돈", UserID: userID},
				{Name: "용돈", UserID: userID},
			},
			wantErr: store.ErrDuplicate,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.CreateCategories(ctx, tt.batch)
			if tt.wantErr == nil && err != nil {
				t.Fatalf("CreateCategories() unexpected error: %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("CreateCategories() error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	// The failed batch must not leave a partial write behind.
	cats, _ := s.ListCategoriesForUser(ctx, userID)
	for _, c := range cats {
		if c.Name == "용돈" {
			t.Error("partial batch was persisted")
		}
	}
	if len(cats) != 2 {
		t.Errorf("ListCategoriesForUser returned %d categories, want 2", len(cats))
	}
}

func TestStore_ListDefaultCategories_KeepsCreationOrder(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	n, err := store.SeedDefaultCategories(ctx, s)
	if err != nil {
		t.Fatalf("SeedDefaultCategories failed: %v", err)
	}
	if n != len(store.DefaultCategoryNames) {
		t.Errorf("seeded %d categories, want %d", n, len(store.DefaultCategoryNames))
	}

	cats, _ := s.ListDefaultCategories(ctx)
	if len(cats) != len(store.DefaultCategoryNames) {
		t.Fatalf("got %d defaults, want %d", len(cats), len(store.DefaultCategoryNames))
	}
	for i, c := range cats {
		if c.Name != store.DefaultCategoryNames[i] {
			t.Errorf("cats[%d] = %q, want %q", i, c.Name, store.DefaultCategoryNames[i])
		}
		if c.UserID != "" {
			t.Errorf("default category %q has owner %q", c.Name, c.UserID)
		}
	}

	// A second seed is a no-op.
	n, err = store.SeedDefaultCategories(ctx, s)
	if err != nil || n != 0 {
		t.Errorf("second seed = (%d, %v), want (0, nil)", n, err)
	}
}

func TestStore_Transactions(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	userID, _ := s.CreateUser(ctx, &domain.User{Username: "hong"})
	otherID, _ := s.CreateUser(ctx, &domain.User{Username: "kim"})

	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	err := s.InsertTransactions(ctx, []*domain.Transaction{
		{UserID: userID, Type: domain.TransactionExpense, Amount: 1000, Category: "식비", Date: base},
		{UserID: userID, Type: domain.TransactionIncome, Amount: 3000000, Category: "월급", Date: base.AddDate(0, 0, 5)},
		{UserID: otherID, Type: domain.TransactionExpense, Amount: 500, Category: "교통비", Date: base},
	})
	if err != nil {
		t.Fatalf("InsertTransactions failed: %v", err)
	}

	txs, err := s.ListTransactionsByUser(ctx, userID)
	if err != nil {
		t.Fatalf("ListTransactionsByUser failed: %v", err)
	}
	if len(txs) != 2 {
		t.Fatalf("got %d transactions, want 2", len(txs))
	}
	if !txs[0].Date.After(txs[1].Date) {
		t.Error("transactions are not ordered newest first")
	}

	err = s.InsertTransactions(ctx, []*domain.Transaction{{UserID: "missing", Amount: 1}})
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("insert for unknown owner error = %v, want ErrNotFound", err)
	}
}

func TestStore_DeleteUser_Cascades(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	userID, _ := s.CreateUser(ctx, &domain.User{Username: "hong"})
	if err := s.CreateCategories(ctx, []*domain.Category{
		{Name: "식비", IsDefault: true},
		{Name: "용돈", UserID: userID},
	}); err != nil {
		t.Fatalf("CreateCategories failed: %v", err)
	}
	if err := s.InsertTransactions(ctx, []*domain.Transaction{{UserID: userID, Amount: 1000}}); err != nil {
		t.Fatalf("InsertTransactions failed: %v", err)
	}

	if err := s.DeleteUser(ctx, userID); err != nil {
		t.Fatalf("DeleteUser failed: %v", err)
	}

	if _, err := s.FindUserByUsername(ctx, "hong"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("user still present after delete: %v", err)
	}
	txs, _ := s.ListTransactionsByUser(ctx, userID)
	if len(txs) != 0 {
		t.Errorf("%d transactions left after delete", len(txs))
	}
	cats, _ := s.ListCategoriesForUser(ctx, userID)
	if len(cats) != 1 || !cats[0].IsDefault {
		t.Errorf("categories after delete = %v, want only the default", cats)
	}

	if err := s.DeleteUser(ctx, userID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("second DeleteUser error = %v, want ErrNotFound", err)
	}
}
