// Package store defines the persistence ports used by the command and chat
// pipelines. Every backend (memory, Postgres, BigQuery) implements Store and
// translates its driver errors into the sentinels below.
package store

import (
	"context"
	"errors"

	"github.com/dvloznov/finance-assistant/internal/domain"
)

var (
	// ErrNotFound is returned when a looked-up row does not exist.
	ErrNotFound = errors.New("store: not found")

	// ErrDuplicate is returned when a uniqueness constraint rejects a write.
	ErrDuplicate = errors.New("store: duplicate")
)

// UserStore provides account persistence.
type UserStore interface {
	// CreateUser inserts the user and returns its new id. A taken username
	// yields ErrDuplicate.
	CreateUser(ctx context.Context, user *domain.User) (string, error)

	// FindUserByUsername returns ErrNotFound when no account uses username.
	FindUserByUsername(ctx context.Context, username string) (*domain.User, error)

	// DeleteUser removes the account together with its categories and
	// transactions. Returns ErrNotFound when the id is unknown.
	DeleteUser(ctx context.Context, userID string) error
}

// CategoryStore provides category persistence.
type CategoryStore interface {
	// CreateCategories inserts all categories as one batch. A name already used
	// by the same owner (or by another default category) yields ErrDuplicate.
	CreateCategories(ctx context.Context, categories []*domain.Category) error

	// ListDefaultCategories returns the categories visible to every user.
	ListDefaultCategories(ctx context.Context) ([]*domain.Category, error)

	// ListCategoriesForUser returns default categories plus those owned by userID.
	ListCategoriesForUser(ctx context.Context, userID string) ([]*domain.Category, error)
}

// TransactionStore provides ledger persistence.
type TransactionStore interface {
	// InsertTransactions inserts all rows as one batch.
	InsertTransactions(ctx context.Context, txs []*domain.Transaction) error

	// ListTransactionsByUser returns the user's rows, newest first.
	ListTransactionsByUser(ctx context.Context, userID string) ([]*domain.Transaction, error)
}

// Store is the full persistence surface of a backend.
type Store interface {
	UserStore
	CategoryStore
	TransactionStore

	// Close releases the backend's connections.
	Close() error
}

// DefaultCategoryNames is the category set seeded into fresh stores.
var DefaultCategoryNames = []string{"식비", "교통비", "쇼핑", "문화생활", "월급"}

// SeedDefaultCategories creates the default categories, skipping the batch
// when any default already exists.
func SeedDefaultCategories(ctx context.Context, s CategoryStore) (int, error) {
	existing, err := s.ListDefaultCategories(ctx)
	if err != nil {
		return 0, err
	}
	if len(existing) > 0 {
		return 0, nil
	}

	cats := make([]*domain.Category, 0, len(DefaultCategoryNames))
	for _, name := range DefaultCategoryNames {
		cats = append(cats, &domain.Category{Name: name, IsDefault: true})
	}
	if err := s.CreateCategories(ctx, cats); err != nil {
		return 0, err
	}
	return len(cats), nil
}
