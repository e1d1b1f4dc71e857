package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dvloznov/finance-assistant/internal/domain"
	"github.com/dvloznov/finance-assistant/internal/store"
	"github.com/google/uuid"
)

// Store is an in-memory implementation of store.Store.
// It is safe for concurrent use. Data is lost on restart.
type Store struct {
	mu           sync.RWMutex
	users        map[string]*domain.User
	categories   map[string]*domain.Category
	catOrder     []string
	transactions map[string]*domain.Transaction
	now          func() time.Time
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		users:        make(map[string]*domain.User),
		categories:   make(map[string]*domain.Category),
		transactions: make(map[string]*domain.Transaction),
		now:          time.Now,
	}
}

// CreateUser implements store.UserStore.
func (s *Store) CreateUser(ctx context.Context, user *domain.User) (string, error) {
	if user.Username == "" {
		return "", fmt.Errorf("CreateUser: username is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Username == user.Username {
			return "", fmt.Errorf("CreateUser: username %q: %w", user.Username, store.ErrDuplicate)
		}
	}

	userCopy := *user
	if userCopy.ID == "" {
		userCopy.ID = uuid.NewString()
	}
	if userCopy.Role == "" {
		userCopy.Role = domain.RoleUser
	}
	userCopy.CreatedAt = s.now()
	s.users[userCopy.ID] = &userCopy

	return userCopy.ID, nil
}

// FindUserByUsername implements store.UserStore.
func (s *Store) FindUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.Username == username {
			userCopy := *u
			return &userCopy, nil
		}
	}
	return nil, fmt.Errorf("FindUserByUsername: %q: %w", username, store.ErrNotFound)
}

// DeleteUser implements store.UserStore. Owned categories and transactions
// are removed with the account.
func (s *Store) DeleteUser(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[userID]; !ok {
		return fmt.Errorf("DeleteUser: %s: %w", userID, store.ErrNotFound)
	}

	for id, tx := range s.transactions {
		if tx.UserID == userID {
			delete(s.transactions, id)
		}
	}
	kept := s.catOrder[:0]
	for _, id := range s.catOrder {
		if s.categories[id].UserID == userID {
			delete(s.categories, id)
			continue
		}
		kept = append(kept, id)
	}
	s.catOrder = kept
	delete(s.users, userID)

	return nil
}

// CreateCategories implements store.CategoryStore. The batch is all or nothing.
func (s *Store) CreateCategories(ctx context.Context, categories []*domain.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	taken := make(map[string]bool, len(s.categories))
	for _, c := range s.categories {
		taken[categoryKey(c)] = true
	}

	batch := make([]*domain.Category, 0, len(categories))
	for _, c := range categories {
		if !c.IsDefault {
			if _, ok := s.users[c.UserID]; !ok {
				return fmt.Errorf("CreateCategories: owner %q: %w", c.UserID, store.ErrNotFound)
			}
		}
		key := categoryKey(c)
		if taken[key] {
			return fmt.Errorf("CreateCategories: category %q: %w", c.Name, store.ErrDuplicate)
		}
		taken[key] = true

		catCopy := *c
		if catCopy.ID == "" {
			catCopy.ID = uuid.NewString()
		}
		if catCopy.IsDefault {
			catCopy.UserID = ""
		}
		catCopy.CreatedAt = s.now()
		batch = append(batch, &catCopy)
	}

	for _, c := range batch {
		s.categories[c.ID] = c
		s.catOrder = append(s.catOrder, c.ID)
	}
	return nil
}

// ListDefaultCategories implements store.CategoryStore.
func (s *Store) ListDefaultCategories(ctx context.Context) ([]*domain.Category, error) {
	return s.listCategories(func(c *domain.Category) bool { return c.IsDefault }), nil
}

// ListCategoriesForUser implements store.CategoryStore.
func (s *Store) ListCategoriesForUser(ctx context.Context, userID string) ([]*domain.Category, error) {
	return s.listCategories(func(c *domain.Category) bool {
		return c.IsDefault || c.UserID == userID
	}), nil
}

func (s *Store) listCategories(keep func(*domain.Category) bool) []*domain.Category {
	s.mu.RLock()
	defer s.mu.RUnlock()

	// Creation order keeps round-robin assignment stable across calls.
	var result []*domain.Category
	for _, id := range s.catOrder {
		c := s.categories[id]
		if !keep(c) {
			continue
		}
		catCopy := *c
		result = append(result, &catCopy)
	}
	return result
}

// InsertTransactions implements store.TransactionStore.
func (s *Store) InsertTransactions(ctx context.Context, txs []*domain.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, tx := range txs {
		if _, ok := s.users[tx.UserID]; !ok {
			return fmt.Errorf("InsertTransactions: owner %q: %w", tx.UserID, store.ErrNotFound)
		}
	}

	for _, tx := range txs {
		txCopy := *tx
		if txCopy.ID == "" {
			txCopy.ID = uuid.NewString()
		}
		txCopy.CreatedAt = s.now()
		s.transactions[txCopy.ID] = &txCopy
	}
	return nil
}

// ListTransactionsByUser implements store.TransactionStore.
func (s *Store) ListTransactionsByUser(ctx context.Context, userID string) ([]*domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Transaction
	for _, tx := range s.transactions {
		if tx.UserID != userID {
			continue
		}
		txCopy := *tx
		result = append(result, &txCopy)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Date.After(result[j].Date)
	})
	return result, nil
}

// Close implements store.Store.
func (s *Store) Close() error {
	return nil
}

func categoryKey(c *domain.Category) string {
	if c.IsDefault {
		return "\x00default/" + c.Name
	}
	return c.UserID + "/" + c.Name
}

// Ensure Store implements store.Store.
var _ store.Store = (*Store)(nil)
