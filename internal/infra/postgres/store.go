package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/dvloznov/finance-assistant/internal/domain"
	"github.com/dvloznov/finance-assistant/internal/store"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store implements store.Store on a pgx pool. Deleting a user cascades
// through foreign keys.
type Store struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

// New wraps an open pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool, now: time.Now}
}

// Open connects to databaseURL.
func Open(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := NewPool(ctx, databaseURL)
	if err != nil {
		return nil, err
	}
	return New(pool), nil
}

// CreateUser implements store.UserStore.
func (s *Store) CreateUser(ctx context.Context, user *domain.User) (string, error) {
	id := user.ID
	if id == "" {
		id = uuid.NewString()
	}
	role := user.Role
	if role == "" {
		role = domain.RoleUser
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO users (id, name, username, password_hash, role, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		id, user.Name, user.Username, user.PasswordHash, role, s.now())
	if err != nil {
		return "", translate("CreateUser", err)
	}
	return id, nil
}

// FindUserByUsername implements store.UserStore.
func (s *Store) FindUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	var u domain.User
	err := s.pool.QueryRow(ctx, `
		SELECT id, name, username, password_hash, role, created_at
		FROM users WHERE username = $1`, username).
		Scan(&u.ID, &u.Name, &u.Username, &u.PasswordHash, &u.Role, &u.CreatedAt)
	if err != nil {
		return nil, translate("FindUserByUsername", err)
	}
	return &u, nil
}

// DeleteUser implements store.UserStore.
func (s *Store) DeleteUser(ctx context.Context, userID string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, userID)
	if err != nil {
		return translate("DeleteUser", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("DeleteUser: %s: %w", userID, store.ErrNotFound)
	}
	return nil
}

// CreateCategories implements store.CategoryStore. COPY makes the batch atomic.
func (s *Store) CreateCategories(ctx context.Context, categories []*domain.Category) error {
	if len(categories) == 0 {
		return nil
	}

	now := s.now()
	rows := make([][]any, 0, len(categories))
	for _, c := range categories {
		id := c.ID
		if id == "" {
			id = uuid.NewString()
		}
		var owner any
		if !c.IsDefault {
			owner = c.UserID
		}
		rows = append(rows, []any{id, owner, c.Name, c.IsDefault, now})
	}

	_, err := s.pool.CopyFrom(ctx,
		pgx.Identifier{"categories"},
		[]string{"id", "user_id", "name", "is_default", "created_at"},
		pgx.CopyFromRows(rows))
	return translate("CreateCategories", err)
}

// ListDefaultCategories implements store.CategoryStore.
func (s *Store) ListDefaultCategories(ctx context.Context) ([]*domain.Category, error) {
	return s.queryCategories(ctx, "ListDefaultCategories", `
		SELECT id, user_id, name, is_default, created_at
		FROM categories WHERE is_default
		ORDER BY position`)
}

// ListCategoriesForUser implements store.CategoryStore.
func (s *Store) ListCategoriesForUser(ctx context.Context, userID string) ([]*domain.Category, error) {
	return s.queryCategories(ctx, "ListCategoriesForUser", `
		SELECT id, user_id, name, is_default, created_at
		FROM categories WHERE is_default OR user_id = $1
		ORDER BY position`, userID)
}

func (s *Store) queryCategories(ctx context.Context, op, sql string, args ...any) ([]*domain.Category, error) {
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, translate(op, err)
	}
	defer rows.Close()

	var result []*domain.Category
	for rows.Next() {
		var (
			c     domain.Category
			owner *string
		)
		if err := rows.Scan(&c.ID, &owner, &c.Name, &c.IsDefault, &c.CreatedAt); err != nil {
			return nil, translate(op, err)
		}
		if owner != nil {
			c.UserID = *owner
		}
		result = append(result, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, translate(op, err)
	}
	return result, nil
}

// InsertTransactions implements store.TransactionStore.
func (s *Store) InsertTransactions(ctx context.Context, txs []*domain.Transaction) error {
	if len(txs) == 0 {
		return nil
	}

	now := s.now()
	rows := make([][]any, 0, len(txs))
	for _, tx := range txs {
		id := tx.ID
		if id == "" {
			id = uuid.NewString()
		}
		rows = append(rows, []any{
			id, tx.UserID, string(tx.Type), tx.Amount, tx.Description, tx.Category, tx.Date, now,
		})
	}

	_, err := s.pool.CopyFrom(ctx,
		pgx.Identifier{"transactions"},
		[]string{"id", "user_id", "type", "amount", "description", "category", "transaction_date", "created_at"},
		pgx.CopyFromRows(rows))
	return translate("InsertTransactions", err)
}

// ListTransactionsByUser implements store.TransactionStore.
func (s *Store) ListTransactionsByUser(ctx context.Context, userID string) ([]*domain.Transaction, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, user_id, type, amount, description, category, transaction_date, created_at
		FROM transactions WHERE user_id = $1
		ORDER BY transaction_date DESC, created_at DESC`, userID)
	if err != nil {
		return nil, translate("ListTransactionsByUser", err)
	}
	defer rows.Close()

	var result []*domain.Transaction
	for rows.Next() {
		var (
			tx     domain.Transaction
			txType string
		)
		if err := rows.Scan(&tx.ID, &tx.UserID, &txType, &tx.Amount, &tx.Description,
			&tx.Category, &tx.Date, &tx.CreatedAt); err != nil {
			return nil, translate("ListTransactionsByUser", err)
		}
		tx.Type = domain.TransactionType(txType)
		result = append(result, &tx)
	}
	if err := rows.Err(); err != nil {
		return nil, translate("ListTransactionsByUser", err)
	}
	return result, nil
}

// Close implements store.Store.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// Ensure Store implements store.Store.
var _ store.Store = (*Store)(nil)
