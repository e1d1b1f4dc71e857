package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"github.com/dvloznov/finance-assistant/internal/domain"
	"github.com/dvloznov/finance-assistant/internal/store"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"
)

// CreateUser implements store.UserStore. The insert only happens when the
// username is free; zero affected rows means it was taken.
func (s *Store) CreateUser(ctx context.Context, user *domain.User) (string, error) {
	id := user.ID
	if id == "" {
		id = uuid.NewString()
	}
	role := user.Role
	if role == "" {
		role = domain.RoleUser
	}

	q := s.client.Query(`
		INSERT INTO ` + s.table(usersTable) + ` (user_id, name, username, password_hash, role, created_ts)
		SELECT @user_id, @name, @username, @password_hash, @role, @created_ts
		FROM UNNEST([1])
		WHERE NOT EXISTS (
			SELECT 1 FROM ` + s.table(usersTable) + ` WHERE username = @username
		)
	`)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "user_id", Value: id},
		{Name: "name", Value: user.Name},
		{Name: "username", Value: user.Username},
		{Name: "password_hash", Value: user.PasswordHash},
		{Name: "role", Value: role},
		{Name: "created_ts", Value: s.now()},
	}

	affected, err := s.runDML(ctx, q)
	if err != nil {
		return "", fmt.Errorf("CreateUser: %w", err)
	}
	if affected == 0 {
		return "", fmt.Errorf("CreateUser: username %q: %w", user.Username, store.ErrDuplicate)
	}
	return id, nil
}

// FindUserByUsername implements store.UserStore.
func (s *Store) FindUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	q := s.client.Query(`
		SELECT user_id, name, username, password_hash, role, created_ts
		FROM ` + s.table(usersTable) + `
		WHERE username = @username
		LIMIT 1
	`)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "username", Value: username},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("FindUserByUsername: query read: %w", err)
	}

	var row UserRow
	err = it.Next(&row)
	if err == iterator.Done {
		return nil, fmt.Errorf("FindUserByUsername: %q: %w", username, store.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("FindUserByUsername: iter next: %w", err)
	}
	return userFromRow(&row), nil
}

func (s *Store) userExists(ctx context.Context, userID string) (bool, error) {
	q := s.client.Query(`SELECT COUNT(*) AS n FROM ` + s.table(usersTable) + ` WHERE user_id = @user_id`)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "user_id", Value: userID},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return false, fmt.Errorf("query read: %w", err)
	}
	var row struct {
		N int64 `bigquery:"n"`
	}
	if err := it.Next(&row); err != nil {
		return false, fmt.Errorf("iter next: %w", err)
	}
	return row.N > 0, nil
}
