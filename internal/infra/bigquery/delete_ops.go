package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"github.com/dvloznov/finance-assistant/internal/store"
)

// DeleteUser implements store.UserStore. It deletes the user's
// transactions, then owned categories, then the user row.
func (s *Store) DeleteUser(ctx context.Context, userID string) error {
	exists, err := s.userExists(ctx, userID)
	if err != nil {
		return fmt.Errorf("DeleteUser: checking user: %w", err)
	}
	if !exists {
		return fmt.Errorf("DeleteUser: %s: %w", userID, store.ErrNotFound)
	}

	// 1. Delete transactions
	if err := s.deleteByUser(ctx, transactionsTable, userID); err != nil {
		return fmt.Errorf("DeleteUser: deleting transactions: %w", err)
	}

	// 2. Delete owned categories
	if err := s.deleteByUser(ctx, categoriesTable, userID); err != nil {
		return fmt.Errorf("DeleteUser: deleting categories: %w", err)
	}

	// 3. Delete the user
	if err := s.deleteByUser(ctx, usersTable, userID); err != nil {
		return fmt.Errorf("DeleteUser: deleting user: %w", err)
	}

	return nil
}

func (s *Store) deleteByUser(ctx context.Context, table, userID string) error {
	q := s.client.Query(`DELETE FROM ` + s.table(table) + ` WHERE user_id = @user_id`)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "user_id", Value: userID},
	}

	_, err := s.runDML(ctx, q)
	return err
}
