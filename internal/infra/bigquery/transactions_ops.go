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

// InsertTransactions implements store.TransactionStore. Rows are written with
// DML rather than the streaming inserter so they can be deleted right away.
func (s *Store) InsertTransactions(ctx context.Context, txs []*domain.Transaction) error {
	if len(txs) == 0 {
		return nil
	}

	owners := make(map[string]bool)
	now := s.now()
	rows := make([]TransactionRow, 0, len(txs))
	for _, tx := range txs {
		owners[tx.UserID] = true
		txCopy := *tx
		if txCopy.ID == "" {
			txCopy.ID = uuid.NewString()
		}
		rows = append(rows, *transactionToRow(&txCopy, now))
	}

	for owner := range owners {
		exists, err := s.userExists(ctx, owner)
		if err != nil {
			return fmt.Errorf("InsertTransactions: checking owner: %w", err)
		}
		if !exists {
			return fmt.Errorf("InsertTransactions: owner %q: %w", owner, store.ErrNotFound)
		}
	}

	q := s.client.Query(`
		INSERT INTO ` + s.table(transactionsTable) + ` (
			transaction_id, user_id, type, amount, description,
			category_name, transaction_date, created_ts
		)
		SELECT
			t.transaction_id, t.user_id, t.type, t.amount, t.description,
			t.category_name, t.transaction_date, t.created_ts
		FROM UNNEST(@rows) AS t
	`)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "rows", Value: rows},
	}

	if _, err := s.runDML(ctx, q); err != nil {
		return fmt.Errorf("InsertTransactions: inserting rows: %w", err)
	}
	return nil
}

// ListTransactionsByUser implements store.TransactionStore.
func (s *Store) ListTransactionsByUser(ctx context.Context, userID string) ([]*domain.Transaction, error) {
	q := s.client.Query(`
		SELECT
			transaction_id, user_id, type, amount, description,
			category_name, transaction_date, created_ts
		FROM ` + s.table(transactionsTable) + `
		WHERE user_id = @user_id
		ORDER BY transaction_date DESC, created_ts DESC
	`)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "user_id", Value: userID},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListTransactionsByUser: query read: %w", err)
	}

	var result []*domain.Transaction
	for {
		var r TransactionRow
		err := it.Next(&r)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListTransactionsByUser: iter next: %w", err)
		}
		result = append(result, transactionFromRow(&r))
	}
	return result, nil
}
