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

// CreateCategories implements store.CategoryStore. Owners and name clashes
// are checked first, then the batch is written with a single INSERT.
func (s *Store) CreateCategories(ctx context.Context, categories []*domain.Category) error {
	if len(categories) == 0 {
		return nil
	}

	owners := make(map[string]bool)
	seen := make(map[string]bool, len(categories))
	now := s.now()
	rows := make([]CategoryRow, 0, len(categories))
	for i, c := range categories {
		if !c.IsDefault {
			owners[c.UserID] = true
		}
		key := categoryKey(c)
		if seen[key] {
			return fmt.Errorf("CreateCategories: category %q: %w", c.Name, store.ErrDuplicate)
		}
		seen[key] = true

		catCopy := *c
		if catCopy.ID == "" {
			catCopy.ID = uuid.NewString()
		}
		rows = append(rows, *categoryToRow(&catCopy, int64(i), now))
	}

	for owner := range owners {
		exists, err := s.userExists(ctx, owner)
		if err != nil {
			return fmt.Errorf("CreateCategories: checking owner: %w", err)
		}
		if !exists {
			return fmt.Errorf("CreateCategories: owner %q: %w", owner, store.ErrNotFound)
		}
	}

	clash, err := s.findClash(ctx, rows)
	if err != nil {
		return fmt.Errorf("CreateCategories: %w", err)
	}
	if clash != "" {
		return fmt.Errorf("CreateCategories: category %q: %w", clash, store.ErrDuplicate)
	}

	q := s.client.Query(`
		INSERT INTO ` + s.table(categoriesTable) + ` (category_id, user_id, name, is_default, seq, created_ts)
		SELECT c.category_id, c.user_id, c.name, c.is_default, c.seq, c.created_ts
		FROM UNNEST(@rows) AS c
	`)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "rows", Value: rows},
	}

	if _, err := s.runDML(ctx, q); err != nil {
		return fmt.Errorf("CreateCategories: inserting rows: %w", err)
	}
	return nil
}

// findClash returns the first name in rows already used in the same namespace.
func (s *Store) findClash(ctx context.Context, rows []CategoryRow) (string, error) {
	q := s.client.Query(`
		SELECT c.name
		FROM UNNEST(@rows) AS c
		JOIN ` + s.table(categoriesTable) + ` e
		  ON e.name = c.name
		 AND e.is_default = c.is_default
		 AND IFNULL(e.user_id, '') = IFNULL(c.user_id, '')
		LIMIT 1
	`)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "rows", Value: rows},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return "", fmt.Errorf("checking duplicates: %w", err)
	}
	var row struct {
		Name string `bigquery:"name"`
	}
	err = it.Next(&row)
	if err == iterator.Done {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("checking duplicates: %w", err)
	}
	return row.Name, nil
}

// ListDefaultCategories implements store.CategoryStore.
func (s *Store) ListDefaultCategories(ctx context.Context) ([]*domain.Category, error) {
	q := s.client.Query(`
		SELECT category_id, user_id, name, is_default, seq, created_ts
		FROM ` + s.table(categoriesTable) + `
		WHERE is_default = TRUE
		ORDER BY created_ts, seq
	`)
	return s.readCategories(ctx, "ListDefaultCategories", q)
}

// ListCategoriesForUser implements store.CategoryStore.
func (s *Store) ListCategoriesForUser(ctx context.Context, userID string) ([]*domain.Category, error) {
	q := s.client.Query(`
		SELECT category_id, user_id, name, is_default, seq, created_ts
		FROM ` + s.table(categoriesTable) + `
		WHERE is_default = TRUE OR user_id = @user_id
		ORDER BY created_ts, seq
	`)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "user_id", Value: userID},
	}
	return s.readCategories(ctx, "ListCategoriesForUser", q)
}

func (s *Store) readCategories(ctx context.Context, op string, q *bigquery.Query) ([]*domain.Category, error) {
	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: query read: %w", op, err)
	}

	var result []*domain.Category
	for {
		var r CategoryRow
		err := it.Next(&r)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s: iter next: %w", op, err)
		}
		result = append(result, categoryFromRow(&r))
	}
	return result, nil
}

func categoryKey(c *domain.Category) string {
	if c.IsDefault {
		return "\x00default/" + c.Name
	}
	return c.UserID + "/" + c.Name
}
