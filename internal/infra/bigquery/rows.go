package bigquery

import (
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"github.com/dvloznov/finance-assistant/internal/domain"
)

// UserRow mirrors finance.users.
type UserRow struct {
	UserID       string    `bigquery:"user_id"`       // REQUIRED
	Name         string    `bigquery:"name"`          // REQUIRED
	Username     string    `bigquery:"username"`      // REQUIRED, unique by convention
	PasswordHash string    `bigquery:"password_hash"` // REQUIRED
	Role         string    `bigquery:"role"`          // REQUIRED
	CreatedTS    time.Time `bigquery:"created_ts"`    // REQUIRED
}

// CategoryRow mirrors finance.categories.
type CategoryRow struct {
	CategoryID string              `bigquery:"category_id"` // REQUIRED
	UserID     bigquery.NullString `bigquery:"user_id"`     // NULL for default categories
	Name       string              `bigquery:"name"`        // REQUIRED
	IsDefault  bool                `bigquery:"is_default"`  // REQUIRED
	Seq        int64               `bigquery:"seq"`         // position inside the insert batch
	CreatedTS  time.Time           `bigquery:"created_ts"`  // REQUIRED
}

// TransactionRow mirrors finance.transactions.
type TransactionRow struct {
	TransactionID   string     `bigquery:"transaction_id"`   // REQUIRED
	UserID          string     `bigquery:"user_id"`          // REQUIRED
	Type            string     `bigquery:"type"`             // income | expense
	Amount          int64      `bigquery:"amount"`           // REQUIRED, positive won
	Description     string     `bigquery:"description"`      // REQUIRED
	CategoryName    string     `bigquery:"category_name"`    // REQUIRED
	TransactionDate civil.Date `bigquery:"transaction_date"` // REQUIRED
	CreatedTS       time.Time  `bigquery:"created_ts"`       // REQUIRED
}

func userFromRow(r *UserRow) *domain.User {
	return &domain.User{
		ID:           r.UserID,
		Name:         r.Name,
		Username:     r.Username,
		PasswordHash: r.PasswordHash,
		Role:         r.Role,
		CreatedAt:    r.CreatedTS,
	}
}

func categoryToRow(c *domain.Category, seq int64, created time.Time) *CategoryRow {
	row := &CategoryRow{
		CategoryID: c.ID,
		Name:       c.Name,
		IsDefault:  c.IsDefault,
		Seq:        seq,
		CreatedTS:  created,
	}
	if !c.IsDefault {
		row.UserID = bigquery.NullString{StringVal: c.UserID, Valid: true}
	}
	return row
}

func categoryFromRow(r *CategoryRow) *domain.Category {
	c := &domain.Category{
		ID:        r.CategoryID,
		Name:      r.Name,
		IsDefault: r.IsDefault,
		CreatedAt: r.CreatedTS,
	}
	if r.UserID.Valid {
		c.UserID = r.UserID.StringVal
	}
	return c
}

// transactionToRow stores the calendar date of tx.Date in UTC.
func transactionToRow(tx *domain.Transaction, created time.Time) *TransactionRow {
	return &TransactionRow{
		TransactionID:   tx.ID,
		UserID:          tx.UserID,
		Type:            string(tx.Type),
		Amount:          tx.Amount,
		Description:     tx.Description,
		CategoryName:    tx.Category,
		TransactionDate: civil.DateOf(tx.Date.UTC()),
		CreatedTS:       created,
	}
}

func transactionFromRow(r *TransactionRow) *domain.Transaction {
	return &domain.Transaction{
		ID:          r.TransactionID,
		UserID:      r.UserID,
		Type:        domain.TransactionType(r.Type),
		Amount:      r.Amount,
		Description: r.Description,
		Category:    r.CategoryName,
		Date:        r.TransactionDate.In(time.UTC),
		CreatedAt:   r.CreatedTS,
	}
}
