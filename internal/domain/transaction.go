package domain

import (
	"time"
)

// TransactionType is the direction of money for a ledger row.
type TransactionType string

const (
	TransactionIncome  TransactionType = "income"
	TransactionExpense TransactionType = "expense"
)

// Transaction is one ledger row. Amount is a positive number of won; the
// direction is carried by Type, never by the sign.
type Transaction struct {
	ID          string
	UserID      string
	Type        TransactionType
	Amount      int64
	Description string
	Category    string // category name, not id
	Date        time.Time
	CreatedAt   time.Time
}

// SignedAmount returns the amount with expenses negated.
func (t *Transaction) SignedAmount() int64 {
	if t.Type == TransactionExpense {
		return -t.Amount
	}
	return t.Amount
}
