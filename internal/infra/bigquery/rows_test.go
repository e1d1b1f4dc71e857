package bigquery

import (
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/finance-assistant/internal/domain"
)

func TestTransactionRowMapping(t *testing.T) {
	created := time.Date(2026, 4, 30, 9, 0, 0, 0, time.UTC)
	tx := &domain.Transaction{
		ID:          "tx-1",
		UserID:      "u-1",
		Type:        domain.TransactionExpense,
		Amount:      4500,
		Description: "카페",
		Category:    "식비",
		// 08:00 KST on the 3rd is 23:00 UTC on the 2nd.
		Date: time.Date(2026, 4, 3, 8, 0, 0, 0, time.FixedZone("KST", 9*60*60)),
	}

	row := transactionToRow(tx, created)
	if want := (civil.Date{Year: 2026, Month: time.April, Day: 2}); row.TransactionDate != want {
		t.Errorf("TransactionDate = %v, want %v", row.TransactionDate, want)
	}
	if row.Type != "expense" || row.CategoryName != "식비" || row.CreatedTS != created {
		t.Errorf("row = %+v", row)
	}

	back := transactionFromRow(row)
	if back.ID != tx.ID || back.Amount != tx.Amount || back.Type != tx.Type || back.Category != tx.Category {
		t.Errorf("round trip = %+v", back)
	}
	if !back.Date.Equal(time.Date(2026, 4, 2, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Date = %v", back.Date)
	}
}

func TestCategoryRowMapping(t *testing.T) {
	now := time.Now()

	def := categoryToRow(&domain.Category{ID: "c1", Name: "식비", IsDefault: true, UserID: "ignored"}, 0, now)
	if def.UserID.Valid {
		t.Error("default category row has an owner")
	}
	if got := categoryFromRow(def); got.UserID != "" || !got.IsDefault {
		t.Errorf("default category = %+v", got)
	}

	owned := categoryToRow(&domain.Category{ID: "c2", Name: "용돈", UserID: "u-1"}, 3, now)
	if !owned.UserID.Valid || owned.UserID.StringVal != "u-1" || owned.Seq != 3 {
		t.Errorf("owned row = %+v", owned)
	}
	if got := categoryFromRow(owned); got.UserID != "u-1" || got.IsDefault {
		t.Errorf("owned category = %+v", got)
	}
}

func TestCategoryKey(t *testing.T) {
	a := categoryKey(&domain.Category{Name: "식비", IsDefault: true})
	b := categoryKey(&domain.Category{Name: "식비", UserID: "u"})
	if a == b {
		t.Error("default and owned namespaces collide")
	}
}

func TestTableRef(t *testing.T) {
	if got := tableRef("proj", "finance", "users"); got != "`proj.finance.users`" {
		t.Errorf("tableRef() = %s", got)
	}
}
