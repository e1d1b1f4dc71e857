// Package synthetic produces plausible test accounts, categories and ledger
// rows for the administrator's test-data commands.
package synthetic

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/dvloznov/finance-assistant/internal/domain"
)

const (
	// Window is how far back generated transaction dates may reach.
	Window = 90 * 24 * time.Hour

	incomeBase    = 2_500_000
	incomeSpread  = 1_500_000
	expenseBase   = 1_000
	expenseSpread = 100_000

	fallbackDescription = "기타 지출"

	passwordAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
)

// ErrNoCategories is returned when transactions are requested without a
// category pool to draw from.
var ErrNoCategories = errors.New("synthetic: empty category pool")

var descriptions = map[string][]string{
	"식비":   {"점심 식사", "마트 장보기", "카페", "저녁 배달음식"},
	"교통비":  {"버스 요금", "지하철 요금", "택시비", "주유"},
	"쇼핑":   {"온라인 쇼핑", "옷 구매", "생활용품 구매"},
	"문화생활": {"영화 관람", "친구와 약속", "운동"},
	"월급":   {"회사 급여", "보너스", "부수입"},
}

var incomeMarkers = []string{"월급", "급여", "수입", "salary", "income"}

// AccountKind selects the naming scheme of a generated account.
type AccountKind int

const (
	// PopulatedAccount is created together with synthetic transactions.
	PopulatedAccount AccountKind = iota
	// CategoryAccount is created together with synthetic categories.
	CategoryAccount
)

// Account holds generated credentials. Password is plain text and must be
// hashed before it is stored.
type Account struct {
	Name     string
	Username string
	Password string
}

// Generator creates synthetic records. It is safe for concurrent use.
type Generator struct {
	mu  sync.Mutex
	rnd *rand.Rand
	now func() time.Time
}

// New creates a generator drawing from rnd. A nil now defaults to time.Now.
func New(rnd *rand.Rand, now func() time.Time) *Generator {
	if now == nil {
		now = time.Now
	}
	return &Generator{rnd: rnd, now: now}
}

// NewSeeded creates a generator with a deterministic source.
func NewSeeded(seed uint64, now func() time.Time) *Generator {
	return New(rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)), now)
}

// NewRandom creates a generator seeded from the runtime's random source.
func NewRandom() *Generator {
	return New(rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())), time.Now)
}

// Transactions returns count rows for userID. Categories are assigned round
// robin in pool order, so category i%len(pool) backs row i.
func (g *Generator) Transactions(userID string, pool []string, count int) ([]*domain.Transaction, error) {
	if len(pool) == 0 {
		return nil, ErrNoCategories
	}
	if count < 0 {
		return nil, fmt.Errorf("synthetic: negative count %d", count)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	txs := make([]*domain.Transaction, 0, count)
	for i := 0; i < count; i++ {
		category := pool[i%len(pool)]

		txType := domain.TransactionExpense
		amount := int64(expenseBase + g.rnd.IntN(expenseSpread))
		if IsIncomeCategory(category) {
			txType = domain.TransactionIncome
			amount = int64(incomeBase + g.rnd.IntN(incomeSpread))
		}

		txs = append(txs, &domain.Transaction{
			UserID:      userID,
			Type:        txType,
			Amount:      amount,
			Description: g.description(category),
			Category:    category,
			Date:        now.Add(-time.Duration(g.rnd.Int64N(int64(Window)))),
		})
	}
	return txs, nil
}

func (g *Generator) description(category string) string {
	options, ok := descriptions[category]
	if !ok {
		return fallbackDescription
	}
	return options[g.rnd.IntN(len(options))]
}

// Account returns a fresh random account of the given kind.
func (g *Generator) Account(kind AccountKind) Account {
	g.mu.Lock()
	defer g.mu.Unlock()

	suffix := 1000 + g.rnd.IntN(9000)

	usernamePrefix, namePrefix := "testuser", "테스트유저"
	if kind == CategoryAccount {
		usernamePrefix, namePrefix = "cat_user", "카테고리유저"
	}

	var pw strings.Builder
	pw.WriteString("pw_")
	for i := 0; i < 8; i++ {
		pw.WriteByte(passwordAlphabet[g.rnd.IntN(len(passwordAlphabet))])
	}

	return Account{
		Name:     fmt.Sprintf("%s%d", namePrefix, suffix),
		Username: fmt.Sprintf("%s%d", usernamePrefix, suffix),
		Password: pw.String(),
	}
}

// CategoryNames returns count income-style names followed by count
// expense-style names: 임의수입1..N then 임의지출1..N.
func CategoryNames(count int) []string {
	names := make([]string, 0, 2*count)
	for i := 0; i < count; i++ {
		names = append(names, fmt.Sprintf("임의수입%d", i+1))
	}
	for i := 0; i < count; i++ {
		names = append(names, fmt.Sprintf("임의지출%d", i+1))
	}
	return names
}

// IsIncomeCategory reports whether a category name denotes salary or income.
func IsIncomeCategory(name string) bool {
	lower := strings.ToLower(name)
	for _, marker := range incomeMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
