package command

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/dvloznov/finance-assistant/internal/domain"
	"github.com/dvloznov/finance-assistant/internal/infra/memory"
	"github.com/dvloznov/finance-assistant/internal/logger"
	"github.com/dvloznov/finance-assistant/internal/store"
	"github.com/dvloznov/finance-assistant/internal/synthetic"
)

// countingStore wraps the memory store, counts writes and can inject failures.
type countingStore struct {
	*memory.Store

	userWrites     int
	categoryWrites int
	txWrites       int
	deletes        int

	createCategoriesErr   error
	insertTransactionsErr error
}

func newCountingStore() *countingStore {
	return &countingStore{Store: memory.NewStore()}
}

func (s *countingStore) CreateUser(ctx context.Context, user *domain.User) (string, error) {
	s.userWrites++
	return s.Store.CreateUser(ctx, user)
}

func (s *countingStore) CreateCategories(ctx context.Context, cats []*domain.Category) error {
	s.categoryWrites++
	if s.createCategoriesErr != nil {
		return s.createCategoriesErr
	}
	return s.Store.CreateCategories(ctx, cats)
}

func (s *countingStore) InsertTransactions(ctx context.Context, txs []*domain.Transaction) error {
	s.txWrites++
	if s.insertTransactionsErr != nil {
		return s.insertTransactionsErr
	}
	return s.Store.InsertTransactions(ctx, txs)
}

func (s *countingStore) DeleteUser(ctx context.Context, userID string) error {
	s.deletes++
	return s.Store.DeleteUser(ctx, userID)
}

func (s *countingStore) writes() int {
	return s.userWrites + s.categoryWrites + s.txWrites + s.deletes
}

// fakeHasher marks hashes so tests can tell them from plain passwords.
type fakeHasher struct{}

func (fakeHasher) Hash(plain string) (string, error) { return "hashed:" + plain, nil }

func (fakeHasher) Compare(hash, plain string) error {
	if hash != "hashed:"+plain {
		return errors.New("mismatch")
	}
	return nil
}

func newTestDispatcher(s store.Store) *Dispatcher {
	gen := synthetic.NewSeeded(11, func() time.Time { return time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC) })
	return NewDispatcher(s, fakeHasher{}, gen, logger.Nop())
}

func mustValidate(t *testing.T, action Action) Validated {
	t.Helper()
	v, err := NewValidator(1000).ValidateAction(action)
	if err != nil {
		t.Fatalf("ValidateAction(%T) failed: %v", action, err)
	}
	return v
}

func seedDefaults(t *testing.T, s store.CategoryStore) {
	t.Helper()
	if _, err := store.SeedDefaultCategories(context.Background(), s); err != nil {
		t.Fatalf("seed failed: %v", err)
	}
}

func TestDispatcher_CreateUser(t *testing.T) {
	ctx := context.Background()
	s := newCountingStore()
	d := newTestDispatcher(s)

	res, err := d.Dispatch(ctx, mustValidate(t, &CreateUser{FullName: "홍길동", Username: "hong", Password: "1234"}))
	if err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}
	if res.Status != http.StatusCreated || !strings.Contains(res.Message, "hong") {
		t.Errorf("result = %+v", res)
	}

	u, err := s.FindUserByUsername(ctx, "hong")
	if err != nil {
		t.Fatalf("user not stored: %v", err)
	}
	if u.PasswordHash != "hashed:1234" {
		t.Errorf("PasswordHash = %q, want hashed credential", u.PasswordHash)
	}

	_, err = d.Dispatch(ctx, mustValidate(t, &CreateUser{FullName: "other", Username: "hong", Password: "x"}))
	if KindOf(err) != KindConflict {
		t.Errorf("duplicate username kind = %s, want conflict", KindOf(err))
	}
}

func TestDispatcher_CreateCategory(t *testing.T) {
	ctx := context.Background()
	s := newCountingStore()
	d := newTestDispatcher(s)
	userID, _ := s.Store.CreateUser(ctx, &domain.User{Username: "kim"})

	res, err := d.Dispatch(ctx, mustValidate(t, &CreateCategory{CategoryName: "여행", IsDefault: true, UserID: ID(userID)}))
	if err != nil {
		t.Fatalf("default category failed: %v", err)
	}
	if res.UserID != "" {
		t.Errorf("default category got owner %q", res.UserID)
	}
	defaults, _ := s.ListDefaultCategories(ctx)
	if len(defaults) != 1 || defaults[0].UserID != "" {
		t.Errorf("defaults = %+v", defaults)
	}

	if _, err := d.Dispatch(ctx, mustValidate(t, &CreateCategory{CategoryName: "반려동물", UserID: ID(userID)})); err != nil {
		t.Fatalf("owned category failed: %v", err)
	}
	owned, _ := s.ListCategoriesForUser(ctx, userID)
	if len(owned) != 2 {
		t.Errorf("user sees %d categories, want 2", len(owned))
	}

	_, err = d.Dispatch(ctx, mustValidate(t, &CreateCategory{CategoryName: "여행", IsDefault: true}))
	if KindOf(err) != KindConflict {
		t.Errorf("duplicate category kind = %s, want conflict", KindOf(err))
	}

	_, err = d.Dispatch(ctx, mustValidate(t, &CreateCategory{CategoryName: "x", UserID: "missing"}))
	if KindOf(err) != KindNotFound {
		t.Errorf("unknown owner kind = %s, want not_found", KindOf(err))
	}
}

func TestDispatcher_AddDummyTransactions(t *testing.T) {
	ctx := context.Background()
	s := newCountingStore()
	seedDefaults(t, s)
	d := newTestDispatcher(s)
	userID, _ := s.Store.CreateUser(ctx, &domain.User{Username: "kim"})

	res, err := d.Dispatch(ctx, mustValidate(t, &AddDummyTransactions{Username: "kim", Count: 12}))
	if err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}
	if res.Created != 12 || res.Status != http.StatusCreated {
		t.Errorf("result = %+v", res)
	}

	txs, _ := s.ListTransactionsByUser(ctx, userID)
	if len(txs) != 12 {
		t.Fatalf("stored %d transactions, want 12", len(txs))
	}
	used := make(map[string]int)
	for _, tx := range txs {
		used[tx.Category]++
	}
	for _, name := range store.DefaultCategoryNames {
		if used[name] < 12/len(store.DefaultCategoryNames) {
			t.Errorf("category %q used %d times", name, used[name])
		}
	}
	if s.txWrites != 1 {
		t.Errorf("transactions inserted in %d batches, want 1", s.txWrites)
	}
}

func TestDispatcher_AddDummyTransactions_NoDefaults(t *testing.T) {
	ctx := context.Background()
	s := newCountingStore()
	d := newTestDispatcher(s)
	s.Store.CreateUser(ctx, &domain.User{Username: "kim"})

	_, err := d.Dispatch(ctx, mustValidate(t, &AddDummyTransactions{Username: "kim", Count: 3}))
	if KindOf(err) != KindServerState {
		t.Fatalf("kind = %s, want server_state", KindOf(err))
	}
	if KindOf(err).HTTPStatus() != http.StatusInternalServerError {
		t.Error("server-state error is not a 500")
	}
	if s.txWrites != 0 {
		t.Errorf("%d transaction writes", s.txWrites)
	}
}

func TestDispatcher_CreateUserAndPopulate(t *testing.T) {
	ctx := context.Background()
	s := newCountingStore()
	seedDefaults(t, s)
	d := newTestDispatcher(s)

	res, err := d.Dispatch(ctx, mustValidate(t, &CreateUserAndPopulate{}))
	if err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}
	if !strings.HasPrefix(res.Username, "testuser") {
		t.Errorf("username = %q", res.Username)
	}
	if res.Created != DefaultPopulateCount {
		t.Errorf("created = %d, want %d", res.Created, DefaultPopulateCount)
	}

	u, err := s.FindUserByUsername(ctx, res.Username)
	if err != nil {
		t.Fatalf("user not stored: %v", err)
	}
	if !strings.HasPrefix(u.PasswordHash, "hashed:pw_") {
		t.Errorf("password hash = %q", u.PasswordHash)
	}
	txs, _ := s.ListTransactionsByUser(ctx, u.ID)
	if len(txs) != DefaultPopulateCount {
		t.Errorf("stored %d transactions", len(txs))
	}
}

func TestDispatcher_CreateUserAndPopulate_NoDefaultsCreatesNoUser(t *testing.T) {
	s := newCountingStore()
	d := newTestDispatcher(s)

	_, err := d.Dispatch(context.Background(), mustValidate(t, &CreateUserAndPopulate{Count: 5}))
	if KindOf(err) != KindServerState {
		t.Fatalf("kind = %s, want server_state", KindOf(err))
	}
	if s.writes() != 0 {
		t.Errorf("%d writes, want 0", s.writes())
	}
}

func TestDispatcher_CompositePartialFailureKeepsUser(t *testing.T) {
	ctx := context.Background()
	s := newCountingStore()
	seedDefaults(t, s)
	s.insertTransactionsErr = errors.New("disk full")
	d := newTestDispatcher(s)

	_, err := d.Dispatch(ctx, mustValidate(t, &CreateUserAndPopulate{Count: 4}))
	if KindOf(err) != KindStoreFailure {
		t.Fatalf("kind = %s, want store_failure", KindOf(err))
	}
	if s.userWrites != 1 {
		t.Fatalf("user writes = %d, want 1", s.userWrites)
	}
	if !strings.Contains(err.Error(), "created user") {
		t.Errorf("error does not name the kept user: %v", err)
	}
}

func TestDispatcher_CreateUserAndCategories(t *testing.T) {
	ctx := context.Background()
	s := newCountingStore()
	d := newTestDispatcher(s)

	res, err := d.Dispatch(ctx, mustValidate(t, &CreateUserAndCategories{Count: 10}))
	if err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}
	if !strings.HasPrefix(res.Username, "cat_user") {
		t.Errorf("username = %q", res.Username)
	}

	cats, _ := s.ListCategoriesForUser(ctx, res.UserID)
	if len(cats) != 20 {
		t.Fatalf("stored %d categories, want 20", len(cats))
	}
	for _, c := range cats {
		if c.IsDefault || c.UserID != res.UserID {
			t.Errorf("category %+v is not owned by the new user", c)
		}
	}
	if s.categoryWrites != 1 {
		t.Errorf("categories inserted in %d batches, want 1", s.categoryWrites)
	}
}

func TestDispatcher_DeleteUser(t *testing.T) {
	ctx := context.Background()
	s := newCountingStore()
	d := newTestDispatcher(s)
	s.Store.CreateUser(ctx, &domain.User{Username: "kim"})

	res, err := d.Dispatch(ctx, mustValidate(t, &DeleteUser{Username: "kim"}))
	if err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}
	if res.Status != http.StatusOK {
		t.Errorf("status = %d, want 200", res.Status)
	}
	if _, err := s.FindUserByUsername(ctx, "kim"); !errors.Is(err, store.ErrNotFound) {
		t.Error("user still exists")
	}

	_, err = d.Dispatch(ctx, mustValidate(t, &DeleteUser{Username: "kim"}))
	if KindOf(err) != KindNotFound {
		t.Errorf("second delete kind = %s, want not_found", KindOf(err))
	}
}

func TestDispatcher_RejectsUnvalidated(t *testing.T) {
	s := newCountingStore()
	d := newTestDispatcher(s)

	_, err := d.Dispatch(context.Background(), Validated{})
	if KindOf(err) != KindValidation {
		t.Errorf("kind = %s, want validation", KindOf(err))
	}
	if s.writes() != 0 {
		t.Errorf("%d writes", s.writes())
	}
}

func TestDispatcher_RefusesUnsupported(t *testing.T) {
	s := newCountingStore()
	d := newTestDispatcher(s)

	_, err := d.Dispatch(context.Background(), Validated{action: &Unsupported{Reason: "날씨 질문"}})
	if KindOf(err) != KindUnsupported {
		t.Errorf("kind = %s, want unsupported", KindOf(err))
	}
	if s.writes() != 0 {
		t.Errorf("%d writes", s.writes())
	}
}

func TestDispatcher_CreateUserFromNumericPassword(t *testing.T) {
	ctx := context.Background()
	s := newCountingStore()
	d := newTestDispatcher(s)

	v, err := NewValidator(1000).Validate(envelope(ActionCreateUser, `{"name":"홍길동","username":"hong","password":1234}`))
	if err != nil {
		t.Fatalf("Validate() error: %v", err)
	}
	if _, err := d.Dispatch(ctx, v); err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}

	u, err := s.FindUserByUsername(ctx, "hong")
	if err != nil {
		t.Fatalf("user not stored: %v", err)
	}
	if u.PasswordHash != "hashed:1234" || u.Name != "홍길동" {
		t.Errorf("user = %+v", u)
	}
}
