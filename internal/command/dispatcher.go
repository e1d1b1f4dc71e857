package command

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/dvloznov/finance-assistant/internal/domain"
	"github.com/dvloznov/finance-assistant/internal/logger"
	"github.com/dvloznov/finance-assistant/internal/password"
	"github.com/dvloznov/finance-assistant/internal/store"
	"github.com/dvloznov/finance-assistant/internal/synthetic"
	"github.com/rs/zerolog"
)

// Result summarises a committed action.
type Result struct {
	Action  ActionName `json:"action"`
	Status  int        `json:"-"`
	Message string     `json:"message"`

	// UserID and Username identify the account the action created or touched.
	UserID   string `json:"userId,omitempty"`
	Username string `json:"username,omitempty"`

	// Created counts the rows inserted besides the user row.
	Created int `json:"created,omitempty"`
}

// Dispatcher applies validated actions to the store.
type Dispatcher struct {
	store  store.Store
	hasher password.Hasher
	gen    *synthetic.Generator
	log    zerolog.Logger
}

// NewDispatcher creates a dispatcher.
func NewDispatcher(s store.Store, hasher password.Hasher, gen *synthetic.Generator, log zerolog.Logger) *Dispatcher {
	return &Dispatcher{store: s, hasher: hasher, gen: gen, log: log}
}

// Dispatch executes exactly the side effects of v. Composite actions create
// the user first; if a later insert fails the user is kept and the failure
// is logged with its id.
func (d *Dispatcher) Dispatch(ctx context.Context, v Validated) (*Result, error) {
	switch a := v.action.(type) {
	case *CreateUser:
		return d.createUser(ctx, a)
	case *CreateCategory:
		return d.createCategory(ctx, a)
	case *AddDummyTransactions:
		return d.addDummyTransactions(ctx, a)
	case *CreateUserAndPopulate:
		return d.createUserAndPopulate(ctx, a)
	case *CreateUserAndCategories:
		return d.createUserAndCategories(ctx, a)
	case *DeleteUser:
		return d.deleteUser(ctx, a)
	case *Unsupported:
		// ValidateAction never yields Unsupported; only a hand-built Validated lands here.
		return nil, newError(KindUnsupported, ActionUnsupported, nil, "Unsupported command. Reason: %s", a.Reason)
	case nil:
		return nil, newError(KindValidation, "", nil, "action was not validated")
	default:
		return nil, fmt.Errorf("Dispatch: no handler for %T", a)
	}
}

func (d *Dispatcher) createUser(ctx context.Context, a *CreateUser) (*Result, error) {
	id, err := d.insertUser(ctx, ActionCreateUser, string(a.FullName), string(a.Username), string(a.Password))
	if err != nil {
		return nil, err
	}

	return &Result{
		Action:   ActionCreateUser,
		Status:   http.StatusCreated,
		Message:  fmt.Sprintf("User '%s' was created.", a.Username),
		UserID:   id,
		Username: string(a.Username),
	}, nil
}

func (d *Dispatcher) createCategory(ctx context.Context, a *CreateCategory) (*Result, error) {
	cat := &domain.Category{Name: string(a.CategoryName), IsDefault: a.IsDefault}
	if !a.IsDefault {
		cat.UserID = string(a.UserID)
	}

	err := d.store.CreateCategories(ctx, []*domain.Category{cat})
	switch {
	case errors.Is(err, store.ErrDuplicate):
		return nil, newError(KindConflict, ActionCreateCategory, err, "Category '%s' already exists.", a.CategoryName)
	case errors.Is(err, store.ErrNotFound):
		return nil, newError(KindNotFound, ActionCreateCategory, err, "User ID %s was not found.", a.UserID)
	case err != nil:
		return nil, storeFailure(ActionCreateCategory, "create category", err)
	}

	msg := fmt.Sprintf("Default category '%s' was created.", a.CategoryName)
	if !a.IsDefault {
		msg = fmt.Sprintf("Category '%s' was created for user ID %s.", a.CategoryName, a.UserID)
	}
	return &Result{
		Action:  ActionCreateCategory,
		Status:  http.StatusCreated,
		Message: msg,
		UserID:  cat.UserID,
		Created: 1,
	}, nil
}

func (d *Dispatcher) addDummyTransactions(ctx context.Context, a *AddDummyTransactions) (*Result, error) {
	user, err := d.store.FindUserByUsername(ctx, string(a.Username))
	if errors.Is(err, store.ErrNotFound) {
		return nil, newError(KindNotFound, ActionAddDummyTransactions, err, "User '%s' was not found.", a.Username)
	}
	if err != nil {
		return nil, storeFailure(ActionAddDummyTransactions, "find user", err)
	}

	pool, err := d.defaultCategoryPool(ctx, ActionAddDummyTransactions)
	if err != nil {
		return nil, err
	}

	txs, err := d.gen.Transactions(user.ID, pool, int(a.Count))
	if err != nil {
		return nil, storeFailure(ActionAddDummyTransactions, "generate transactions", err)
	}
	if err := d.store.InsertTransactions(ctx, txs); err != nil {
		return nil, storeFailure(ActionAddDummyTransactions, "insert transactions", err)
	}

	return &Result{
		Action:   ActionAddDummyTransactions,
		Status:   http.StatusCreated,
		Message:  fmt.Sprintf("Added %d dummy transactions to user '%s'.", len(txs), a.Username),
		UserID:   user.ID,
		Username: user.Username,
		Created:  len(txs),
	}, nil
}

func (d *Dispatcher) createUserAndPopulate(ctx context.Context, a *CreateUserAndPopulate) (*Result, error) {
	count := int(a.Count)
	if count == 0 {
		count = DefaultPopulateCount
	}

	// Checked before the user exists so a store without defaults leaves no account behind.
	pool, err := d.defaultCategoryPool(ctx, ActionCreateUserAndPopulate)
	if err != nil {
		return nil, err
	}

	acc := d.gen.Account(synthetic.PopulatedAccount)
	userID, err := d.insertUser(ctx, ActionCreateUserAndPopulate, acc.Name, acc.Username, acc.Password)
	if err != nil {
		return nil, err
	}

	log := logger.FromContext(ctx, d.log)
	log.Info().Str("user_id", userID).Str("username", acc.Username).Msg("created synthetic user")

	txs, err := d.gen.Transactions(userID, pool, count)
	if err == nil {
		err = d.store.InsertTransactions(ctx, txs)
	}
	if err != nil {
		log.Warn().Err(err).Str("user_id", userID).Str("username", acc.Username).
			Msg("transactions failed after user creation, user kept")
		return nil, storeFailure(ActionCreateUserAndPopulate,
			fmt.Sprintf("insert transactions for created user %s", userID), err)
	}

	return &Result{
		Action:   ActionCreateUserAndPopulate,
		Status:   http.StatusCreated,
		Message:  fmt.Sprintf("Created random user '%s' and added %d transactions.", acc.Username, len(txs)),
		UserID:   userID,
		Username: acc.Username,
		Created:  len(txs),
	}, nil
}

func (d *Dispatcher) createUserAndCategories(ctx context.Context, a *CreateUserAndCategories) (*Result, error) {
	acc := d.gen.Account(synthetic.CategoryAccount)
	userID, err := d.insertUser(ctx, ActionCreateUserAndCategories, acc.Name, acc.Username, acc.Password)
	if err != nil {
		return nil, err
	}

	log := logger.FromContext(ctx, d.log)
	log.Info().Str("user_id", userID).Str("username", acc.Username).Msg("created synthetic user")

	names := synthetic.CategoryNames(int(a.Count))
	cats := make([]*domain.Category, 0, len(names))
	for _, name := range names {
		cats = append(cats, &domain.Category{UserID: userID, Name: name})
	}

	if err := d.store.CreateCategories(ctx, cats); err != nil {
		log.Warn().Err(err).Str("user_id", userID).Str("username", acc.Username).
			Msg("categories failed after user creation, user kept")
		return nil, storeFailure(ActionCreateUserAndCategories,
			fmt.Sprintf("insert categories for created user %s", userID), err)
	}

	return &Result{
		Action:   ActionCreateUserAndCategories,
		Status:   http.StatusCreated,
		Message:  fmt.Sprintf("Created random user '%s' and added %d categories.", acc.Username, len(cats)),
		UserID:   userID,
		Username: acc.Username,
		Created:  len(cats),
	}, nil
}

func (d *Dispatcher) deleteUser(ctx context.Context, a *DeleteUser) (*Result, error) {
	user, err := d.store.FindUserByUsername(ctx, string(a.Username))
	if errors.Is(err, store.ErrNotFound) {
		return nil, newError(KindNotFound, ActionDeleteUser, err, "User '%s' was not found.", a.Username)
	}
	if err != nil {
		return nil, storeFailure(ActionDeleteUser, "find user", err)
	}

	// A concurrent delete may win between lookup and delete.
	err = d.store.DeleteUser(ctx, user.ID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, newError(KindNotFound, ActionDeleteUser, err, "User '%s' was not found.", a.Username)
	}
	if err != nil {
		return nil, storeFailure(ActionDeleteUser, "delete user", err)
	}

	return &Result{
		Action:   ActionDeleteUser,
		Status:   http.StatusOK,
		Message:  fmt.Sprintf("User '%s' was deleted.", a.Username),
		UserID:   user.ID,
		Username: user.Username,
	}, nil
}

// insertUser hashes plain and creates the account.
func (d *Dispatcher) insertUser(ctx context.Context, action ActionName, name, username, plain string) (string, error) {
	hash, err := d.hasher.Hash(plain)
	if err != nil {
		return "", storeFailure(action, "hash password", err)
	}

	id, err := d.store.CreateUser(ctx, &domain.User{
		Name:         name,
		Username:     username,
		PasswordHash: hash,
		Role:         domain.RoleUser,
	})
	if errors.Is(err, store.ErrDuplicate) {
		return "", newError(KindConflict, action, err, "Username '%s' already exists.", username)
	}
	if err != nil {
		return "", storeFailure(action, "create user", err)
	}
	return id, nil
}

func (d *Dispatcher) defaultCategoryPool(ctx context.Context, action ActionName) ([]string, error) {
	cats, err := d.store.ListDefaultCategories(ctx)
	if err != nil {
		return nil, storeFailure(action, "list default categories", err)
	}
	if len(cats) == 0 {
		return nil, newError(KindServerState, action, nil, "There are no default categories to generate transactions from.")
	}

	names := make([]string, 0, len(cats))
	for _, c := range cats {
		names = append(names, c.Name)
	}
	return names, nil
}

func storeFailure(action ActionName, step string, err error) *Error {
	return newError(KindStoreFailure, action, fmt.Errorf("%s: %w", step, err), "store operation failed")
}
