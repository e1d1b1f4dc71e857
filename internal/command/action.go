// Package command turns administrator commands written in natural language
// into one of a closed set of actions and executes them against the store.
//
// A command flows through four stages: the Classifier asks the model for an
// intent envelope, ExtractEnvelope reads the JSON object out of the model's
// text, the Validator decodes and checks the payload for the claimed action,
// and the Dispatcher applies the side effects. Service ties the stages
// together and records every command.
package command

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
)

// ActionName is the wire name of an action.
type ActionName string

const (
	ActionCreateUser              ActionName = "createUser"
	ActionCreateCategory          ActionName = "createCategory"
	ActionAddDummyTransactions    ActionName = "addDummyTransactions"
	ActionCreateUserAndPopulate   ActionName = "createUserAndPopulate"
	ActionCreateUserAndCategories ActionName = "createUserAndCategories"
	ActionDeleteUser              ActionName = "deleteUser"
	ActionUnsupported             ActionName = "unsupported"
)

// ActionNames lists every action in taxonomy order.
var ActionNames = []ActionName{
	ActionCreateUser,
	ActionCreateCategory,
	ActionAddDummyTransactions,
	ActionCreateUserAndPopulate,
	ActionCreateUserAndCategories,
	ActionDeleteUser,
	ActionUnsupported,
}

// DefaultPopulateCount is used by createUserAndPopulate when no count is given.
const DefaultPopulateCount = 10

// Action is a decoded payload. Only pointers to the payload types below
// implement it, so the set of actions is closed.
type Action interface {
	Name() ActionName
	isAction()
}

// CreateUser creates one account with the given credentials.
type CreateUser struct {
	FullName Text `json:"name" validate:"required"`
	Username Text `json:"username" validate:"required"`
	Password Text `json:"password" validate:"required"`
}

// CreateCategory creates a default category or one owned by UserID.
type CreateCategory struct {
	CategoryName Text `json:"categoryName" validate:"required"`
	UserID       ID   `json:"userId" validate:"required_unless=IsDefault true"`
	IsDefault    bool `json:"isDefault"`
}

// AddDummyTransactions adds Count synthetic transactions to an existing user.
type AddDummyTransactions struct {
	Username Text  `json:"username" validate:"required"`
	Count    Count `json:"count" validate:"required,min=1"`
}

// CreateUserAndPopulate creates a random account with Count synthetic transactions.
type CreateUserAndPopulate struct {
	Count Count `json:"count" validate:"omitempty,min=1"`
}

// CreateUserAndCategories creates a random account with Count income and
// Count expense categories.
type CreateUserAndCategories struct {
	Count Count `json:"count" validate:"required,min=1"`
}

// DeleteUser removes an account by username.
type DeleteUser struct {
	Username Text `json:"username" validate:"required"`
}

// Unsupported carries the model's reason for rejecting a command.
type Unsupported struct {
	Reason string `json:"reason"`
}

func (CreateUser) Name() ActionName              { return ActionCreateUser }
func (CreateCategory) Name() ActionName          { return ActionCreateCategory }
func (AddDummyTransactions) Name() ActionName    { return ActionAddDummyTransactions }
func (CreateUserAndPopulate) Name() ActionName   { return ActionCreateUserAndPopulate }
func (CreateUserAndCategories) Name() ActionName { return ActionCreateUserAndCategories }
func (DeleteUser) Name() ActionName              { return ActionDeleteUser }
func (Unsupported) Name() ActionName             { return ActionUnsupported }

func (*CreateUser) isAction()              {}
func (*CreateCategory) isAction()          {}
func (*AddDummyTransactions) isAction()    {}
func (*CreateUserAndPopulate) isAction()   {}
func (*CreateUserAndCategories) isAction() {}
func (*DeleteUser) isAction()              {}
func (*Unsupported) isAction()             {}

// newAction returns an empty payload for name, or nil for unknown names.
func newAction(name ActionName) Action {
	switch name {
	case ActionCreateUser:
		return &CreateUser{}
	case ActionCreateCategory:
		return &CreateCategory{}
	case ActionAddDummyTransactions:
		return &AddDummyTransactions{}
	case ActionCreateUserAndPopulate:
		return &CreateUserAndPopulate{}
	case ActionCreateUserAndCategories:
		return &CreateUserAndCategories{}
	case ActionDeleteUser:
		return &DeleteUser{}
	case ActionUnsupported:
		return &Unsupported{}
	}
	return nil
}

// ID is an entity id the model may write as a JSON number or string.
type ID string

// UnmarshalJSON implements json.Unmarshaler.
func (id *ID) UnmarshalJSON(data []byte) error {
	s, err := looseString(data, reflect.TypeOf(*id))
	if err != nil {
		return err
	}
	*id = ID(s)
	return nil
}

// Text is a string field the model may write as a JSON number, as in a
// password of 1234. Numbers keep their literal spelling.
type Text string

// UnmarshalJSON implements json.Unmarshaler.
func (t *Text) UnmarshalJSON(data []byte) error {
	s, err := looseString(data, reflect.TypeOf(*t))
	if err != nil {
		return err
	}
	*t = Text(s)
	return nil
}

// looseString reads a JSON string or number as text. null reads as "".
func looseString(data []byte, typ reflect.Type) (string, error) {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return "", nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return "", err
		}
		return s, nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return "", &json.UnmarshalTypeError{Value: jsonKind(data), Type: typ}
	}
	return n.String(), nil
}

func jsonKind(data []byte) string {
	if len(data) == 0 {
		return "empty"
	}
	switch data[0] {
	case 't', 'f':
		return "bool"
	case '{':
		return "object"
	case '[':
		return "array"
	}
	return "value"
}

// Count is a row count the model may write as a JSON number or numeric string.
type Count int

// UnmarshalJSON implements json.Unmarshaler.
func (c *Count) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*c = 0
		return nil
	}

	raw := string(data)
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
	}

	n, err := strconv.Atoi(raw)
	if err != nil {
		f, ferr := strconv.ParseFloat(raw, 64)
		if ferr != nil || f != float64(int(f)) {
			return fmt.Errorf("count must be a whole number, got %s", string(data))
		}
		n = int(f)
	}
	*c = Count(n)
	return nil
}
