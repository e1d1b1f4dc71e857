package command

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validated is an action whose payload passed validation. Only the Validator
// creates values that Dispatch accepts.
type Validated struct {
	action Action
}

// Action returns the validated payload.
func (v Validated) Action() Action {
	return v.action
}

// Validator checks payloads against the schema of their action.
type Validator struct {
	validate *validator.Validate
	maxCount int
}

// NewValidator creates a validator. maxCount caps synthetic row and category
// counts; zero disables the cap.
func NewValidator(maxCount int) *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report JSON field names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &Validator{validate: v, maxCount: maxCount}
}

// Validate decodes env's payload for its action and checks it. An
// "unsupported" envelope always fails with KindUnsupported. Unknown keys in
// the payload are ignored.
func (val *Validator) Validate(env *Envelope) (Validated, error) {
	if env == nil {
		return Validated{}, newError(KindValidation, "", nil, "missing intent envelope")
	}

	action := newAction(env.Action)
	if action == nil {
		return Validated{}, newError(KindValidation, env.Action, nil, "unknown action %q", string(env.Action))
	}

	payload := bytes.TrimSpace(env.Payload)
	if len(payload) > 0 && !bytes.Equal(payload, []byte("null")) {
		if err := json.Unmarshal(payload, action); err != nil {
			return Validated{}, decodeError(env.Action, err)
		}
	}

	return val.ValidateAction(action)
}

// ValidateAction checks an already decoded action. It applies defaults, so
// validating the action of a Validated value again succeeds unchanged.
func (val *Validator) ValidateAction(action Action) (Validated, error) {
	if action == nil {
		return Validated{}, newError(KindValidation, "", nil, "missing action")
	}

	switch a := action.(type) {
	case *Unsupported:
		reason := strings.TrimSpace(a.Reason)
		if reason == "" {
			reason = "no reason given"
		}
		return Validated{}, newError(KindUnsupported, ActionUnsupported, nil, "Unsupported command. Reason: %s", reason)
	case *CreateUserAndPopulate:
		if a.Count == 0 {
			a.Count = DefaultPopulateCount
		}
	}

	if err := val.validate.Struct(action); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return Validated{}, fieldErrors(action.Name(), verrs)
		}
		return Validated{}, newError(KindValidation, action.Name(), err, "invalid payload")
	}

	if err := val.checkCount(action); err != nil {
		return Validated{}, err
	}

	return Validated{action: action}, nil
}

func (val *Validator) checkCount(action Action) error {
	if val.maxCount <= 0 {
		return nil
	}

	var count Count
	switch a := action.(type) {
	case *AddDummyTransactions:
		count = a.Count
	case *CreateUserAndPopulate:
		count = a.Count
	case *CreateUserAndCategories:
		count = a.Count
	default:
		return nil
	}

	if int(count) > val.maxCount {
		return newError(KindValidation, action.Name(), nil, "count must be at most %d, got %d", val.maxCount, count)
	}
	return nil
}

// fieldErrors names every missing field and every other violation.
func fieldErrors(name ActionName, verrs validator.ValidationErrors) *Error {
	var missing, invalid []string
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required", "required_unless":
			missing = append(missing, fe.Field())
		case "min":
			invalid = append(invalid, fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param()))
		default:
			invalid = append(invalid, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
		}
	}
	sort.Strings(missing)

	var parts []string
	if len(missing) > 0 {
		parts = append(parts, "missing required field(s): "+strings.Join(missing, ", "))
	}
	parts = append(parts, invalid...)

	return newError(KindValidation, name, verrs, "%s: %s", name, strings.Join(parts, "; "))
}

func decodeError(name ActionName, err error) *Error {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		if typeErr.Field == "" {
			return newError(KindValidation, name, err, "%s: payload must be a JSON object", name)
		}
		return newError(KindValidation, name, err, "%s: field %s has the wrong type (got %s)", name, typeErr.Field, typeErr.Value)
	}
	return newError(KindValidation, name, err, "%s: invalid payload: %v", name, err)
}
