package command

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies command failures.
type Kind int

const (
	// KindStoreFailure is any persistence error not covered by another kind.
	KindStoreFailure Kind = iota
	// KindClassifierUnavailable means the model call itself failed.
	KindClassifierUnavailable
	// KindUnparseableResponse means no JSON object could be read from the model output.
	KindUnparseableResponse
	// KindValidation means the payload lacks or mistypes a field.
	KindValidation
	// KindNotFound means a referenced user does not exist.
	KindNotFound
	// KindConflict means the store rejected a duplicate identity.
	KindConflict
	// KindUnsupported means the model judged the command out of scope.
	KindUnsupported
	// KindServerState means the store is missing data the action relies on.
	KindServerState
)

var kindNames = map[Kind]string{
	KindStoreFailure:          "store_failure",
	KindClassifierUnavailable: "classifier_unavailable",
	KindUnparseableResponse:   "unparseable_response",
	KindValidation:            "validation",
	KindNotFound:              "not_found",
	KindConflict:              "conflict",
	KindUnsupported:           "unsupported",
	KindServerState:           "server_state",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// HTTPStatus maps the kind to a response code.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindValidation, KindUnsupported:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// ClientVisible reports whether the error message may be shown to the caller.
func (k Kind) ClientVisible() bool {
	switch k {
	case KindValidation, KindNotFound, KindConflict, KindUnsupported, KindServerState:
		return true
	default:
		return false
	}
}

// Generic messages for kinds whose details stay in the server log.
const (
	msgAIResponse  = "Failed to process the AI response."
	msgServerError = "A server error occurred while processing the command."
)

// Error is a classified command failure.
type Error struct {
	Kind    Kind
	Action  ActionName // empty when the failure precedes classification
	Message string     // client-facing text for visible kinds
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// PublicMessage returns the text that may be sent to the caller.
func (e *Error) PublicMessage() string {
	if e.Kind.ClientVisible() {
		return e.Message
	}
	if e.Kind == KindClassifierUnavailable || e.Kind == KindUnparseableResponse {
		return msgAIResponse
	}
	return msgServerError
}

// KindOf returns the kind of err. Unclassified errors are store failures.
func KindOf(err error) Kind {
	var cmdErr *Error
	if errors.As(err, &cmdErr) {
		return cmdErr.Kind
	}
	return KindStoreFailure
}

// PublicMessage returns the caller-safe message for any error.
func PublicMessage(err error) string {
	var cmdErr *Error
	if errors.As(err, &cmdErr) {
		return cmdErr.PublicMessage()
	}
	return msgServerError
}

func newError(kind Kind, action ActionName, err error, format string, args ...any) *Error {
	return &Error{
		Kind:    kind,
		Action:  action,
		Message: fmt.Sprintf(format, args...),
		Err:     err,
	}
}
