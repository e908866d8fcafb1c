package session

import (
	"errors"
	"fmt"
)

// Kind classifies why a session step failed.
type Kind int

const (
	// KindConfiguration means a required input was empty. No request was sent.
	KindConfiguration Kind = iota + 1
	// KindTransport covers connection, timeout and I/O failures.
	KindTransport
	// KindProtocol means the server answered with a non-200 status.
	KindProtocol
	// KindResponseFormat covers empty bodies, malformed JSON and missing fields.
	KindResponseFormat
)

func (k Kind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindTransport:
		return "transport"
	case KindProtocol:
		return "protocol"
	case KindResponseFormat:
		return "response format"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Step names used in Error.Step.
const (
	StepValidate = "validate"
	StepLogon    = "logon"
	StepReload   = "reload"
	StepSave     = "save"
)

var (
	// ErrEmptyResponse is returned when the server sends no body line.
	ErrEmptyResponse = errors.New("empty response")
	// ErrMissingToken is returned when logon succeeds at the HTTP level but
	// carries no usable security_token.
	ErrMissingToken = errors.New("no security_token in logon response")
	// ErrMissingFields is returned when the reload response lacks one of
	// name, id, version or configClass.
	ErrMissingFields = errors.New("response does not have the required attributes")
)

// Error is the structured failure reason of a session. The same information
// is always written to the session log.
type Error struct {
	Step string
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s error: %v", e.Step, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func stepError(step string, kind Kind, err error) *Error {
	return &Error{Step: step, Kind: kind, Err: err}
}

// KindOf reports the Kind of a session error, or 0 when err is not one.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return 0
}
