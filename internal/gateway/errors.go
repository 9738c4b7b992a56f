package gateway

import (
	"errors"
	"fmt"
)

// Error kinds raised while executing a command against a provider.
var (
	ErrInvalidCommand    = errors.New("invalid command")
	ErrInvalidRequest    = errors.New("invalid request")
	ErrTransport         = errors.New("transport failure")
	ErrHTTPStatus        = errors.New("http error response")
	ErrMalformedResponse = errors.New("malformed response")
)

// HTTPFailurePrefix starts every error message produced for transport and
// HTTP status failures.
const HTTPFailurePrefix = "An error occurred during the HTTP request"

// Error describes a failed exchange. Kind is one of the sentinel errors above
// and is matched by errors.Is.
type Error struct {
	Kind       error
	Provider   string
	Command    Command
	StatusCode int
	Reason     string
	Err        error
}

func (e *Error) Error() string {
	switch {
	case e.StatusCode > 0:
		return fmt.Sprintf("%s %s: %v (%d %s)", e.Provider, e.Command, e.Kind, e.StatusCode, e.Reason)
	case e.Err != nil:
		return fmt.Sprintf("%s %s: %v: %v", e.Provider, e.Command, e.Kind, e.Err)
	default:
		return fmt.Sprintf("%s %s: %v", e.Provider, e.Command, e.Kind)
	}
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Outcome is a short label for the kind, suitable for metrics.
func (e *Error) Outcome() string {
	return OutcomeOf(e.Kind)
}

// Temporary reports whether the exchange failed in a way that may succeed
// when repeated: a transport failure or a 5xx response.
func (e *Error) Temporary() bool {
	switch e.Kind {
	case ErrTransport:
		return true
	case ErrHTTPStatus:
		return e.StatusCode >= 500
	default:
		return false
	}
}

// Message renders the human readable error_message attached to results.
func (e *Error) Message() string {
	switch e.Kind {
	case ErrTransport:
		return fmt.Sprintf("%s: (%T) %v", HTTPFailurePrefix, e.Err, e.Err)
	case ErrHTTPStatus:
		return fmt.Sprintf("%s: (%d) %s", HTTPFailurePrefix, e.StatusCode, e.Reason)
	case ErrMalformedResponse:
		return UnknownGatewayError
	case ErrInvalidCommand:
		return fmt.Sprintf("Invalid command (%s) for gateway %s", e.Command, e.Provider)
	default:
		if e.Err != nil {
			return e.Err.Error()
		}
		return e.Kind.Error()
	}
}

// OutcomeOf maps an error kind to its metrics label.
func OutcomeOf(kind error) string {
	switch kind {
	case nil:
		return OutcomeOK
	case ErrInvalidCommand:
		return "invalid_command"
	case ErrInvalidRequest:
		return "invalid_request"
	case ErrTransport:
		return "transport_error"
	case ErrHTTPStatus:
		return "http_error"
	case ErrMalformedResponse:
		return "malformed"
	default:
		return "error"
	}
}

// InvalidCommand reports that provider does not implement cmd.
func InvalidCommand(provider string, cmd Command) error {
	return &Error{Kind: ErrInvalidCommand, Provider: provider, Command: cmd}
}

// Malformed annotates a parse failure as a malformed provider response.
func Malformed(err error) error {
	if err == nil {
		return ErrMalformedResponse
	}
	return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
}

// InvalidRequest annotates a request that could not be built from the
// supplied payload or configuration.
func InvalidRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidRequest, fmt.Sprintf(format, args...))
}
