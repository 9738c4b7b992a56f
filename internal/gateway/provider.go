package gateway

import "github.com/ajayykmr/sms-dispatch-go/internal/models"

// Provider is the capability every SMS provider implements. BuildRequest and
// ParseResponse perform no I/O; the Executor owns the HTTP exchange.
type Provider interface {
	// Name identifies the provider, e.g. "infobip".
	Name() string
	// Supports reports whether the provider implements cmd.
	Supports(cmd Command) bool
	// MaxRecipients is the largest batch the provider accepts in one send
	// request. Zero means no limit.
	MaxRecipients() int
	// BuildRequest returns the HTTP request for cmd. It fails with
	// ErrInvalidCommand for unsupported commands and ErrInvalidRequest when
	// the payload or configuration cannot produce a request.
	BuildRequest(cmd Command, payload CommandPayload, cfg models.GatewayConfig) (*HTTPParameters, error)
	// ParseResponse normalizes a 2xx response body for cmd. It fails with
	// ErrMalformedResponse when the body cannot be interpreted.
	ParseResponse(cmd Command, body []byte) (*CommandResult, error)
	// ParseDeliveryReport normalizes a delivery report pushed to a webhook.
	ParseDeliveryReport(body []byte) ([]models.DeliveryReport, error)
}
