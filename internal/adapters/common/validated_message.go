package common

import (
	"time"

	"github.com/ajayykmr/sms-dispatch-go/internal/models"
)

// ValidatedMessage captures an SMS request after it has passed validation.
// The adapter converts it into an outbound gateway message and the worker
// engine uses it to enrich status and DLQ events.
type ValidatedMessage struct {
	Channel      string
	MessageID    string
	TraceID      string
	TenantID     string
	CreatedAt    time.Time
	Metadata     map[string]string
	Request      *models.SMSRequest
	RawPayload   []byte
	Key          []byte
	KafkaHeaders map[string][]byte
}
