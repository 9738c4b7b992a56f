package models

import "time"

// Status event types published on the SMS status topic.
const (
	StatusEventAccepted = "accepted"
	StatusEventSent     = "sent"
	StatusEventRejected = "rejected"
	StatusEventFailed   = "failed"
	StatusEventDLQ      = "dlq"
	StatusEventReport   = "delivery_report"
)

// StatusEvent represents lifecycle events emitted for outbound messages.
type StatusEvent struct {
	MessageID string            `json:"message_id"`
	Channel   string            `json:"channel"`
	EventType string            `json:"event_type"`
	Gateway   string            `json:"gateway,omitempty"`
	Result    *SmsMessageResult `json:"result,omitempty"`
	Report    *DeliveryReport   `json:"report,omitempty"`
	Error     string            `json:"error,omitempty"`
	TraceID   string            `json:"trace_id,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}
