package models

import "time"

// ChannelSMS is the only channel carried on the request topic.
const ChannelSMS = "sms"

// SMSRequest is the payload consumed from the SMS request topic.
type SMSRequest struct {
	MessageID string            `json:"message_id"`
	Channel   string            `json:"channel"`
	TenantID  string            `json:"tenant_id,omitempty"`
	TraceID   string            `json:"trace_id,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	Meta      map[string]string `json:"meta,omitempty"`

	From    string            `json:"from,omitempty"`
	To      []string          `json:"to"`
	Body    string            `json:"body"`
	Options map[string]string `json:"options,omitempty"`
}

// Outbound converts the request into the message handed to a gateway.
// An empty From is replaced by defaultSender.
func (r SMSRequest) Outbound(defaultSender string) OutboundMessage {
	sender := r.From
	if sender == "" {
		sender = defaultSender
	}
	recipients := make([]string, len(r.To))
	copy(recipients, r.To)
	var options map[string]string
	if len(r.Options) > 0 {
		options = make(map[string]string, len(r.Options))
		for k, v := range r.Options {
			options[k] = v
		}
	}
	return OutboundMessage{
		Sender:     sender,
		Recipients: recipients,
		Message:    r.Body,
		Options:    options,
	}
}
