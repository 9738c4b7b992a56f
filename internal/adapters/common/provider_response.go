package common

import (
	"unicode/utf8"

	"github.com/ajayykmr/sms-dispatch-go/internal/models"
)

// DefaultRawBodyLimit defines the maximum number of characters retained from a
// provider response body when it is logged or attached to an event.
const DefaultRawBodyLimit = 1024

// Provider response statuses.
const (
	StatusAccepted = "accepted"
	StatusRejected = "rejected"
)

// ProviderResponse captures the normalized outcome of handing one request to
// the gateway.
type ProviderResponse struct {
	Gateway string                   `json:"gateway"`
	Status  string                   `json:"status"`
	Message string                   `json:"message,omitempty"`
	Result  *models.SmsMessageResult `json:"result,omitempty"`
	Meta    map[string]string        `json:"meta,omitempty"`
}

// Accepted reports whether at least one batch was accepted by the provider.
func (r *ProviderResponse) Accepted() bool {
	return r != nil && r.Status == StatusAccepted
}

// TruncateRaw trims the supplied string to the specified rune limit. If limit
// is zero or negative it returns an empty string.
func TruncateRaw(raw string, limit int) string {
	if limit <= 0 {
		return ""
	}
	if utf8.RuneCountInString(raw) <= limit {
		return raw
	}
	runes := []rune(raw)
	return string(runes[:limit])
}
