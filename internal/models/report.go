package models

import "reflect"

// ReportTime carries a provider timestamp. Providers that supply ISO-8601
// strings keep them verbatim in Text; providers whose timestamps are
// converted to UTC epoch seconds use Epoch.
type ReportTime struct {
	Text  string `json:"text,omitempty"`
	Epoch int64  `json:"epoch,omitempty"`
}

// IsZero reports whether the provider supplied no timestamp.
func (t ReportTime) IsZero() bool {
	return t.Text == "" && t.Epoch == 0
}

// DeliveryReport is the normalized per-recipient outcome of a message.
type DeliveryReport struct {
	Gateway        string         `json:"gateway,omitempty"`
	Recipient      string         `json:"recipient"`
	MessageID      string         `json:"message_id,omitempty"`
	BulkID         string         `json:"bulk_id,omitempty"`
	Status         DeliveryStatus `json:"status"`
	TimeQueued     ReportTime     `json:"time_queued"`
	TimeDelivered  ReportTime     `json:"time_delivered"`
	ErrorCode      ErrorCode      `json:"error_code"`
	ErrorMessage   string         `json:"error_message,omitempty"`
	PermanentError bool           `json:"permanent_error,omitempty"`

	GatewayStatus            string `json:"gateway_status,omitempty"`
	GatewayStatusCode        string `json:"gateway_status_code,omitempty"`
	GatewayStatusDescription string `json:"gateway_status_description,omitempty"`
	GatewayErrorCode         string `json:"gateway_error_code,omitempty"`
	GatewayErrorMessage      string `json:"gateway_error_message,omitempty"`
}

// SmsMessageResult is the aggregate outcome of a send operation.
type SmsMessageResult struct {
	Status        bool                      `json:"status"`
	ErrorMessage  string                    `json:"error_message,omitempty"`
	CreditUsed    float64                   `json:"credit_used"`
	CreditBalance float64                   `json:"credit_balance"`
	Reports       map[string]DeliveryReport `json:"reports"`
}

// NewSmsMessageResult returns the default result: not accepted, no reports.
func NewSmsMessageResult() *SmsMessageResult {
	return &SmsMessageResult{Reports: map[string]DeliveryReport{}}
}

// MergeReports copies reports into r keyed by recipient. An existing entry
// for the same recipient is replaced by the incoming one; the recipients
// whose previous report differed from the replacement are returned.
func (r *SmsMessageResult) MergeReports(reports map[string]DeliveryReport) []string {
	if r.Reports == nil {
		r.Reports = make(map[string]DeliveryReport, len(reports))
	}
	var replaced []string
	for recipient, report := range reports {
		if prev, ok := r.Reports[recipient]; ok && !reflect.DeepEqual(prev, report) {
			replaced = append(replaced, recipient)
		}
		r.Reports[recipient] = report
	}
	return replaced
}

// Recipients returns the recipients that have a report attached.
func (r *SmsMessageResult) Recipients() []string {
	out := make([]string, 0, len(r.Reports))
	for recipient := range r.Reports {
		out = append(out, recipient)
	}
	return out
}

// CreditBalance is the normalized answer of a credits command.
type CreditBalance struct {
	Status       bool           `json:"status"`
	Balance      string         `json:"credit_balance"`
	ErrorMessage string         `json:"error_message,omitempty"`
	Original     map[string]any `json:"original,omitempty"`
}

// TestResult is the uniform answer of a configuration test.
type TestResult struct {
	Status       bool   `json:"status"`
	ErrorMessage string `json:"error_message,omitempty"`
}
