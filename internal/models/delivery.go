package models

// DeliveryStatus is the gateway-agnostic state of a message for one recipient.
type DeliveryStatus string

// Canonical delivery statuses. Provider tables must only map onto these.
const (
	DeliveryStatusQueued           DeliveryStatus = "queued"
	DeliveryStatusPending          DeliveryStatus = "pending"
	DeliveryStatusSent             DeliveryStatus = "sent"
	DeliveryStatusDelivered        DeliveryStatus = "delivered"
	DeliveryStatusNotDelivered     DeliveryStatus = "not-delivered"
	DeliveryStatusRejected         DeliveryStatus = "rejected"
	DeliveryStatusExpired          DeliveryStatus = "expired"
	DeliveryStatusInvalidRecipient DeliveryStatus = "invalid-recipient"
	DeliveryStatusInvalidSender    DeliveryStatus = "invalid-sender"
	DeliveryStatusUnknown          DeliveryStatus = "unknown"
)

var deliveryStatuses = map[DeliveryStatus]struct{}{
	DeliveryStatusQueued:           {},
	DeliveryStatusPending:          {},
	DeliveryStatusSent:             {},
	DeliveryStatusDelivered:        {},
	DeliveryStatusNotDelivered:     {},
	DeliveryStatusRejected:         {},
	DeliveryStatusExpired:          {},
	DeliveryStatusInvalidRecipient: {},
	DeliveryStatusInvalidSender:    {},
	DeliveryStatusUnknown:          {},
}

// Valid reports whether s is one of the canonical statuses.
func (s DeliveryStatus) Valid() bool {
	_, ok := deliveryStatuses[s]
	return ok
}

// Final reports whether no further transition is expected for the recipient.
func (s DeliveryStatus) Final() bool {
	switch s {
	case DeliveryStatusDelivered, DeliveryStatusNotDelivered, DeliveryStatusRejected,
		DeliveryStatusExpired, DeliveryStatusInvalidRecipient, DeliveryStatusInvalidSender:
		return true
	}
	return false
}

// ErrorCode is the gateway-agnostic error classification.
type ErrorCode string

// Canonical error codes.
const (
	ErrorCodeOK          ErrorCode = "ok"
	ErrorCodeUnknown     ErrorCode = "unknown"
	ErrorCodeAuth        ErrorCode = "auth"
	ErrorCodeInvalidCall ErrorCode = "invalid_call"
	ErrorCodeNotFound    ErrorCode = "not_found"
	ErrorCodeMsgLimits   ErrorCode = "msg_limits"
	ErrorCodeMsgRouting  ErrorCode = "msg_routing"
	ErrorCodeMsgQueuing  ErrorCode = "msg_queuing"
	ErrorCodeMsgOther    ErrorCode = "msg_other"
	ErrorCodeSrcNumber   ErrorCode = "src_number"
	ErrorCodeDestNumber  ErrorCode = "dest_number"
	ErrorCodeCredit      ErrorCode = "credit"
	ErrorCodeOther       ErrorCode = "other"
)

var errorCodes = map[ErrorCode]struct{}{
	ErrorCodeOK:          {},
	ErrorCodeUnknown:     {},
	ErrorCodeAuth:        {},
	ErrorCodeInvalidCall: {},
	ErrorCodeNotFound:    {},
	ErrorCodeMsgLimits:   {},
	ErrorCodeMsgRouting:  {},
	ErrorCodeMsgQueuing:  {},
	ErrorCodeMsgOther:    {},
	ErrorCodeSrcNumber:   {},
	ErrorCodeDestNumber:  {},
	ErrorCodeCredit:      {},
	ErrorCodeOther:       {},
}

// Valid reports whether c is one of the canonical error codes.
func (c ErrorCode) Valid() bool {
	_, ok := errorCodes[c]
	return ok
}
