package common

import (
	"context"
	"errors"
	"fmt"

	"github.com/ajayykmr/sms-dispatch-go/internal/models"
)

// ErrTransient and ErrPermanent classify a failed hand-off to the gateway.
// Neither is retried by the worker; the classification only types the DLQ
// record.
var (
	ErrTransient = errors.New("transient error")
	ErrPermanent = errors.New("permanent error")
)

// WrapTransient annotates an error so callers can detect transient failures.
func WrapTransient(err error) error {
	if err == nil {
		return ErrTransient
	}
	return fmt.Errorf("%w: %v", ErrTransient, err)
}

// WrapPermanent annotates an error as permanent.
func WrapPermanent(err error) error {
	if err == nil {
		return ErrPermanent
	}
	return fmt.Errorf("%w: %v", ErrPermanent, err)
}

// FailureType maps an adapter error to the DLQ failure type.
func FailureType(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrPermanent):
		return models.FailureTypePermanent
	case errors.Is(err, ErrTransient), errors.Is(err, context.DeadlineExceeded):
		return models.FailureTypeTransient
	default:
		return models.FailureTypeUnknown
	}
}
