package common

import "context"

// Adapter hands a validated message to an SMS gateway and returns the
// normalized response. A non-nil error is wrapped with ErrTransient or
// ErrPermanent.
type Adapter interface {
	Send(ctx context.Context, msg *ValidatedMessage) (*ProviderResponse, error)
}
