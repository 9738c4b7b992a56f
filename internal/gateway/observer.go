package gateway

import (
	"time"

	"github.com/ajayykmr/sms-dispatch-go/internal/models"
)

// Outcome labels that are not derived from an error kind.
const (
	OutcomeOK       = "ok"
	OutcomeRejected = "rejected"
)

// Observer receives instrumentation callbacks from a Gateway.
type Observer interface {
	ObserveExchange(provider string, cmd Command, outcome string, elapsed time.Duration)
	ObserveBatch(provider string, recipients int)
	ObserveReport(provider string, status models.DeliveryStatus)
}

type nopObserver struct{}

func (nopObserver) ObserveExchange(string, Command, string, time.Duration) {}
func (nopObserver) ObserveBatch(string, int)                               {}
func (nopObserver) ObserveReport(string, models.DeliveryStatus)            {}
