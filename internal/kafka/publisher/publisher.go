package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/rs/zerolog"

	"github.com/ajayykmr/sms-dispatch-go/internal/models"
)

var errProducerNotInitialised = errors.New("kafka publisher: producer not initialised")

// Header keys attached to every published record.
const (
	HeaderContentType = "content-type"
	HeaderEventType   = "event-type"
	HeaderTraceID     = "trace-id"
	HeaderGateway     = "gateway"
)

// SyncProducer captures the subset of producer behaviour required by the Kafka publishers.
type SyncProducer interface {
	PublishSync(topic string, key []byte, headers map[string][]byte, payload []byte) error
}

// ErrProducerNotInitialised exposes the sentinel error for callers and tests.
func ErrProducerNotInitialised() error {
	return errProducerNotInitialised
}

// StatusPublisher emits status events to a Kafka topic using the shared producer.
type StatusPublisher struct {
	producer SyncProducer
	topic    string
	logger   zerolog.Logger
	now      func() time.Time
}

// NewStatusPublisher constructs a StatusPublisher instance.
func NewStatusPublisher(prod SyncProducer, topic string, logger zerolog.Logger) *StatusPublisher {
	if prod == nil {
		return nil
	}
	if reflect.ValueOf(logger).IsZero() {
		logger = zerolog.Nop()
	}
	return &StatusPublisher{
		producer: prod,
		topic:    topic,
		logger:   logger,
		now:      time.Now,
	}
}

// PublishStatus writes the supplied status event to Kafka synchronously.
func (p *StatusPublisher) PublishStatus(_ context.Context, event models.StatusEvent) error {
	if p == nil || p.producer == nil {
		return errProducerNotInitialised
	}

	headers := recordHeaders(event.EventType, event.TraceID, event.Gateway)
	if err := publishJSON(p.producer, p.topic, event.MessageID, headers, event); err != nil {
		return fmt.Errorf("kafka publisher: publish status event: %w", err)
	}
	p.logger.Debug().
		Str("message_id", event.MessageID).
		Str("event", event.EventType).
		Msg("status event published")
	return nil
}

// PublishReport wraps a delivery report in a status event keyed by the
// provider message id.
func (p *StatusPublisher) PublishReport(ctx context.Context, report models.DeliveryReport) error {
	if p == nil {
		return errProducerNotInitialised
	}
	event := models.StatusEvent{
		MessageID: report.MessageID,
		Channel:   models.ChannelSMS,
		EventType: models.StatusEventReport,
		Gateway:   report.Gateway,
		Report:    &report,
		Timestamp: p.now().UTC(),
	}
	return p.PublishStatus(ctx, event)
}

// DLQPublisher writes DLQ records to the configured Kafka topic.
type DLQPublisher struct {
	producer SyncProducer
	topic    string
	logger   zerolog.Logger
}

// NewDLQPublisher constructs a DLQPublisher instance.
func NewDLQPublisher(prod SyncProducer, topic string, logger zerolog.Logger) *DLQPublisher {
	if prod == nil {
		return nil
	}
	if reflect.ValueOf(logger).IsZero() {
		logger = zerolog.Nop()
	}
	return &DLQPublisher{
		producer: prod,
		topic:    topic,
		logger:   logger,
	}
}

// PublishDLQ writes the supplied DLQ record to Kafka synchronously.
func (p *DLQPublisher) PublishDLQ(_ context.Context, record models.DLQRecord) error {
	if p == nil || p.producer == nil {
		return errProducerNotInitialised
	}

	headers := recordHeaders(record.FailureType, record.TraceID, record.Gateway)
	if err := publishJSON(p.producer, p.topic, record.MessageID, headers, record); err != nil {
		return fmt.Errorf("kafka publisher: publish dlq record: %w", err)
	}
	p.logger.Info().
		Str("message_id", record.MessageID).
		Str("failure_type", record.FailureType).
		Msg("dlq record published")
	return nil
}

func publishJSON(prod SyncProducer, topic, key string, headers map[string][]byte, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	var keyBytes []byte
	if key != "" {
		keyBytes = []byte(key)
	}
	return prod.PublishSync(topic, keyBytes, headers, payload)
}

func recordHeaders(eventType, traceID, gateway string) map[string][]byte {
	headers := map[string][]byte{
		HeaderContentType: []byte("application/json"),
	}
	if eventType != "" {
		headers[HeaderEventType] = []byte(eventType)
	}
	if traceID != "" {
		headers[HeaderTraceID] = []byte(traceID)
	}
	if gateway != "" {
		headers[HeaderGateway] = []byte(gateway)
	}
	return headers
}
