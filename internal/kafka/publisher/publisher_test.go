package publisher_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	kafkapublisher "github.com/ajayykmr/sms-dispatch-go/internal/kafka/publisher"
	"github.com/ajayykmr/sms-dispatch-go/internal/models"
)

type fakeSyncProducer struct {
	err     error
	topic   string
	key     []byte
	headers map[string][]byte
	payload []byte
}

func (f *fakeSyncProducer) PublishSync(topic string, key []byte, headers map[string][]byte, payload []byte) error {
	f.topic = topic
	f.key = append([]byte(nil), key...)
	f.headers = headers
	f.payload = append([]byte(nil), payload...)
	return f.err
}

func TestStatusPublisherPublishesEvent(t *testing.T) {
	prod := &fakeSyncProducer{}
	pub := kafkapublisher.NewStatusPublisher(prod, "status-topic", zerolog.Nop())
	if pub == nil {
		t.Fatalf("expected publisher instance")
	}

	event := models.StatusEvent{
		MessageID: "message-1",
		Channel:   models.ChannelSMS,
		EventType: models.StatusEventSent,
		Gateway:   "infobip",
		TraceID:   "trace-1",
		Result:    &models.SmsMessageResult{Status: true, CreditUsed: 2},
		Timestamp: time.Unix(123, 0).UTC(),
	}

	if err := pub.PublishStatus(context.Background(), event); err != nil {
		t.Fatalf("unexpected publish error: %v", err)
	}

	if prod.topic != "status-topic" {
		t.Fatalf("expected topic status-topic, got %s", prod.topic)
	}
	if string(prod.key) != "message-1" {
		t.Fatalf("expected key message-1, got %s", string(prod.key))
	}
	if ct := prod.headers[kafkapublisher.HeaderContentType]; string(ct) != "application/json" {
		t.Fatalf("expected content-type header, got %s", string(ct))
	}
	if string(prod.headers[kafkapublisher.HeaderTraceID]) != "trace-1" || string(prod.headers[kafkapublisher.HeaderGateway]) != "infobip" {
		t.Fatalf("unexpected headers %v", prod.headers)
	}

	var payload models.StatusEvent
	if err := json.Unmarshal(prod.payload, &payload); err != nil {
		t.Fatalf("failed to unmarshal payload: %v", err)
	}
	if payload.EventType != models.StatusEventSent || payload.Result == nil || payload.Result.CreditUsed != 2 {
		t.Fatalf("unexpected payload %+v", payload)
	}
}

func TestStatusPublisherPublishesReport(t *testing.T) {
	prod := &fakeSyncProducer{}
	pub := kafkapublisher.NewStatusPublisher(prod, "status-topic", zerolog.Nop())

	report := models.DeliveryReport{
		Gateway:   "routesms",
		Recipient: "2348030000001",
		MessageID: "provider-42",
		Status:    models.DeliveryStatusDelivered,
	}
	if err := pub.PublishReport(context.Background(), report); err != nil {
		t.Fatalf("unexpected publish error: %v", err)
	}

	if string(prod.key) != "provider-42" {
		t.Fatalf("expected provider message id as key, got %s", prod.key)
	}
	var payload models.StatusEvent
	if err := json.Unmarshal(prod.payload, &payload); err != nil {
		t.Fatalf("failed to unmarshal payload: %v", err)
	}
	if payload.EventType != models.StatusEventReport || payload.Report == nil || payload.Report.Status != models.DeliveryStatusDelivered {
		t.Fatalf("unexpected payload %+v", payload)
	}
}

func TestStatusPublisherPropagatesProducerError(t *testing.T) {
	expectedErr := errors.New("broker down")
	prod := &fakeSyncProducer{err: expectedErr}

	pub := kafkapublisher.NewStatusPublisher(prod, "status-topic", zerolog.Nop())
	err := pub.PublishStatus(context.Background(), models.StatusEvent{MessageID: "id"})
	if !errors.Is(err, expectedErr) {
		t.Fatalf("expected producer error, got %v", err)
	}
}

func TestStatusPublisherHandlesNilInstance(t *testing.T) {
	var pub *kafkapublisher.StatusPublisher
	if err := pub.PublishStatus(context.Background(), models.StatusEvent{}); !errors.Is(err, kafkapublisher.ErrProducerNotInitialised()) {
		t.Fatalf("expected not initialised error, got %v", err)
	}
	if kafkapublisher.NewStatusPublisher(nil, "topic", zerolog.Nop()) != nil {
		t.Fatalf("expected nil publisher without a producer")
	}
}

func TestDLQPublisherPublishesRecord(t *testing.T) {
	prod := &fakeSyncProducer{}
	pub := kafkapublisher.NewDLQPublisher(prod, "dlq-topic", zerolog.Nop())

	record := models.DLQRecord{
		MessageID:   "message-2",
		Channel:     models.ChannelSMS,
		FailureType: models.FailureTypePermanent,
		LastError:   "Invalid value in username or password field",
	}

	if err := pub.PublishDLQ(context.Background(), record); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if prod.topic != "dlq-topic" {
		t.Fatalf("expected dlq-topic, got %s", prod.topic)
	}
	if string(prod.headers[kafkapublisher.HeaderEventType]) != models.FailureTypePermanent {
		t.Fatalf("expected failure type header, got %v", prod.headers)
	}

	var decoded models.DLQRecord
	if err := json.Unmarshal(prod.payload, &decoded); err != nil {
		t.Fatalf("failed to decode payload: %v", err)
	}
	if decoded.FailureType != models.FailureTypePermanent || decoded.MessageID != "message-2" {
		t.Fatalf("unexpected DLQ payload %+v", decoded)
	}
}

func TestDLQPublisherPropagatesProducerError(t *testing.T) {
	expectedErr := errors.New("inject")
	prod := &fakeSyncProducer{err: expectedErr}
	pub := kafkapublisher.NewDLQPublisher(prod, "dlq-topic", zerolog.Nop())

	if err := pub.PublishDLQ(context.Background(), models.DLQRecord{MessageID: "id"}); !errors.Is(err, expectedErr) {
		t.Fatalf("expected producer error, got %v", err)
	}
}
