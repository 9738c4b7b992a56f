package producer

import (
	"errors"
	"testing"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/rs/zerolog"
)

func TestPublishSyncSendsHeadersAndKey(t *testing.T) {
	sp := mocks.NewSyncProducer(t, nil)
	var got *sarama.ProducerMessage
	sp.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
		got = msg
		return nil
	})

	p := NewFromSyncProducer(sp, zerolog.Nop())
	headers := map[string][]byte{"trace-id": []byte("t-1"), "content-type": []byte("application/json")}
	if err := p.PublishSync("sms.status", []byte("msg-1"), headers, []byte(`{"ok":true}`)); err != nil {
		t.Fatalf("publish: %v", err)
	}

	if got.Topic != "sms.status" {
		t.Fatalf("unexpected topic %q", got.Topic)
	}
	key, _ := got.Key.Encode()
	if string(key) != "msg-1" {
		t.Fatalf("unexpected key %q", key)
	}
	if len(got.Headers) != 2 || string(got.Headers[0].Key) != "content-type" || string(got.Headers[1].Value) != "t-1" {
		t.Fatalf("unexpected headers %+v", got.Headers)
	}

	if err := p.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := p.PublishSync("sms.status", nil, nil, nil); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed after close, got %v", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
}

func TestPublishSyncWrapsBrokerError(t *testing.T) {
	sp := mocks.NewSyncProducer(t, nil)
	sp.ExpectSendMessageAndFail(sarama.ErrNotLeaderForPartition)
	p := NewFromSyncProducer(sp, zerolog.Nop())
	defer p.Close()

	err := p.PublishSync("sms.dlq", nil, nil, []byte("x"))
	if !errors.Is(err, sarama.ErrNotLeaderForPartition) {
		t.Fatalf("expected wrapped broker error, got %v", err)
	}
	if err := p.PublishSync("", nil, nil, nil); err == nil {
		t.Fatalf("expected error for empty topic")
	}
}

func TestRecordHeadersCopiesValues(t *testing.T) {
	value := []byte("application/json")
	headers := recordHeaders(map[string][]byte{"content-type": value})
	value[0] = 'X'
	if len(headers) != 1 || string(headers[0].Value) != "application/json" {
		t.Fatalf("header value shares memory with input: %+v", headers)
	}
	if recordHeaders(nil) != nil {
		t.Fatalf("expected nil headers for empty input")
	}
}

func TestSaramaConfig(t *testing.T) {
	cfg := saramaConfig()
	if cfg.Producer.RequiredAcks != sarama.WaitForAll || !cfg.Producer.Idempotent {
		t.Fatalf("expected idempotent producer with WaitForAll acks")
	}
	WithClientID("other")(cfg)
	if cfg.ClientID != "other" {
		t.Fatalf("client id option not applied")
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("config invalid: %v", err)
	}
}

func TestNewRequiresBrokers(t *testing.T) {
	if _, err := New(nil, zerolog.Nop()); err == nil {
		t.Fatalf("expected error without brokers")
	}
}
