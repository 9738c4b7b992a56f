// Package producer publishes status events and DLQ records to Kafka with
// synchronous acknowledgements.
package producer

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"sync/atomic"
	"time"

	"github.com/IBM/sarama"
	"github.com/rs/zerolog"
)

const defaultClientID = "sms-dispatch-producer"

// ErrClosed is returned by PublishSync after Close.
var ErrClosed = errors.New("kafka producer: closed")

// Option customises the sarama configuration.
type Option func(*sarama.Config)

// WithClientID overrides the client id reported to the brokers.
func WithClientID(id string) Option {
	return func(cfg *sarama.Config) {
		if id != "" {
			cfg.ClientID = id
		}
	}
}

// WithMetadataRefresh sets how often cluster metadata is refreshed.
func WithMetadataRefresh(interval time.Duration) Option {
	return func(cfg *sarama.Config) {
		if interval > 0 {
			cfg.Metadata.RefreshFrequency = interval
		}
	}
}

// Producer is an idempotent sarama sync producer.
type Producer struct {
	client sarama.Client
	sync   sarama.SyncProducer
	logger zerolog.Logger
	closed atomic.Bool
}

// New connects to brokers and returns a ready producer.
func New(brokers []string, logger zerolog.Logger, opts ...Option) (*Producer, error) {
	if len(brokers) == 0 {
		return nil, errors.New("kafka producer: at least one broker is required")
	}

	cfg := saramaConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}

	client, err := sarama.NewClient(brokers, cfg)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: create client: %w", err)
	}
	sp, err := sarama.NewSyncProducerFromClient(client)
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("kafka producer: create sync producer: %w", err)
	}
	p := NewFromSyncProducer(sp, logger)
	p.client = client
	return p, nil
}

// NewFromSyncProducer wraps an existing sync producer, e.g. sarama/mocks.
func NewFromSyncProducer(sp sarama.SyncProducer, logger zerolog.Logger) *Producer {
	if reflect.ValueOf(logger).IsZero() {
		logger = zerolog.Nop()
	}
	return &Producer{sync: sp, logger: logger}
}

// PublishSync sends payload to topic and waits for the broker acknowledgement.
func (p *Producer) PublishSync(topic string, key []byte, headers map[string][]byte, payload []byte) error {
	if p.closed.Load() {
		return ErrClosed
	}
	if topic == "" {
		return errors.New("kafka producer: topic is required")
	}

	msg := &sarama.ProducerMessage{
		Topic:   topic,
		Value:   sarama.ByteEncoder(payload),
		Headers: recordHeaders(headers),
	}
	if len(key) > 0 {
		msg.Key = sarama.ByteEncoder(key)
	}

	partition, offset, err := p.sync.SendMessage(msg)
	if err != nil {
		return fmt.Errorf("kafka producer: send to %s: %w", topic, err)
	}
	p.logger.Debug().
		Str("topic", topic).
		Int32("partition", partition).
		Int64("offset", offset).
		Msg("record acknowledged")
	return nil
}

// Healthy refreshes cluster metadata and reports whether brokers answer.
func (p *Producer) Healthy() error {
	if p.closed.Load() {
		return ErrClosed
	}
	if p.client == nil {
		return nil
	}
	return p.client.RefreshMetadata()
}

// Close flushes the producer and releases the client. It is safe to call
// more than once.
func (p *Producer) Close() error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}
	err := p.sync.Close()
	if p.client != nil && !p.client.Closed() {
		err = errors.Join(err, p.client.Close())
	}
	return err
}

// recordHeaders converts headers in key order so records are reproducible.
func recordHeaders(headers map[string][]byte) []sarama.RecordHeader {
	if len(headers) == 0 {
		return nil
	}
	keys := make([]string, 0, len(headers))
	for k := range headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]sarama.RecordHeader, 0, len(keys))
	for _, k := range keys {
		out = append(out, sarama.RecordHeader{Key: []byte(k), Value: append([]byte(nil), headers[k]...)})
	}
	return out
}

func saramaConfig() *sarama.Config {
	cfg := sarama.NewConfig()
	cfg.Version = sarama.V2_5_0_0
	cfg.ClientID = defaultClientID
	cfg.Metadata.RefreshFrequency = 30 * time.Second
	cfg.Metadata.Full = false
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Idempotent = true
	cfg.Producer.Retry.Max = 6
	cfg.Producer.Retry.Backoff = 250 * time.Millisecond
	cfg.Producer.Return.Successes = true
	cfg.Producer.Return.Errors = true
	cfg.Net.MaxOpenRequests = 1
	return cfg
}
