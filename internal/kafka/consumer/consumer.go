// Package consumer reads SMS requests from Kafka through a sarama consumer
// group with explicit offset commits.
package consumer

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"
	"time"

	"github.com/IBM/sarama"
	"github.com/rs/zerolog"
)

const (
	defaultClientID   = "sms-dispatch-worker"
	traceHeader       = "trace-id"
	minRejoinBackoff  = 500 * time.Millisecond
	maxRejoinBackoff  = 10 * time.Second
	sessionTimeout    = 30 * time.Second
	heartbeatInterval = 3 * time.Second
)

// Config identifies the group and the topics it subscribes to.
type Config struct {
	Brokers []string
	GroupID string
	Topics  []string
	// CommitOnSuccessOnly disables auto-commit; offsets move only when
	// Commit is called for a record.
	CommitOnSuccessOnly bool
}

func (c Config) validate() error {
	switch {
	case len(c.Brokers) == 0:
		return errors.New("kafka consumer: at least one broker is required")
	case c.GroupID == "":
		return errors.New("kafka consumer: group id is required")
	case len(c.Topics) == 0:
		return errors.New("kafka consumer: at least one topic is required")
	}
	return nil
}

// Handler is invoked for every record. Its error is logged; the offset is
// only advanced through Commit.
type Handler func(ctx context.Context, record *Record) error

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

// WithOldestOffset makes a new group start from the oldest retained record.
func WithOldestOffset() Option {
	return func(cfg *sarama.Config) {
		cfg.Consumer.Offsets.Initial = sarama.OffsetOldest
	}
}

// WithVersion pins the Kafka protocol version.
func WithVersion(v sarama.KafkaVersion) Option {
	return func(cfg *sarama.Config) {
		cfg.Version = v
	}
}

// Record is one Kafka message handed to the Handler.
type Record struct {
	Topic     string
	Partition int32
	Offset    int64
	Key       []byte
	Value     []byte
	Timestamp time.Time
	Headers   map[string][]byte

	session   sarama.ConsumerGroupSession
	message   *sarama.ConsumerMessage
	committed atomic.Bool
}

// TraceID returns the trace-id header, if any.
func (r *Record) TraceID() string {
	return string(r.Headers[traceHeader])
}

// Consumer runs a consumer group over the configured topics.
type Consumer struct {
	cfg    Config
	group  sarama.ConsumerGroup
	logger zerolog.Logger
	ready  atomic.Bool

	running  sync.WaitGroup
	errsDone chan struct{}
}

// New joins no group yet; it only validates cfg and creates the sarama client.
func New(cfg Config, logger zerolog.Logger, opts ...Option) (*Consumer, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if reflect.ValueOf(logger).IsZero() {
		logger = zerolog.Nop()
	}

	sc := saramaConfig(cfg.CommitOnSuccessOnly)
	for _, opt := range opts {
		if opt != nil {
			opt(sc)
		}
	}

	group, err := sarama.NewConsumerGroup(cfg.Brokers, cfg.GroupID, sc)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: create consumer group: %w", err)
	}

	c := &Consumer{
		cfg:      cfg,
		group:    group,
		logger:   logger.With().Str("group_id", cfg.GroupID).Logger(),
		errsDone: make(chan struct{}),
	}
	go c.drainErrors()
	return c, nil
}

// Run consumes until ctx is cancelled or the group is closed, rejoining the
// group with a capped backoff after session errors.
func (c *Consumer) Run(ctx context.Context, handler Handler) error {
	if handler == nil {
		return errors.New("kafka consumer: handler is required")
	}
	c.running.Add(1)
	defer c.running.Done()

	gh := &groupHandler{consumer: c, handler: handler}
	backoff := minRejoinBackoff
	for {
		err := c.group.Consume(ctx, c.cfg.Topics, gh)
		switch {
		case errors.Is(err, sarama.ErrClosedConsumerGroup):
			return nil
		case ctx.Err() != nil:
			return ctx.Err()
		case err == nil:
			// Rebalance; the session ended cleanly.
			backoff = minRejoinBackoff
			continue
		}

		c.logger.Warn().Err(err).Dur("backoff", backoff).Msg("consumer session failed, rejoining")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		if backoff *= 2; backoff > maxRejoinBackoff {
			backoff = maxRejoinBackoff
		}
	}
}

// Commit marks record as processed. Commits are idempotent per record; with
// CommitOnSuccessOnly the offset is flushed synchronously.
func (c *Consumer) Commit(_ context.Context, record *Record) error {
	if record == nil {
		return errors.New("kafka consumer: record is required")
	}
	if record.session == nil || record.message == nil {
		return errors.New("kafka consumer: record was not delivered by a session")
	}
	if !record.committed.CompareAndSwap(false, true) {
		return nil
	}
	record.session.MarkMessage(record.message, "")
	if c.cfg.CommitOnSuccessOnly {
		record.session.Commit()
	}
	return nil
}

// Ready reports whether a group session is active.
func (c *Consumer) Ready() bool { return c.ready.Load() }

// Close leaves the group and waits for Run to return.
func (c *Consumer) Close() error {
	err := c.group.Close()
	c.running.Wait()
	<-c.errsDone
	return err
}

func (c *Consumer) drainErrors() {
	defer close(c.errsDone)
	for err := range c.group.Errors() {
		c.logger.Error().Err(err).Msg("kafka consumer error")
	}
}

type groupHandler struct {
	consumer *Consumer
	handler  Handler
}

func (h *groupHandler) Setup(session sarama.ConsumerGroupSession) error {
	h.consumer.ready.Store(true)
	h.consumer.logger.Info().Interface("claims", session.Claims()).Msg("consumer session started")
	return nil
}

func (h *groupHandler) Cleanup(sarama.ConsumerGroupSession) error {
	h.consumer.ready.Store(false)
	h.consumer.logger.Info().Msg("consumer session ended")
	return nil
}

func (h *groupHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	ctx := session.Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-claim.Messages():
			if !ok {
				return nil
			}
			record := newRecord(session, msg)
			if err := h.invoke(ctx, record); err != nil {
				h.consumer.logger.Error().
					Err(err).
					Str("topic", msg.Topic).
					Int32("partition", msg.Partition).
					Int64("offset", msg.Offset).
					Msg("record handler failed")
			}
		}
	}
}

// invoke runs the handler, converting a panic into an error.
func (h *groupHandler) invoke(ctx context.Context, record *Record) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("kafka consumer: handler panic: %v", r)
		}
	}()
	return h.handler(ctx, record)
}

func newRecord(session sarama.ConsumerGroupSession, msg *sarama.ConsumerMessage) *Record {
	var headers map[string][]byte
	if len(msg.Headers) > 0 {
		headers = make(map[string][]byte, len(msg.Headers))
		for _, h := range msg.Headers {
			if h != nil && len(h.Key) > 0 {
				headers[string(h.Key)] = append([]byte(nil), h.Value...)
			}
		}
	}
	return &Record{
		Topic:     msg.Topic,
		Partition: msg.Partition,
		Offset:    msg.Offset,
		Key:       append([]byte(nil), msg.Key...),
		Value:     append([]byte(nil), msg.Value...),
		Timestamp: msg.Timestamp,
		Headers:   headers,
		session:   session,
		message:   msg,
	}
}

func saramaConfig(commitOnSuccessOnly bool) *sarama.Config {
	cfg := sarama.NewConfig()
	cfg.Version = sarama.V2_5_0_0
	cfg.ClientID = defaultClientID
	cfg.Consumer.Group.Session.Timeout = sessionTimeout
	cfg.Consumer.Group.Heartbeat.Interval = heartbeatInterval
	cfg.Consumer.Group.Rebalance.GroupStrategies = []sarama.BalanceStrategy{sarama.NewBalanceStrategyRange()}
	cfg.Consumer.Offsets.Initial = sarama.OffsetNewest
	cfg.Consumer.Offsets.AutoCommit.Enable = !commitOnSuccessOnly
	cfg.Consumer.Return.Errors = true
	return cfg
}
