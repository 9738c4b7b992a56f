package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"

	common "github.com/ajayykmr/sms-dispatch-go/internal/adapters/common"
	"github.com/ajayykmr/sms-dispatch-go/internal/models"
)

// Config contains the runtime settings of the worker engine.
type Config struct {
	Channel             string
	Gateway             string
	MsgMaxBytes         int
	WorkerConcurrency   int
	CommitOnSuccessOnly bool
}

// Record represents a Kafka message delivered to the worker. It keeps the
// engine decoupled from the concrete consumer implementation.
type Record struct {
	Topic     string
	Partition int32
	Offset    int64
	Key       []byte
	Value     []byte
	Timestamp time.Time
	Headers   map[string][]byte

	commitFn func(context.Context) error
}

// Clone returns a deep copy of the record so it can be safely shared with
// asynchronous goroutines.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}

	clone := *r
	clone.Key = cloneBytes(r.Key)
	clone.Value = cloneBytes(r.Value)
	clone.Headers = cloneHeaders(r.Headers)
	return &clone
}

// Commit invokes the commit function bound by the consumer bridge. Records
// without one commit as a no-op.
func (r *Record) Commit(ctx context.Context) error {
	if r == nil || r.commitFn == nil {
		return nil
	}
	return r.commitFn(ctx)
}

func (r *Record) setCommitFn(fn func(context.Context) error) {
	r.commitFn = fn
}

// ValidatedMessage is the request after validation.
type ValidatedMessage = common.ValidatedMessage

// Adapter hands a validated message to the gateway.
type Adapter = common.Adapter

// Validator parses and validates inbound Kafka records. On a validation error
// the returned message may be nil or partially populated.
type Validator interface {
	ParseAndValidate(ctx context.Context, channel string, payload []byte) (*ValidatedMessage, error)
}

// StatusPublisher publishes lifecycle updates for a message.
type StatusPublisher interface {
	PublishStatus(ctx context.Context, event models.StatusEvent) error
}

// DLQPublisher writes failed messages to the DLQ topic.
type DLQPublisher interface {
	PublishDLQ(ctx context.Context, record models.DLQRecord) error
}

// Committer is the abstraction for committing Kafka offsets after processing.
type Committer interface {
	Commit(ctx context.Context, record *Record) error
}

// CommitFunc adapts a function to the Committer interface.
type CommitFunc func(ctx context.Context, record *Record) error

// Commit implements Committer.
func (f CommitFunc) Commit(ctx context.Context, record *Record) error {
	return f(ctx, record)
}

// Dependencies collects the runtime collaborators required by the engine.
type Dependencies struct {
	Adapter         Adapter
	Validator       Validator
	StatusPublisher StatusPublisher
	DLQPublisher    DLQPublisher
	Committer       Committer
	Logger          zerolog.Logger
	Now             func() time.Time
}

// Engine validates inbound records, hands each one to the gateway exactly
// once, publishes the outcome and commits the offset. Records are processed
// concurrently up to WorkerConcurrency.
type Engine struct {
	cfg             Config
	adapter         Adapter
	validator       Validator
	statusPublisher StatusPublisher
	dlqPublisher    DLQPublisher
	committer       Committer
	logger          zerolog.Logger

	semaphore *semaphore.Weighted
	inflight  sync.WaitGroup

	now func() time.Time
}

// NewEngine constructs a worker engine using the supplied configuration and
// collaborators.
func NewEngine(cfg Config, deps Dependencies) (*Engine, error) {
	if cfg.Channel == "" {
		return nil, errors.New("worker: channel must be provided")
	}
	if cfg.WorkerConcurrency < 1 {
		return nil, errors.New("worker: worker concurrency must be >= 1")
	}
	if cfg.MsgMaxBytes < 0 {
		return nil, errors.New("worker: msg max bytes cannot be negative")
	}
	if deps.Adapter == nil {
		return nil, errors.New("worker: adapter dependency is required")
	}
	if deps.Validator == nil {
		return nil, errors.New("worker: validator dependency is required")
	}
	if deps.StatusPublisher == nil {
		return nil, errors.New("worker: status publisher dependency is required")
	}
	if deps.DLQPublisher == nil {
		return nil, errors.New("worker: DLQ publisher dependency is required")
	}
	if deps.Committer == nil {
		return nil, errors.New("worker: committer dependency is required")
	}

	logger := deps.Logger
	if reflect.ValueOf(logger).IsZero() {
		logger = zerolog.Nop()
	}
	logger = logger.With().Str("component", "worker_engine").Logger()

	nowFunc := deps.Now
	if nowFunc == nil {
		nowFunc = time.Now
	}

	return &Engine{
		cfg:             cfg,
		adapter:         deps.Adapter,
		validator:       deps.Validator,
		statusPublisher: deps.StatusPublisher,
		dlqPublisher:    deps.DLQPublisher,
		committer:       deps.Committer,
		logger:          logger,
		semaphore:       semaphore.NewWeighted(int64(cfg.WorkerConcurrency)),
		now:             nowFunc,
	}, nil
}

// HandleRecord checks the record size, validates the payload and schedules
// asynchronous processing. Records rejected before processing go straight to
// the DLQ.
func (e *Engine) HandleRecord(ctx context.Context, record *Record) {
	if record == nil {
		return
	}

	if e.cfg.MsgMaxBytes > 0 && len(record.Value) > e.cfg.MsgMaxBytes {
		err := fmt.Errorf("payload exceeds maximum size: got %d bytes, limit %d bytes", len(record.Value), e.cfg.MsgMaxBytes)
		e.rejectInvalid(ctx, record, e.partialMessageFromRecord(record), err)
		return
	}

	validated, err := e.validator.ParseAndValidate(ctx, e.cfg.Channel, record.Value)
	if err != nil {
		e.rejectInvalid(ctx, record, e.fillFromRecord(validated, record), err)
		return
	}
	validated = e.fillFromRecord(validated, record)

	if err := e.semaphore.Acquire(ctx, 1); err != nil {
		e.logger.Error().
			Str("message_id", validated.MessageID).
			Err(err).
			Msg("worker: failed to acquire concurrency semaphore")
		return
	}

	recCopy := record.Clone()
	e.inflight.Add(1)
	go e.processRecord(ctx, recCopy, validated)
}

// Wait blocks until every scheduled record has been processed.
func (e *Engine) Wait() {
	e.inflight.Wait()
}

func (e *Engine) processRecord(ctx context.Context, record *Record, msg *ValidatedMessage) {
	defer e.inflight.Done()
	defer e.semaphore.Release(1)

	if ctx.Err() != nil {
		e.logger.Warn().
			Str("message_id", msg.MessageID).
			Msg("worker: context cancelled before processing began")
		return
	}

	e.publishStatus(ctx, e.statusEvent(msg, models.StatusEventAccepted))

	start := e.now()
	resp, err := e.adapter.Send(ctx, msg)
	duration := e.now().Sub(start)

	logEvent := e.logger.With().
		Str("message_id", msg.MessageID).
		Dur("duration", duration).
		Logger()

	if err == nil {
		logEvent.Info().Msg("worker: message accepted by gateway")
		event := e.statusEvent(msg, models.StatusEventSent)
		e.applyResponse(&event, resp)
		e.publishStatus(ctx, event)
		e.commitRecord(ctx, record)
		return
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		if ctx.Err() != nil {
			logEvent.Warn().Err(err).Msg("worker: context cancelled during send; deferring commit for reprocessing")
			return
		}
	}

	failureType := common.FailureType(err)
	logEvent.Warn().Err(err).Str("failure_type", failureType).Msg("worker: gateway did not accept message")

	eventType := models.StatusEventFailed
	if failureType == models.FailureTypePermanent && resp != nil {
		eventType = models.StatusEventRejected
	}
	event := e.statusEvent(msg, eventType)
	e.applyResponse(&event, resp)
	event.Error = err.Error()
	e.publishStatus(ctx, event)

	if e.publishDLQ(ctx, msg, failureType, err) {
		e.commitRecord(ctx, record)
	}
}

func (e *Engine) rejectInvalid(ctx context.Context, record *Record, msg *ValidatedMessage, err error) {
	e.logger.Warn().
		Str("message_id", msg.MessageID).
		Err(err).
		Msg("worker: record rejected before processing")

	event := e.statusEvent(msg, models.StatusEventFailed)
	event.Error = err.Error()
	e.publishStatus(ctx, event)

	if e.publishDLQ(ctx, msg, models.FailureTypeValidation, err) {
		e.commitRecord(ctx, record)
	}
}

func (e *Engine) statusEvent(msg *ValidatedMessage, eventType string) models.StatusEvent {
	return models.StatusEvent{
		MessageID: msg.MessageID,
		Channel:   msg.Channel,
		EventType: eventType,
		Gateway:   e.cfg.Gateway,
		TraceID:   msg.TraceID,
		Timestamp: e.now().UTC(),
	}
}

func (e *Engine) applyResponse(event *models.StatusEvent, resp *common.ProviderResponse) {
	if resp == nil {
		return
	}
	if resp.Gateway != "" {
		event.Gateway = resp.Gateway
	}
	event.Result = resp.Result
}

func (e *Engine) publishStatus(ctx context.Context, event models.StatusEvent) {
	if err := e.statusPublisher.PublishStatus(ctx, event); err != nil {
		e.logger.Error().
			Str("message_id", event.MessageID).
			Str("event", event.EventType).
			Err(err).
			Msg("worker: failed to publish status event")
	}
}

// publishDLQ reports whether the offset may be committed afterwards.
func (e *Engine) publishDLQ(ctx context.Context, msg *ValidatedMessage, failureType string, cause error) bool {
	record := models.DLQRecord{
		MessageID:       msg.MessageID,
		Channel:         msg.Channel,
		Gateway:         e.cfg.Gateway,
		OriginalMessage: originalMessage(msg),
		FailureType:     failureType,
		LastError:       cause.Error(),
		FailedAt:        e.now().UTC(),
		TraceID:         msg.TraceID,
		Meta:            msg.Metadata,
	}
	if err := e.dlqPublisher.PublishDLQ(ctx, record); err != nil {
		e.logger.Error().
			Str("message_id", msg.MessageID).
			Err(err).
			Msg("worker: failed to publish DLQ record")
		return !e.cfg.CommitOnSuccessOnly
	}
	e.publishStatus(ctx, e.statusEvent(msg, models.StatusEventDLQ))
	return true
}

func (e *Engine) commitRecord(ctx context.Context, record *Record) {
	if err := e.committer.Commit(ctx, record); err != nil {
		e.logger.Error().
			Str("topic", record.Topic).
			Int32("partition", record.Partition).
			Int64("offset", record.Offset).
			Err(err).
			Msg("worker: failed to commit record offset")
	}
}

func (e *Engine) partialMessageFromRecord(record *Record) *ValidatedMessage {
	return &ValidatedMessage{
		Channel:      e.cfg.Channel,
		MessageID:    string(record.Key),
		RawPayload:   cloneBytes(record.Value),
		Key:          cloneBytes(record.Key),
		KafkaHeaders: cloneHeaders(record.Headers),
	}
}

func (e *Engine) fillFromRecord(msg *ValidatedMessage, record *Record) *ValidatedMessage {
	if msg == nil {
		return e.partialMessageFromRecord(record)
	}
	if msg.Channel == "" {
		msg.Channel = e.cfg.Channel
	}
	if msg.MessageID == "" {
		msg.MessageID = string(record.Key)
	}
	if len(msg.RawPayload) == 0 {
		msg.RawPayload = cloneBytes(record.Value)
	}
	if len(msg.Key) == 0 {
		msg.Key = cloneBytes(record.Key)
	}
	if len(msg.KafkaHeaders) == 0 {
		msg.KafkaHeaders = cloneHeaders(record.Headers)
	}
	return msg
}

// originalMessage prefers the validated request and falls back to the raw
// payload, embedded as JSON when it parses and as a string otherwise.
func originalMessage(msg *ValidatedMessage) any {
	if msg.Request != nil {
		return msg.Request
	}
	if json.Valid(msg.RawPayload) {
		return json.RawMessage(msg.RawPayload)
	}
	return string(msg.RawPayload)
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	clone := make([]byte, len(b))
	copy(clone, b)
	return clone
}

func cloneHeaders(headers map[string][]byte) map[string][]byte {
	if len(headers) == 0 {
		return nil
	}
	clone := make(map[string][]byte, len(headers))
	for k, v := range headers {
		clone[k] = cloneBytes(v)
	}
	return clone
}
