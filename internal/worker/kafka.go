package worker

import (
	"context"

	"github.com/ajayykmr/sms-dispatch-go/internal/kafka/consumer"
)

// RecordCommitter advances the consumer offset of a Kafka record.
type RecordCommitter interface {
	Commit(ctx context.Context, record *consumer.Record) error
}

// KafkaHandler feeds consumed records into engine. The engine's commit of a
// record is forwarded to committer; a nil committer makes commits no-ops.
func KafkaHandler(engine *Engine, committer RecordCommitter) consumer.Handler {
	return func(ctx context.Context, rec *consumer.Record) error {
		if engine == nil || rec == nil {
			return nil
		}
		var commit func(context.Context) error
		if committer != nil {
			commit = func(c context.Context) error { return committer.Commit(c, rec) }
		}
		engine.HandleRecord(ctx, FromKafka(rec, commit))
		return nil
	}
}

// FromKafka copies rec into a worker Record bound to commit.
func FromKafka(rec *consumer.Record, commit func(context.Context) error) *Record {
	if rec == nil {
		return nil
	}
	r := &Record{
		Topic:     rec.Topic,
		Partition: rec.Partition,
		Offset:    rec.Offset,
		Key:       cloneBytes(rec.Key),
		Value:     cloneBytes(rec.Value),
		Timestamp: rec.Timestamp,
		Headers:   cloneHeaders(rec.Headers),
	}
	r.setCommitFn(commit)
	return r
}
