package kafka

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/twmb/franz-go/pkg/kgo"
)

func newTestConsumer(h Handler) *Consumer {
	return &Consumer{handler: h, logger: slog.Default()}
}

func record(topic string, partition int32, offset int64, value string) *kgo.Record {
	return &kgo.Record{Topic: topic, Partition: partition, Offset: offset, Value: []byte(value)}
}

func offsets(recs []*kgo.Record) []int64 {
	out := make([]int64, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.Offset)
	}
	return out
}

func TestHandleBatchCommitsAllOnSuccess(t *testing.T) {
	c := newTestConsumer(func(context.Context, *Message) error { return nil })

	handled := c.handleBatch(context.Background(), []*kgo.Record{
		record("t", 0, 5, "a"),
		record("t", 0, 6, "b"),
	})

	assert.Equal(t, []int64{5, 6}, offsets(handled))
}

func TestHandleBatchNeverCommitsPastFailure(t *testing.T) {
	c := newTestConsumer(func(_ context.Context, msg *Message) error {
		if string(msg.Value) == "bad" {
			return errors.New("decode failed")
		}
		return nil
	})

	// Offset 6 handled fine, but committing it would advance the
	// partition past the failed offset 5 and lose it.
	handled := c.handleBatch(context.Background(), []*kgo.Record{
		record("t", 0, 5, "bad"),
		record("t", 0, 6, "ok"),
	})

	assert.Empty(t, handled)
}

func TestHandleBatchIsolatesPartitions(t *testing.T) {
	c := newTestConsumer(func(_ context.Context, msg *Message) error {
		if string(msg.Value) == "bad" {
			return errors.New("decode failed")
		}
		return nil
	})

	handled := c.handleBatch(context.Background(), []*kgo.Record{
		record("t", 0, 3, "ok"),
		record("t", 0, 4, "bad"),
		record("t", 0, 5, "ok"),
		record("t", 1, 9, "ok"),
	})

	assert.Equal(t, []int64{3, 9}, offsets(handled))
}

func TestHandleBatchSkipsRestOfFailedPartition(t *testing.T) {
	var seen []string
	c := newTestConsumer(func(_ context.Context, msg *Message) error {
		seen = append(seen, string(msg.Value))
		if string(msg.Value) == "bad" {
			return errors.New("decode failed")
		}
		return nil
	})

	c.handleBatch(context.Background(), []*kgo.Record{
		record("t", 0, 1, "bad"),
		record("t", 0, 2, "after"),
	})

	// Handling past a failure would break per-partition ordering on
	// redelivery.
	assert.Equal(t, []string{"bad"}, seen)
}
