// Package kafka wraps the franz-go client for the transition ingest
// pipeline: a producer for the HTTP ingest path and a consumer-group
// reader for the reconciler. Offsets are committed only after a message is
// handled, so delivery into the pipeline is at-least-once; downstream
// status gating makes redelivery safe.
package kafka

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kgo"
)

// TransitionsTopic carries transition events from device agents, keyed by
// device id so one device's events stay ordered.
const TransitionsTopic = "pinder.transitions"

// ConsumerGroup is the reconciler's consumer group.
const ConsumerGroup = "pinder-reconciler"

// Message is one consumed record.
type Message struct {
	Topic string
	Key   []byte
	Value []byte
}

// Handler processes one message. A returned error leaves the offset
// uncommitted; the record, and everything after it in the same partition
// batch, is redelivered once the group rebalances or the consumer
// restarts.
type Handler func(ctx context.Context, msg *Message) error

// Producer publishes records synchronously.
type Producer struct {
	client *kgo.Client
}

// NewProducer connects a producer to the given brokers.
func NewProducer(brokers []string) (*Producer, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.AllowAutoTopicCreation(),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}
	return &Producer{client: client}, nil
}

// Publish produces one record and waits for the broker acknowledgement.
func (p *Producer) Publish(ctx context.Context, topic string, key, value []byte) error {
	rec := &kgo.Record{Topic: topic, Key: key, Value: value}
	if err := p.client.ProduceSync(ctx, rec).FirstErr(); err != nil {
		return fmt.Errorf("produce to %s: %w", topic, err)
	}
	return nil
}

// Close flushes and releases the producer.
func (p *Producer) Close() {
	p.client.Close()
}

// Consumer reads a topic in a consumer group and hands each record to a
// Handler, committing after successful handling.
type Consumer struct {
	client  *kgo.Client
	handler Handler
	logger  *slog.Logger
}

// NewConsumer joins the group and subscribes to the topic.
func NewConsumer(brokers []string, group, topic string, handler Handler, logger *slog.Logger) (*Consumer, error) {
	if logger == nil {
		logger = slog.Default()
	}
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ConsumerGroup(group),
		kgo.ConsumeTopics(topic),
		kgo.DisableAutoCommit(),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka consumer: %w", err)
	}
	return &Consumer{client: client, handler: handler, logger: logger}, nil
}

// Run polls until the context is cancelled.
func (c *Consumer) Run(ctx context.Context) error {
	defer c.client.Close()

	for {
		fetches := c.client.PollFetches(ctx)
		if fetches.IsClientClosed() {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		fetches.EachError(func(topic string, partition int32, err error) {
			c.logger.Error("kafka fetch error",
				"topic", topic, "partition", partition, "error", err)
		})

		var recs []*kgo.Record
		fetches.EachRecord(func(rec *kgo.Record) { recs = append(recs, rec) })

		if handled := c.handleBatch(ctx, recs); len(handled) > 0 {
			if err := c.client.CommitRecords(ctx, handled...); err != nil {
				c.logger.Error("commit offsets failed", "error", err)
			}
		}
	}
}

// handleBatch runs the handler over one poll's records and returns the
// records safe to commit. Committing a record advances the partition's
// offset past every earlier record, so after a handler failure the rest of
// that partition's batch is withheld from both handling and commit; other
// partitions are unaffected.
func (c *Consumer) handleBatch(ctx context.Context, recs []*kgo.Record) []*kgo.Record {
	type partition struct {
		topic string
		part  int32
	}
	failed := make(map[partition]bool)

	var handled []*kgo.Record
	for _, rec := range recs {
		key := partition{rec.Topic, rec.Partition}
		if failed[key] {
			continue
		}
		msg := &Message{Topic: rec.Topic, Key: rec.Key, Value: rec.Value}
		if err := c.handler(ctx, msg); err != nil {
			failed[key] = true
			c.logger.Error("message handling failed",
				"topic", rec.Topic, "partition", rec.Partition,
				"offset", rec.Offset, "error", err)
			continue
		}
		handled = append(handled, rec)
	}
	return handled
}
