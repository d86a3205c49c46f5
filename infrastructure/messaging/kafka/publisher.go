/*
Package kafka relays outbox records to Kafka. Each event family gets its own
topic ("<prefix>.order", "<prefix>.return", ...) and records are keyed by
aggregate id so that one aggregate's events stay ordered within a partition.
*/
package kafka

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"ecommerce/config"
	"ecommerce/infrastructure/outbox"
	"ecommerce/pkg/logger"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// messageWriter is the part of *kafka.Writer the publisher needs.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher implements outbox.Publisher. Writers are created lazily, one per
// topic.
type Publisher struct {
	brokers     []string
	topicPrefix string
	newWriter   func(topic string) messageWriter

	mu      sync.Mutex
	writers map[string]messageWriter
}

func NewPublisher(cfg config.KafkaConfig) (*Publisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka: at least one broker is required")
	}
	p := &Publisher{
		brokers:     cfg.Brokers,
		topicPrefix: strings.TrimSuffix(cfg.TopicPrefix, "."),
		writers:     make(map[string]messageWriter),
	}
	p.newWriter = p.kafkaWriter
	return p, nil
}

func (p *Publisher) kafkaWriter(topic string) messageWriter {
	return &kafka.Writer{
		Addr:                   kafka.TCP(p.brokers...),
		Topic:                  topic,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
		RequiredAcks:           kafka.RequireAll,
		WriteTimeout:           10 * time.Second,
	}
}

// Topic maps a record to its topic name.
func (p *Publisher) Topic(record outbox.Record) string {
	if p.topicPrefix == "" {
		return record.Family()
	}
	return p.topicPrefix + "." + record.Family()
}

func (p *Publisher) Publish(ctx context.Context, record outbox.Record) error {
	topic := p.Topic(record)
	msg := kafka.Message{
		Key:   []byte(record.AggregateID),
		Value: []byte(record.Payload),
		Headers: []kafka.Header{
			{Key: "event_id", Value: []byte(record.ID)},
			{Key: "event_type", Value: []byte(record.EventType)},
		},
		Time: record.CreatedAt,
	}
	if err := p.writer(topic).WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka: publish %s to %s: %w", record.EventType, topic, err)
	}
	logger.Debug("Outbox event sent to kafka",
		zap.String("event_id", record.ID),
		zap.String("topic", topic),
	)
	return nil
}

func (p *Publisher) writer(topic string) messageWriter {
	p.mu.Lock()
	defer p.mu.Unlock()
	w, ok := p.writers[topic]
	if !ok {
		w = p.newWriter(topic)
		p.writers[topic] = w
	}
	return w
}

// Close flushes and closes every writer.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	var firstErr error
	for topic, w := range p.writers {
		if err := w.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("kafka: close writer %s: %w", topic, err)
		}
		delete(p.writers, topic)
	}
	return firstErr
}

var _ outbox.Publisher = (*Publisher)(nil)
