// Package backfill publishes reading batches onto the ingest topic so
// historical exports can be replayed through the consumer.
package backfill

import (
	"context"
	"sync"

	"github.com/segmentio/kafka-go"
)

// Publisher lazily manages writers per topic.
type Publisher struct {
	brokers []string
	mu      sync.Mutex
	writers map[string]*kafka.Writer
}

// NewPublisher creates a Publisher.
func NewPublisher(brokers []string) *Publisher {
	return &Publisher{
		brokers: brokers,
		writers: make(map[string]*kafka.Writer),
	}
}

// Publish writes one batch payload to the topic, keyed by device so batches
// from the same wearable stay ordered.
func (p *Publisher) Publish(ctx context.Context, topic, deviceID string, payload []byte) error {
	writer := p.writerForTopic(topic)
	return writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(deviceID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "device_id", Value: []byte(deviceID)},
		},
	})
}

func (p *Publisher) writerForTopic(topic string) *kafka.Writer {
	p.mu.Lock()
	defer p.mu.Unlock()

	if writer, ok := p.writers[topic]; ok {
		return writer
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(p.brokers...),
		Topic:        topic,
		RequiredAcks: kafka.RequireAll,
		Compression:  kafka.Snappy,
		Async:        false,
	}
	p.writers[topic] = writer
	return writer
}

// Close releases all writers.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var firstErr error
	for topic, writer := range p.writers {
		if err := writer.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(p.writers, topic)
	}
	return firstErr
}
