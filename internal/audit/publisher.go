package audit

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"ezyassist/internal/platform/kafka/producer"
)

// Sink receives committed entries for downstream consumers.
type Sink interface {
	Publish(ctx context.Context, entry Entry) error
}

// Publisher fans committed entries out to sinks on a background goroutine.
// Durability comes from the store; sinks are best effort.
type Publisher struct {
	sinks  []Sink
	events chan Entry
	wg     sync.WaitGroup
	logger *slog.Logger
	once   sync.Once
}

type PublisherOption func(*Publisher)

// WithBuffer sets the queue size. Default 256.
func WithBuffer(size int) PublisherOption {
	return func(p *Publisher) {
		if size > 0 {
			p.events = make(chan Entry, size)
		}
	}
}

func WithPublisherLogger(logger *slog.Logger) PublisherOption {
	return func(p *Publisher) {
		p.logger = logger
	}
}

func NewPublisher(sinks []Sink, opts ...PublisherOption) *Publisher {
	p := &Publisher{sinks: sinks}
	for _, opt := range opts {
		opt(p)
	}
	if p.events == nil {
		p.events = make(chan Entry, 256)
	}
	p.wg.Add(1)
	go p.run()
	return p
}

func (p *Publisher) run() {
	defer p.wg.Done()
	for entry := range p.events {
		for _, sink := range p.sinks {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			if err := sink.Publish(ctx, entry); err != nil && p.logger != nil {
				p.logger.Error("failed to publish audit entry",
					"error", err,
					"action", entry.Action,
					"record_id", entry.RecordID,
				)
			}
			cancel()
		}
	}
}

// Emit queues entries without blocking. Entries are dropped when the buffer is full.
func (p *Publisher) Emit(ctx context.Context, entries ...Entry) {
	if p == nil || len(p.sinks) == 0 {
		return
	}
	for _, e := range entries {
		select {
		case p.events <- e:
		default:
			if p.logger != nil {
				p.logger.WarnContext(ctx, "audit buffer full, entry dropped",
					"action", e.Action,
					"record_id", e.RecordID,
				)
			}
		}
	}
}

// Close drains pending entries.
func (p *Publisher) Close() {
	if p == nil {
		return
	}
	p.once.Do(func() {
		close(p.events)
		p.wg.Wait()
	})
}

// Producer is the subset of the Kafka producer the sink needs.
type Producer interface {
	Produce(ctx context.Context, msg *producer.Message) error
}

// KafkaSink writes entries as JSON keyed by record id so a record's history stays ordered.
type KafkaSink struct {
	producer Producer
	topic    string
}

func NewKafkaSink(p Producer, topic string) *KafkaSink {
	return &KafkaSink{producer: p, topic: topic}
}

func (k *KafkaSink) Publish(ctx context.Context, entry Entry) error {
	value, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return k.producer.Produce(ctx, &producer.Message{
		Topic:   k.topic,
		Key:     []byte(entry.RecordID),
		Value:   value,
		Headers: map[string]string{"action": string(entry.Action)},
	})
}
