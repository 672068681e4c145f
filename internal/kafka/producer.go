package kafka

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/ariefcatur/go-marketplace/internal/market"
	"github.com/segmentio/kafka-go"
)

// Producer buffers messages in an inbox drained by one goroutine. Topics are
// chosen per message.
type Producer struct {
	w       *kafka.Writer
	inbox   chan kafka.Message
	closeCh chan struct{}
	logger  *slog.Logger

	mu     sync.RWMutex
	closed bool
}

func NewProducer(brokers []string, buf int, logger *slog.Logger) *Producer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Producer{
		w: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireAll,
			AllowAutoTopicCreation: true,
		},
		inbox:   make(chan kafka.Message, buf),
		closeCh: make(chan struct{}),
		logger:  logger,
	}
}

// Start drains the inbox until Close. ctx bounds each write.
func (p *Producer) Start(ctx context.Context) {
	go func() {
		defer close(p.closeCh)
		for m := range p.inbox {
			wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
			if err := p.w.WriteMessages(wctx, m); err != nil {
				p.logger.Error("kafka write failed",
					"event", "kafka_write_failed",
					"topic", m.Topic,
					"key", string(m.Key),
					"error", err.Error(),
				)
			}
			cancel()
		}
		if err := p.w.Close(); err != nil {
			p.logger.Error("kafka writer close failed", "event", "kafka_close_failed", "error", err.Error())
		}
	}()
}

// Publish enqueues a message; it is dropped with a warning after Close or
// when the inbox is full.
func (p *Producer) Publish(topic string, key, value []byte, headers ...kafka.Header) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		p.logger.Warn("publish after close", "event", "kafka_publish_closed", "topic", topic)
		return
	}
	m := kafka.Message{Topic: topic, Key: key, Value: value, Time: time.Now(), Headers: headers}
	select {
	case p.inbox <- m:
	default:
		p.logger.Warn("kafka inbox full, dropping message", "event", "kafka_publish_drop", "topic", topic)
	}
}

// PublishEvent implements market.Publisher.
func (p *Producer) PublishEvent(topic string, env market.Envelope) {
	p.Publish(topic, market.PartitionKey(env.CorrelationID), MustMarshal(env),
		kafka.Header{Key: "x-event-type", Value: []byte(env.EventType)},
		kafka.Header{Key: "x-event-version", Value: []byte("1")},
	)
}

// Close stops accepting messages; the goroutine flushes what is queued.
func (p *Producer) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	close(p.inbox)
}

// WaitClosed blocks until the queued messages were flushed.
func (p *Producer) WaitClosed() { <-p.closeCh }
