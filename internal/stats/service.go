// Package stats consumes order events and keeps per-seller counters.
package stats

import (
	"context"
	"log/slog"

	kafkax "github.com/ariefcatur/go-marketplace/internal/kafka"
	"github.com/ariefcatur/go-marketplace/internal/market"
	kafkago "github.com/segmentio/kafka-go"
)

// Counters is the storage the worker writes to.
type Counters interface {
	// RecordOrderOnce must set the dedup mark and the counters atomically.
	RecordOrderOnce(ctx context.Context, service, eventID, sellerID string, products int) (bool, error)
}

type Service struct {
	Counters    Counters
	ServiceName string
	Logger      *slog.Logger
}

// HandleOrderCreated is installed as the consumer handler for order events.
// Redelivered events are counted once.
func (s *Service) HandleOrderCreated(ctx context.Context, m kafkago.Message) error {
	env, err := kafkax.DecodeEnvelope(m.Value)
	if err != nil {
		s.Logger.Warn("skipping undecodable message", "event", "stats_decode_failed", "offset", m.Offset, "error", err.Error())
		return nil
	}
	if env.EventType != market.EventOrderCreated {
		return nil
	}

	p, err := kafkax.UnwrapPayload[market.OrderCreatedPayload](env.Payload)
	if err != nil {
		s.Logger.Warn("skipping bad payload", "event", "stats_payload_failed", "event_id", env.EventID, "error", err.Error())
		return nil
	}

	counted, err := s.Counters.RecordOrderOnce(ctx, s.ServiceName, env.EventID, p.SellerID, len(p.ProductIDs))
	if err != nil {
		return err
	}
	if !counted {
		return nil
	}
	s.Logger.Debug("order counted", "event", "stats_order_counted", "seller_id", p.SellerID, "order_id", p.OrderID)
	return nil
}
