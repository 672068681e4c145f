package market

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const (
	EventCatalogReplaced = "CatalogReplaced"
	EventOrderCreated    = "OrderCreated"
)

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // seller id
	Payload       json.RawMessage `json:"payload"`
}

type CatalogReplacedPayload struct {
	SellerID          string `json:"seller_id"`
	CatalogID         string `json:"catalog_id"`
	PreviousCatalogID string `json:"previous_catalog_id,omitempty"`
	ProductCount      int    `json:"product_count"`
}

type OrderCreatedPayload struct {
	OrderID    string   `json:"order_id"`
	SellerID   string   `json:"seller_id"`
	BuyerID    string   `json:"buyer_id"`
	ProductIDs []string `json:"product_ids"`
	Total      string   `json:"total"`
}

// NewEnvelope wraps payload as a version 1 event correlated by sellerID.
func NewEnvelope(eventType, producer, traceID, sellerID string, payload any) (Envelope, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      producer,
		TraceID:       traceID,
		CorrelationID: sellerID,
		Payload:       b,
	}, nil
}

// Publisher delivers envelopes to a topic. Delivery is best effort and
// happens after the originating transaction committed.
type Publisher interface {
	PublishEvent(topic string, env Envelope)
}

type NopPublisher struct{}

func (NopPublisher) PublishEvent(string, Envelope) {}

type traceKey struct{}

// WithTraceID carries the request id into emitted events.
func WithTraceID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, traceKey{}, id)
}

func TraceID(ctx context.Context) string {
	s, _ := ctx.Value(traceKey{}).(string)
	return s
}
