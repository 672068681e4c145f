package kafka

import (
	"testing"

	"github.com/ariefcatur/go-marketplace/internal/market"
)

func TestEnvelopeRoundTrip(t *testing.T) {
	env, err := market.NewEnvelope(market.EventOrderCreated, "test", "req-1", "seller-1",
		market.OrderCreatedPayload{OrderID: "o-1", SellerID: "seller-1", ProductIDs: []string{"p-1"}, Total: "3"})
	if err != nil {
		t.Fatalf("new envelope: %v", err)
	}
	got, err := DecodeEnvelope(MustMarshal(env))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.EventID != env.EventID || got.TraceID != "req-1" || got.EventVersion != 1 {
		t.Fatalf("unexpected envelope %+v", got)
	}
	p, err := UnwrapPayload[market.OrderCreatedPayload](got.Payload)
	if err != nil {
		t.Fatalf("unwrap: %v", err)
	}
	if p.OrderID != "o-1" || len(p.ProductIDs) != 1 || p.Total != "3" {
		t.Fatalf("unexpected payload %+v", p)
	}
}

func TestDecodeEnvelopeRejectsUntyped(t *testing.T) {
	if _, err := DecodeEnvelope([]byte(`{"event_id":"x"}`)); err == nil {
		t.Fatalf("expected error for envelope without type")
	}
	if _, err := DecodeEnvelope([]byte(`{`)); err == nil {
		t.Fatalf("expected error for invalid json")
	}
}
