package kafka

import (
	"encoding/json"
	"fmt"

	"github.com/ariefcatur/go-marketplace/internal/market"
)

func MustMarshal(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}

// DecodeEnvelope decodes an event envelope and checks it carries a type.
func DecodeEnvelope(b []byte) (market.Envelope, error) {
	var env market.Envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return env, fmt.Errorf("decode envelope: %w", err)
	}
	if env.EventType == "" {
		return env, fmt.Errorf("decode envelope: missing event_type")
	}
	return env, nil
}

// UnwrapPayload decodes an envelope payload into T.
func UnwrapPayload[T any](payload json.RawMessage) (T, error) {
	var t T
	if err := json.Unmarshal(payload, &t); err != nil {
		return t, fmt.Errorf("decode payload: %w", err)
	}
	return t, nil
}
