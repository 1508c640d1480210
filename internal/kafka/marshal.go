package kafka

import (
	"encoding/json"
	"github.com/ariefcatur/go-realtime-store/internal/invoices"
	"github.com/pkg/errors"
)

func DecodeEnvelope(b []byte) (invoices.Envelope, error) {
	var env invoices.Envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return env, errors.Wrap(err, "decode envelope")
	}
	return env, nil
}

// UnwrapPayload memudahkan decode payload spesifik
func UnwrapPayload[T any](payload json.RawMessage) (T, error) {
	var t T
	if err := json.Unmarshal(payload, &t); err != nil {
		return t, errors.Wrap(err, "decode payload")
	}
	return t, nil
}
