package core

import (
	"encoding/json"
	"fmt"
)

// Binder deserializes a message's raw payload into a Go value. Modules are
// not required to use it — Receive gets the opaque Message either way — but
// it gives JSON-bodied modules a one-line way to decode, the same role
// JSONBinder played for the teacher's Context.Bind.
type Binder interface {
	Bind(data []byte, v any) error
}

// JSONBinder decodes JSON payloads.
type JSONBinder struct{}

func (JSONBinder) Bind(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("gatewaymux: bind: %w", err)
	}
	return nil
}

// Bind decodes m's payload into v using binder, or JSONBinder if binder is
// nil. A convenience for modules that carry JSON-bodied messages.
func Bind(m *Message, v any, binder Binder) error {
	if binder == nil {
		binder = JSONBinder{}
	}
	return binder.Bind(m.Payload(), v)
}
