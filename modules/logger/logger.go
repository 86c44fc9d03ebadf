// Package logger is a trivial diagnostic module: it logs every message it
// receives at debug level via internal/log, and publishes nothing. Useful
// wired to a wildcard link for inspecting traffic during development.
package logger

import (
	"encoding/json"
	"fmt"

	"github.com/gatewaymux/gatewaymux/core"
	"github.com/gatewaymux/gatewaymux/internal/log"
)

// Config optionally names the module for log correlation; if empty, the
// gateway-assigned registry name (via SetName) is used instead.
type Config struct {
	Name string `json:"name"`
}

const APIVersion = 1

type Factory struct{}

func (Factory) APIVersion() int { return APIVersion }

func (Factory) Create(b *core.Broker, config any) (core.Module, error) {
	var cfg Config
	if raw, ok := config.(json.RawMessage); ok && len(raw) > 0 && string(raw) != "null" {
		if err := json.Unmarshal(raw, &cfg); err != nil {
			return nil, fmt.Errorf("gatewaymux/logger: decode config: %w", err)
		}
	}
	return &Module{name: cfg.Name}, nil
}

// Module logs each received message's identity, payload length, and
// properties.
type Module struct {
	name string
}

func (m *Module) SetName(name string) {
	if m.name == "" {
		m.name = name
	}
}

func (m *Module) Receive(msg *core.Message) {
	event := log.WithModule("logger", m.name).Debug().
		Str("message_id", msg.ID().String()).
		Int("payload_bytes", len(msg.Payload()))
	msg.Properties().Range(func(k, v string) bool {
		event = event.Str("prop_"+k, v)
		return true
	})
	event.Msg("logger: received")
}

func (m *Module) Destroy() {}
