// Package kafkasink adapts the broker to Apache Kafka: every message
// received from the gateway graph is written to a configured topic via
// segmentio/kafka-go. It is a sink only — it never publishes back into the
// broker — matching the "domain modules" the source treats as external,
// out-of-scope collaborators (§1), reimagined here as a concrete shipped
// module rather than a bespoke broker implementation.
package kafkasink

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/gatewaymux/gatewaymux/core"
	"github.com/gatewaymux/gatewaymux/internal/log"
)

// Config is the module-specific configuration this sink expects, decoded
// from the opaque payload AddModule's caller supplied.
type Config struct {
	Brokers      []string `json:"brokers"`
	Topic        string   `json:"topic"`
	BatchSize    int      `json:"batch_size"`
	Async        bool     `json:"async"`
	WriteTimeout string   `json:"write_timeout"`
}

// APIVersion this factory was built against.
const APIVersion = 1

// Factory constructs kafkasink Modules. Register it with an inprocess
// loader under the module type "kafkasink".
type Factory struct{}

func (Factory) APIVersion() int { return APIVersion }

func (Factory) Create(b *core.Broker, config any) (core.Module, error) {
	raw, ok := config.(json.RawMessage)
	if !ok {
		return nil, fmt.Errorf("gatewaymux/kafkasink: expected json.RawMessage config, got %T", config)
	}
	var cfg Config
	if len(raw) > 0 && string(raw) != "null" {
		if err := json.Unmarshal(raw, &cfg); err != nil {
			return nil, fmt.Errorf("gatewaymux/kafkasink: decode config: %w", err)
		}
	}
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("gatewaymux/kafkasink: at least one broker address is required")
	}
	if cfg.Topic == "" {
		return nil, fmt.Errorf("gatewaymux/kafkasink: topic is required")
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}

	writeTimeout := 10 * time.Second
	if cfg.WriteTimeout != "" {
		d, err := time.ParseDuration(cfg.WriteTimeout)
		if err != nil {
			return nil, fmt.Errorf("gatewaymux/kafkasink: parse write_timeout: %w", err)
		}
		writeTimeout = d
	}

	writer := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafkago.LeastBytes{},
		BatchSize:    cfg.BatchSize,
		Async:        cfg.Async,
		RequiredAcks: kafkago.RequireAll,
		WriteTimeout: writeTimeout,
	}

	return &Module{writer: writer, topic: cfg.Topic}, nil
}

// Module writes every received message to a fixed Kafka topic, carrying
// its properties as Kafka headers.
type Module struct {
	writer *kafkago.Writer
	topic  string
}

func (m *Module) Receive(msg *core.Message) {
	km := kafkago.Message{
		Topic:   m.topic,
		Value:   msg.Payload(),
		Headers: toHeaders(msg.Properties()),
	}
	ctx, cancel := context.WithTimeout(context.Background(), m.writer.WriteTimeout)
	defer cancel()
	if err := m.writer.WriteMessages(ctx, km); err != nil {
		log.Logger.Error().Err(err).Str("topic", m.topic).Msg("kafkasink: write failed")
	}
}

func (m *Module) Destroy() {
	if err := m.writer.Close(); err != nil {
		log.Logger.Error().Err(err).Msg("kafkasink: close writer failed")
	}
}

func toHeaders(props *core.Properties) []kafkago.Header {
	if props.Len() == 0 {
		return nil
	}
	headers := make([]kafkago.Header, 0, props.Len())
	props.Range(func(k, v string) bool {
		headers = append(headers, kafkago.Header{Key: k, Value: []byte(v)})
		return true
	})
	return headers
}
