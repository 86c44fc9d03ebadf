// Package natsbridge bridges the broker to NATS JetStream in both
// directions: messages received from the gateway graph are published to a
// configured subject, and messages consumed from a JetStream stream are
// republished into the graph under this module's name. It retains the
// broker handle Create is given, the same pattern the source's vtable
// Create contract describes (§6.1: "Instance retains broker for later
// publishing").
package natsbridge

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/gatewaymux/gatewaymux/core"
	"github.com/gatewaymux/gatewaymux/internal/log"
)

// Config is the module-specific configuration for a NATS bridge instance.
type Config struct {
	URL             string `json:"url"`
	PublishSubject  string `json:"publish_subject"`
	ConsumeSubject  string `json:"consume_subject"`
	StreamName      string `json:"stream_name"`
	DurableConsumer string `json:"durable_consumer"`
}

const APIVersion = 1

type Factory struct{}

func (Factory) APIVersion() int { return APIVersion }

func (Factory) Create(b *core.Broker, config any) (core.Module, error) {
	raw, ok := config.(json.RawMessage)
	if !ok {
		return nil, fmt.Errorf("gatewaymux/natsbridge: expected json.RawMessage config, got %T", config)
	}
	var cfg Config
	if len(raw) > 0 && string(raw) != "null" {
		if err := json.Unmarshal(raw, &cfg); err != nil {
			return nil, fmt.Errorf("gatewaymux/natsbridge: decode config: %w", err)
		}
	}
	if cfg.URL == "" {
		cfg.URL = nats.DefaultURL
	}
	if cfg.PublishSubject == "" && cfg.ConsumeSubject == "" {
		return nil, fmt.Errorf("gatewaymux/natsbridge: at least one of publish_subject/consume_subject is required")
	}

	conn, err := nats.Connect(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("gatewaymux/natsbridge: connect to %q: %w", cfg.URL, err)
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("gatewaymux/natsbridge: init jetstream: %w", err)
	}

	return &Module{broker: b, conn: conn, js: js, cfg: cfg}, nil
}

// Module is both a core.Module (receives from the broker, publishes to
// NATS) and a core.Starter (optionally consumes from NATS, republishing
// into the broker under its own name).
type Module struct {
	broker *core.Broker
	conn   *nats.Conn
	js     jetstream.JetStream
	cfg    Config

	name      string
	consumeCC jetstream.ConsumeContext
}

// SetName implements core.Named. The gateway calls this once, right after
// Attach succeeds, so Start can republish consumed NATS messages under the
// module's own registry name.
func (m *Module) SetName(name string) { m.name = name }

func (m *Module) Receive(msg *core.Message) {
	if m.cfg.PublishSubject == "" {
		return
	}
	header := nats.Header{}
	msg.Properties().Range(func(k, v string) bool {
		header.Set(k, v)
		return true
	})
	nm := &nats.Msg{Subject: m.cfg.PublishSubject, Data: msg.Payload(), Header: header}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := m.js.PublishMsg(ctx, nm); err != nil {
		log.Logger.Error().Err(err).Str("subject", m.cfg.PublishSubject).Msg("natsbridge: publish failed")
	}
}

// Start begins consuming ConsumeSubject, if configured, republishing every
// message into the broker under this module's name.
func (m *Module) Start() {
	if m.cfg.ConsumeSubject == "" {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	streamName := m.cfg.StreamName
	if streamName == "" {
		streamName = "gatewaymux-" + m.name
	}
	stream, err := m.js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:     streamName,
		Subjects: []string{m.cfg.ConsumeSubject},
	})
	if err != nil {
		log.Logger.Error().Err(err).Str("stream", streamName).Msg("natsbridge: create stream failed")
		return
	}

	consumerName := m.cfg.DurableConsumer
	if consumerName == "" {
		consumerName = "gatewaymux-" + m.name
	}
	consumer, err := stream.CreateOrUpdateConsumer(ctx, jetstream.ConsumerConfig{
		Durable:   consumerName,
		AckPolicy: jetstream.AckExplicitPolicy,
	})
	if err != nil {
		log.Logger.Error().Err(err).Str("consumer", consumerName).Msg("natsbridge: create consumer failed")
		return
	}

	cc, err := consumer.Consume(func(natsMsg jetstream.Msg) {
		props := core.EmptyProperties
		if len(natsMsg.Headers()) > 0 {
			builder := core.NewPropertiesBuilder()
			for k := range natsMsg.Headers() {
				builder.Set(k, natsMsg.Headers().Get(k))
			}
			props = builder.Build()
		}
		gwMsg := core.NewMessage(natsMsg.Data(), props)
		if err := m.broker.Publish(m.name, gwMsg); err != nil {
			log.Logger.Error().Err(err).Msg("natsbridge: republish into broker failed")
		}
		gwMsg.Destroy()
		_ = natsMsg.Ack()
	})
	if err != nil {
		log.Logger.Error().Err(err).Msg("natsbridge: start consume failed")
		return
	}
	m.consumeCC = cc
}

func (m *Module) Destroy() {
	if m.consumeCC != nil {
		m.consumeCC.Stop()
	}
	m.conn.Close()
}
