// Package rabbitmqsink adapts the broker to RabbitMQ: every message
// received from the gateway graph is published to a configured exchange
// (or queue, if no exchange is set) via rabbitmq/amqp091-go. Sink only, in
// the same spirit as kafkasink.
package rabbitmqsink

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/gatewaymux/gatewaymux/core"
	"github.com/gatewaymux/gatewaymux/internal/log"
)

// Config is the module-specific configuration this sink expects.
type Config struct {
	URI           string `json:"uri"`
	Exchange      string `json:"exchange"`
	ExchangeType  string `json:"exchange_type"`
	RoutingKey    string `json:"routing_key"`
	PrefetchCount int    `json:"prefetch_count"`
}

const APIVersion = 1

type Factory struct{}

func (Factory) APIVersion() int { return APIVersion }

func (Factory) Create(b *core.Broker, config any) (core.Module, error) {
	raw, ok := config.(json.RawMessage)
	if !ok {
		return nil, fmt.Errorf("gatewaymux/rabbitmqsink: expected json.RawMessage config, got %T", config)
	}
	var cfg Config
	if len(raw) > 0 && string(raw) != "null" {
		if err := json.Unmarshal(raw, &cfg); err != nil {
			return nil, fmt.Errorf("gatewaymux/rabbitmqsink: decode config: %w", err)
		}
	}
	if cfg.URI == "" {
		return nil, fmt.Errorf("gatewaymux/rabbitmqsink: uri is required")
	}
	if cfg.RoutingKey == "" {
		return nil, fmt.Errorf("gatewaymux/rabbitmqsink: routing_key is required")
	}
	if cfg.ExchangeType == "" {
		cfg.ExchangeType = "direct"
	}

	conn, err := amqp.Dial(cfg.URI)
	if err != nil {
		return nil, fmt.Errorf("gatewaymux/rabbitmqsink: dial %q: %w", cfg.URI, err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("gatewaymux/rabbitmqsink: open channel: %w", err)
	}

	if cfg.Exchange != "" {
		if err := ch.ExchangeDeclare(cfg.Exchange, cfg.ExchangeType, true, false, false, false, nil); err != nil {
			ch.Close()
			conn.Close()
			return nil, fmt.Errorf("gatewaymux/rabbitmqsink: declare exchange %q: %w", cfg.Exchange, err)
		}
	} else {
		if _, err := ch.QueueDeclare(cfg.RoutingKey, true, false, false, false, nil); err != nil {
			ch.Close()
			conn.Close()
			return nil, fmt.Errorf("gatewaymux/rabbitmqsink: declare queue %q: %w", cfg.RoutingKey, err)
		}
	}

	return &Module{conn: conn, ch: ch, exchange: cfg.Exchange, routingKey: cfg.RoutingKey}, nil
}

// Module publishes every received message to a fixed exchange/routing key,
// carrying its properties as AMQP headers.
type Module struct {
	conn       *amqp.Connection
	ch         *amqp.Channel
	exchange   string
	routingKey string
}

func (m *Module) Receive(msg *core.Message) {
	headers := amqp.Table{}
	msg.Properties().Range(func(k, v string) bool {
		headers[k] = v
		return true
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := m.ch.PublishWithContext(ctx, m.exchange, m.routingKey, false, false, amqp.Publishing{
		Body:    msg.Payload(),
		Headers: headers,
	})
	if err != nil {
		log.Logger.Error().Err(err).Str("routing_key", m.routingKey).Msg("rabbitmqsink: publish failed")
	}
}

func (m *Module) Destroy() {
	if err := m.ch.Close(); err != nil {
		log.Logger.Error().Err(err).Msg("rabbitmqsink: close channel failed")
	}
	if err := m.conn.Close(); err != nil {
		log.Logger.Error().Err(err).Msg("rabbitmqsink: close connection failed")
	}
}
