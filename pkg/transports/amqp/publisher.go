// Package amqp publishes workflow records to a RabbitMQ exchange.
package amqp

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/actorflow/actorflow/pkg/record"
	"github.com/actorflow/actorflow/pkg/telemetry"
)

// MessageTypeRecord marks a message carrying one workflow record.
const MessageTypeRecord = "record"

// DefaultContentType is used when the caller does not set one.
const DefaultContentType = "application/json"

// Message is the JSON envelope published for every record.
type Message struct {
	ID        string         `json:"id"`
	Type      string         `json:"type"`
	RunID     string         `json:"run_id,omitempty"`
	Actor     string         `json:"actor,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
	Record    *record.Record `json:"record"`
}

// NewMessage wraps r in a fresh envelope.
func NewMessage(runID, actor string, r *record.Record) *Message {
	return &Message{
		ID:        uuid.New().String(),
		Type:      MessageTypeRecord,
		RunID:     runID,
		Actor:     actor,
		Timestamp: time.Now().UTC(),
		Record:    r,
	}
}

// Config describes where messages go.
type Config struct {
	URL         string
	Exchange    string
	RoutingKey  string
	ContentType string
}

// channel is the subset of *amqp.Channel the publisher needs.
type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Publisher owns one AMQP connection and channel.
type Publisher struct {
	cfg    Config
	logger *telemetry.Logger

	mu   sync.Mutex
	conn *amqp.Connection
	ch   channel
}

// Dial connects to the broker and opens a channel.
func Dial(cfg Config, logger *telemetry.Logger) (*Publisher, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("amqp url is required")
	}

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("dial amqp: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	p := newPublisher(cfg, ch, logger)
	p.conn = conn
	p.logger.Info("connected to AMQP broker")
	return p, nil
}

func newPublisher(cfg Config, ch channel, logger *telemetry.Logger) *Publisher {
	if cfg.ContentType == "" {
		cfg.ContentType = DefaultContentType
	}
	if logger == nil {
		logger = telemetry.NewNopLogger()
	}
	return &Publisher{
		cfg: cfg,
		ch:  ch,
		logger: logger.NewComponentLogger("amqp-publisher").WithFields(map[string]interface{}{
			"exchange":    cfg.Exchange,
			"routing_key": cfg.RoutingKey,
		}),
	}
}

// Publish sends msg as a persistent JSON message.
func (p *Publisher) Publish(ctx context.Context, msg *Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ch == nil {
		return fmt.Errorf("publisher is closed")
	}

	err = p.ch.PublishWithContext(ctx, p.cfg.Exchange, p.cfg.RoutingKey, false, false, amqp.Publishing{
		ContentType:  p.cfg.ContentType,
		DeliveryMode: amqp.Persistent,
		MessageId:    msg.ID,
		Timestamp:    msg.Timestamp,
		Type:         msg.Type,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish to %s/%s: %w", p.cfg.Exchange, p.cfg.RoutingKey, err)
	}

	p.logger.WithField("message_id", msg.ID).Debug("published message")
	return nil
}

// Close closes the channel and connection.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var err error
	if p.ch != nil {
		err = p.ch.Close()
		p.ch = nil
	}
	if p.conn != nil {
		if cerr := p.conn.Close(); cerr != nil && err == nil {
			err = cerr
		}
		p.conn = nil
	}
	return err
}
