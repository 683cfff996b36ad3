// Package events publishes session lifecycle notifications for external
// collaborators (result export, housekeeping, analytics ingest). This is
// server-to-server messaging; quiz clients still observe state by polling.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Exchange is the topic exchange session events are published to.
const Exchange = "quizburst.sessions"

// Routing keys per event kind.
const (
	SessionStartedKey = "session.started"
	SessionEndedKey   = "session.ended"
)

// SessionEvent is the payload published on session transitions.
type SessionEvent struct {
	SessionID  string    `json:"session_id"`
	QuizID     string    `json:"quiz_id"`
	Code       string    `json:"code"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Publisher emits session lifecycle events. Implementations must tolerate
// being called concurrently from request handlers.
type Publisher interface {
	SessionStarted(ctx context.Context, ev SessionEvent) error
	SessionEnded(ctx context.Context, ev SessionEvent) error
	Close() error
}

// RabbitPublisher publishes events to a RabbitMQ topic exchange.
type RabbitPublisher struct {
	conn    *amqp.Connection
	channel *amqp.Channel
}

// NewRabbitPublisher connects to RabbitMQ and declares the session exchange.
func NewRabbitPublisher(url string) (*RabbitPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dialing rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("opening channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		Exchange,
		"topic",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("declaring exchange: %w", err)
	}

	return &RabbitPublisher{conn: conn, channel: ch}, nil
}

// SessionStarted publishes a session.started event.
func (p *RabbitPublisher) SessionStarted(ctx context.Context, ev SessionEvent) error {
	return p.publish(ctx, SessionStartedKey, ev)
}

// SessionEnded publishes a session.ended event.
func (p *RabbitPublisher) SessionEnded(ctx context.Context, ev SessionEvent) error {
	return p.publish(ctx, SessionEndedKey, ev)
}

func (p *RabbitPublisher) publish(ctx context.Context, key string, ev SessionEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshalling event: %w", err)
	}

	err = p.channel.PublishWithContext(ctx, Exchange, key,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
			Timestamp:   ev.OccurredAt,
		})
	if err != nil {
		return fmt.Errorf("publishing %s: %w", key, err)
	}
	return nil
}

// Close shuts the channel and connection down.
func (p *RabbitPublisher) Close() error {
	if err := p.channel.Close(); err != nil {
		p.conn.Close()
		return err
	}
	return p.conn.Close()
}

// NopPublisher drops all events. Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) SessionStarted(ctx context.Context, ev SessionEvent) error { return nil }
func (NopPublisher) SessionEnded(ctx context.Context, ev SessionEvent) error   { return nil }
func (NopPublisher) Close() error                                              { return nil }
