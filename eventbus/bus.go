// Package eventbus publishes membership lifecycle events to a RabbitMQ
// exchange as JSON messages.
package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/devlongs/solesub/credential"
	"github.com/devlongs/solesub/plugin"
	"github.com/devlongs/solesub/types"
)

// Compile-time interface checks.
var (
	_ plugin.Plugin              = (*Bus)(nil)
	_ plugin.OnCredentialIssued  = (*Bus)(nil)
	_ plugin.OnCredentialRenewed = (*Bus)(nil)
	_ plugin.OnCredentialRevoked = (*Bus)(nil)
	_ plugin.OnPriceChanged      = (*Bus)(nil)
	_ plugin.OnDurationChanged   = (*Bus)(nil)
	_ plugin.OnPauseChanged      = (*Bus)(nil)
	_ plugin.OnFundsWithdrawn    = (*Bus)(nil)
	_ plugin.OnShutdown          = (*Bus)(nil)
)

// Event types, also used as the routing key suffix.
const (
	EventCredentialIssued  = "credential.issued"
	EventCredentialRenewed = "credential.renewed"
	EventCredentialRevoked = "credential.revoked"
	EventPriceChanged      = "plan.price_changed"
	EventDurationChanged   = "plan.duration_changed"
	EventPauseChanged      = "gate.pause_changed"
	EventFundsWithdrawn    = "vault.funds_withdrawn"
)

// RoutingKeyPrefix is prepended to every event type.
const RoutingKeyPrefix = "membership."

// Channel is the part of *amqp.Channel the bus needs.
type Channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// Message is the JSON envelope of every published event.
type Message struct {
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`
	Data       any       `json:"data"`
}

// Bus is a plugin that forwards lifecycle events to RabbitMQ.
type Bus struct {
	ch       Channel
	exchange string
	logger   *slog.Logger
	clock    func() time.Time

	// Set by Dial; nil when the caller owns the channel.
	conn *amqp.Connection
}

// Option configures a Bus.
type Option func(*Bus)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Bus) {
		b.logger = logger
	}
}

// WithClock replaces time.Now for message timestamps.
func WithClock(now func() time.Time) Option {
	return func(b *Bus) {
		b.clock = now
	}
}

// New creates a Bus publishing to exchange over an existing channel.
func New(ch Channel, exchange string, opts ...Option) *Bus {
	b := &Bus{
		ch:       ch,
		exchange: exchange,
		logger:   slog.Default(),
		clock:    time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Dial connects to RabbitMQ and declares a durable topic exchange.
func Dial(url, exchange string, opts ...Option) (*Bus, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("eventbus: dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("eventbus: open channel: %w", err)
	}

	if err := ch.ExchangeDeclare(
		exchange, // name
		"topic",  // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	); err != nil {
		conn.Close()
		return nil, fmt.Errorf("eventbus: declare exchange %s: %w", exchange, err)
	}

	b := New(ch, exchange, opts...)
	b.conn = conn
	return b, nil
}

// Name implements plugin.Plugin.
func (b *Bus) Name() string { return "eventbus" }

// Publish sends one event to the exchange.
func (b *Bus) Publish(ctx context.Context, eventType string, data any) error {
	body, err := json.Marshal(Message{
		Type:       eventType,
		OccurredAt: b.clock().UTC(),
		Data:       data,
	})
	if err != nil {
		return fmt.Errorf("eventbus: marshal %s: %w", eventType, err)
	}

	err = b.ch.PublishWithContext(ctx,
		b.exchange,
		RoutingKeyPrefix+eventType,
		false, false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			Timestamp:    b.clock(),
			DeliveryMode: amqp.Persistent,
		},
	)
	if err != nil {
		return fmt.Errorf("eventbus: publish %s: %w", eventType, err)
	}

	b.logger.Debug("event published", "type", eventType, "exchange", b.exchange)
	return nil
}

// Close releases the connection opened by Dial.
func (b *Bus) Close() error {
	if b.conn == nil {
		return nil
	}
	return b.conn.Close()
}

// ──────────────────────────────────────────────────
// Hooks
// ──────────────────────────────────────────────────

type renewedData struct {
	Old *credential.Credential `json:"old"`
	New *credential.Credential `json:"new"`
}

type revokedData struct {
	Holder       string `json:"holder"`
	CredentialID uint64 `json:"credential_id"`
}

type changeData struct {
	Old any `json:"old"`
	New any `json:"new"`
}

type pauseData struct {
	Paused bool `json:"paused"`
}

type withdrawnData struct {
	To     string      `json:"to"`
	Amount types.Money `json:"amount"`
}

// OnCredentialIssued implements plugin.OnCredentialIssued.
func (b *Bus) OnCredentialIssued(ctx context.Context, c *credential.Credential) error {
	return b.Publish(ctx, EventCredentialIssued, c)
}

// OnCredentialRenewed implements plugin.OnCredentialRenewed.
func (b *Bus) OnCredentialRenewed(ctx context.Context, oldCred, newCred *credential.Credential) error {
	return b.Publish(ctx, EventCredentialRenewed, renewedData{Old: oldCred, New: newCred})
}

// OnCredentialRevoked implements plugin.OnCredentialRevoked.
func (b *Bus) OnCredentialRevoked(ctx context.Context, holder string, credID uint64) error {
	return b.Publish(ctx, EventCredentialRevoked, revokedData{Holder: holder, CredentialID: credID})
}

// OnPriceChanged implements plugin.OnPriceChanged.
func (b *Bus) OnPriceChanged(ctx context.Context, oldPrice, newPrice types.Money) error {
	return b.Publish(ctx, EventPriceChanged, changeData{Old: oldPrice, New: newPrice})
}

// OnDurationChanged implements plugin.OnDurationChanged. Durations are sent
// in seconds.
func (b *Bus) OnDurationChanged(ctx context.Context, oldDuration, newDuration time.Duration) error {
	return b.Publish(ctx, EventDurationChanged, changeData{
		Old: int64(oldDuration / time.Second),
		New: int64(newDuration / time.Second),
	})
}

// OnPauseChanged implements plugin.OnPauseChanged.
func (b *Bus) OnPauseChanged(ctx context.Context, paused bool) error {
	return b.Publish(ctx, EventPauseChanged, pauseData{Paused: paused})
}

// OnFundsWithdrawn implements plugin.OnFundsWithdrawn.
func (b *Bus) OnFundsWithdrawn(ctx context.Context, to string, amount types.Money) error {
	return b.Publish(ctx, EventFundsWithdrawn, withdrawnData{To: to, Amount: amount})
}

// OnShutdown implements plugin.OnShutdown.
func (b *Bus) OnShutdown(_ context.Context) error {
	return b.Close()
}
