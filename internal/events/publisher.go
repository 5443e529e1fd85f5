package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"
)

// Routing keys of the events published after a stock change is committed
const (
	RKStockMovementRecorded = "stock.movement.recorded"
	RKStockLevelLow         = "stock.level.low"
	RKSaleRecorded          = "sale.recorded"
	RKSaleDeleted           = "sale.deleted"
)

// StockMovementPayload describes one committed ledger entry and the balance it produced.
type StockMovementPayload struct {
	MovementID   int64     `json:"movement_id"`
	ProductID    int64     `json:"product_id"`
	MovementType string    `json:"movement_type"`
	Quantity     int       `json:"quantity"`
	Stock        int       `json:"stock"`
	Status       string    `json:"status"`
	SaleID       *int64    `json:"sale_id,omitempty"`
	Date         time.Time `json:"date"`
}

// SalePayload describes a sale that was recorded or deleted.
type SalePayload struct {
	SaleID    int64     `json:"sale_id"`
	ProductID int64     `json:"product_id"`
	Quantity  int       `json:"quantity"`
	Total     float64   `json:"total"`
	Restocked bool      `json:"restocked,omitempty"`
	Date      time.Time `json:"date"`
}

// Envelope wraps every published payload.
type Envelope struct {
	ID         string      `json:"id"`
	RoutingKey string      `json:"routing_key"`
	OccurredAt time.Time   `json:"occurred_at"`
	Payload    interface{} `json:"payload"`
}

// Publisher sends domain events. Publishing happens after commit and is best effort.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, payload interface{}) error
	Close()
}

// RabbitPublisher publishes JSON events to a topic exchange.
type RabbitPublisher struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
}

// NewRabbitPublisher dials RabbitMQ and declares the exchange.
func NewRabbitPublisher(url, exchange string) (*RabbitPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dialing rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("opening rabbitmq channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declaring exchange %s: %w", exchange, err)
	}
	return &RabbitPublisher{conn: conn, ch: ch, exchange: exchange}, nil
}

func (p *RabbitPublisher) Publish(ctx context.Context, routingKey string, payload interface{}) error {
	env := NewEnvelope(routingKey, payload)
	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("encoding event %s: %w", routingKey, err)
	}
	return p.ch.PublishWithContext(ctx, p.exchange, routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    env.ID,
		Timestamp:    env.OccurredAt,
		Body:         body,
	})
}

func (p *RabbitPublisher) Close() {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
}

// NewEnvelope stamps a payload with a fresh event ID and the current time.
func NewEnvelope(routingKey string, payload interface{}) Envelope {
	return Envelope{
		ID:         uuid.NewString(),
		RoutingKey: routingKey,
		OccurredAt: time.Now().UTC(),
		Payload:    payload,
	}
}

// LogPublisher only logs events. Used when no broker is configured.
type LogPublisher struct{}

func (LogPublisher) Publish(_ context.Context, routingKey string, payload interface{}) error {
	log.Debug().Str("routing_key", routingKey).Interface("payload", payload).Msg("Event (no broker configured)")
	return nil
}

func (LogPublisher) Close() {}
