package cdc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const exchangeType = "topic"

// RabbitPublisher publishes change events to a RabbitMQ topic exchange.
type RabbitPublisher struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
	logger   *zap.Logger
}

var _ Publisher = (*RabbitPublisher)(nil)

// NewRabbitPublisher dials the broker and declares the durable topic exchange.
func NewRabbitPublisher(url, exchange string, logger *zap.Logger) (*RabbitPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("could not connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("could not open channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		exchange,     // name
		exchangeType, // type
		true,         // durable
		false,        // auto-deleted
		false,        // internal
		false,        // no-wait
		nil,          // arguments
	)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("could not declare exchange %s: %w", exchange, err)
	}

	logger.Info("Connected CDC publisher", zap.String("exchange", exchange))
	return &RabbitPublisher{conn: conn, ch: ch, exchange: exchange, logger: logger}, nil
}

// Publish sends the event as JSON with routing key bronze_trades.<op>.
func (p *RabbitPublisher) Publish(ctx context.Context, event Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("could not marshal event: %w", err)
	}

	err = p.ch.PublishWithContext(ctx,
		p.exchange,        // exchange
		RoutingKey(event), // routing key
		false,             // mandatory
		false,             // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    event.ID,
			Timestamp:    event.EmittedAt,
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("could not publish %s event for %s: %w", event.Op, event.TradeID, err)
	}
	return nil
}

// Close releases the channel and the connection. Both are attempted.
func (p *RabbitPublisher) Close() error {
	return errors.Join(p.ch.Close(), p.conn.Close())
}

// RoutingKey is <table>.<op>, e.g. bronze_trades.insert.
func RoutingKey(event Event) string {
	return fmt.Sprintf("%s.%s", event.Table, event.Op)
}
