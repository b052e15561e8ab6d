package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/rabbitmq/amqp091-go"
)

const (
	alertExchange   = "fleet_alerts"
	alertRoutingKey = "alarm.speed"
)

// AMQPMessenger publishes alert payloads as JSON to a durable topic
// exchange. Queue binding and delivery are the broker consumers' concern.
type AMQPMessenger struct {
	ch *amqp091.Channel
}

func NewAMQPMessenger(conn *amqp091.Connection) (*AMQPMessenger, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		alertExchange,
		"topic",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", alertExchange, err)
	}

	log.Printf("declared alert exchange %s", alertExchange)
	return &AMQPMessenger{ch: ch}, nil
}

func (m *AMQPMessenger) SendAlert(ctx context.Context, payload AlertPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return m.ch.PublishWithContext(ctx, alertExchange, alertRoutingKey, false, false, amqp091.Publishing{
		ContentType: "application/json",
		Body:        body,
	})
}

func (m *AMQPMessenger) Close() error {
	return m.ch.Close()
}
