package db

import (
	"backend-fleetwatch/internal/config"

	"github.com/rabbitmq/amqp091-go"
)

// ConnectAMQP dials the message broker used for alert fan-out. An empty URL
// means the deployment runs without a broker; callers treat a nil connection
// as "messaging channel unavailable".
func ConnectAMQP(cfg config.Config) (*amqp091.Connection, error) {
	if cfg.AMQPURL == "" {
		return nil, nil
	}
	return amqp091.Dial(cfg.AMQPURL)
}
