package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"github.com/dmunteanu/supervision-service/internal/models"
)

type RabbitMQClient interface {
	PublishSessionCreated(ctx context.Context, event *models.SessionCreatedEvent) error
	PublishRequestDecided(ctx context.Context, event *models.RequestDecidedEvent) error
	Close() error
}

type rabbitMQClient struct {
	conn     *amqp091.Connection
	channel  *amqp091.Channel
	exchange string
	logger   zerolog.Logger
}

const (
	routingKeySessionCreated = "session.created"
	routingKeyRequestDecided = "request.decided"
)

func NewRabbitMQClient(url, exchange string, logger zerolog.Logger) (RabbitMQClient, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	err = channel.ExchangeDeclare(
		exchange, // name
		"topic",  // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	logger.Info().
		Str("exchange", exchange).
		Msg("Connected to RabbitMQ")

	return &rabbitMQClient{
		conn:     conn,
		channel:  channel,
		exchange: exchange,
		logger:   logger,
	}, nil
}

func (c *rabbitMQClient) publish(ctx context.Context, routingKey string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	publishCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = c.channel.PublishWithContext(
		publishCtx,
		c.exchange, // exchange
		routingKey, // routing key
		false,      // mandatory
		false,      // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now(),
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}

	return nil
}

func (c *rabbitMQClient) PublishSessionCreated(ctx context.Context, event *models.SessionCreatedEvent) error {
	if err := c.publish(ctx, routingKeySessionCreated, event); err != nil {
		return err
	}

	c.logger.Info().
		Str("session_id", event.SessionID).
		Str("professor_id", event.ProfessorID).
		Msg("Session created event published")

	return nil
}

func (c *rabbitMQClient) PublishRequestDecided(ctx context.Context, event *models.RequestDecidedEvent) error {
	if err := c.publish(ctx, routingKeyRequestDecided, event); err != nil {
		return err
	}

	c.logger.Info().
		Str("request_id", event.RequestID).
		Str("status", event.Status).
		Msg("Request decided event published")

	return nil
}

func (c *rabbitMQClient) Close() error {
	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			c.logger.Error().Err(err).Msg("Failed to close RabbitMQ channel")
		}
	}

	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			c.logger.Error().Err(err).Msg("Failed to close RabbitMQ connection")
		}
	}

	return nil
}
