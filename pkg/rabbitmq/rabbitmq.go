// Package rabbitmq publishes and consumes JSON domain events over AMQP.
package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"keranjang/internal/logger"

	amqp "github.com/streadway/amqp"
)

// DefaultQueue is used when Config.Queue is empty.
const DefaultQueue = "cart_events"

// Client holds the RabbitMQ connection and channel.
type Client struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   string
	logger  *slog.Logger

	// amqp channels are not safe for concurrent publishes
	mu sync.Mutex
}

// Config holds RabbitMQ connection details.
type Config struct {
	URL        string
	Queue      string
	Retries    int
	RetryDelay time.Duration
}

// NewClient connects to RabbitMQ, opens a channel and declares the durable
// events queue. The dial is attempted cfg.Retries times.
func NewClient(cfg Config, log *slog.Logger) (*Client, error) {
	if cfg.Queue == "" {
		cfg.Queue = DefaultQueue
	}
	if cfg.Retries < 1 {
		cfg.Retries = 1
	}

	var (
		conn *amqp.Connection
		err  error
	)
	for attempt := 1; attempt <= cfg.Retries; attempt++ {
		conn, err = amqp.Dial(cfg.URL)
		if err == nil {
			break
		}
		if attempt < cfg.Retries {
			time.Sleep(cfg.RetryDelay)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	_, err = ch.QueueDeclare(
		cfg.Queue, // name
		true,      // durable
		false,     // delete when unused
		false,     // exclusive
		false,     // no-wait
		nil,       // arguments
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare %s: %w", cfg.Queue, err)
	}

	log = log.With(slog.String("component", "rabbitmq"), slog.String("queue", cfg.Queue))
	log.Info("RabbitMQ client connected")

	return &Client{
		conn:    conn,
		channel: ch,
		queue:   cfg.Queue,
		logger:  log,
	}, nil
}

// Queue returns the name of the declared events queue.
func (c *Client) Queue() string {
	return c.queue
}

// Close closes the RabbitMQ connection and channel.
func (c *Client) Close() error {
	var errs []error
	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close channel: %w", err))
		}
	}
	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close connection: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Publish marshals payload to JSON and sends it to the events queue as a
// persistent message. routingKey travels in the message type so consumers of
// the single queue can tell events apart.
func (c *Client) Publish(ctx context.Context, routingKey string, payload any) error {
	if c.channel == nil {
		return fmt.Errorf("RabbitMQ channel is not available")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal %s event: %w", routingKey, err)
	}

	c.mu.Lock()
	err = c.channel.Publish(
		"",      // default exchange
		c.queue, // routed straight to the queue
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Type:         routingKey,
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
		})
	c.mu.Unlock()
	if err != nil {
		return fmt.Errorf("failed to publish %s event: %w", routingKey, err)
	}

	c.logger.Debug("event published", slog.String("type", routingKey))
	return nil
}

// Consume starts a goroutine delivering messages of the events queue to
// handler. Messages are acked on success and requeued once on failure; a
// message that fails again after redelivery is dropped.
func (c *Client) Consume(handler func(msg amqp.Delivery) error) error {
	if c.channel == nil {
		return fmt.Errorf("RabbitMQ channel is not available for consumption")
	}

	msgs, err := c.channel.Consume(
		c.queue, // queue
		"",      // consumer tag
		false,   // auto-ack
		false,   // exclusive
		false,   // no-local
		false,   // no-wait
		nil,     // args
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	go func() {
		for msg := range msgs {
			if err := handler(msg); err != nil {
				c.logger.Warn("failed to process message",
					slog.Uint64("delivery_tag", msg.DeliveryTag),
					slog.String("type", msg.Type),
					slog.Bool("redelivered", msg.Redelivered),
					logger.Err(err))
				if nackErr := msg.Nack(false, !msg.Redelivered); nackErr != nil {
					c.logger.Error("failed to nack message", logger.Err(nackErr))
				}
				continue
			}
			if ackErr := msg.Ack(false); ackErr != nil {
				c.logger.Error("failed to ack message", logger.Err(ackErr))
			}
		}
		c.logger.Info("consumer stopped")
	}()

	return nil
}
