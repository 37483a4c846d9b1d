package services

import (
	"context"
	"log/slog"
	"time"

	"keranjang/internal/logger"
	"keranjang/internal/metrics"
)

// Routing keys of the domain events.
const (
	EventUserRegistered  = "user.registered"
	EventCartItemAdded   = "cart.item_added"
	EventCartItemUpdated = "cart.item_updated"
	EventCartItemRemoved = "cart.item_removed"
)

// EventPublisher hands domain events to a message broker.
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, payload any) error
}

// Event is the JSON body of every published domain event.
type Event struct {
	Type       string    `json:"type"`
	UserID     string    `json:"userId"`
	ProductID  string    `json:"productId,omitempty"`
	Quantity   int       `json:"quantity,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

// Option customises a service at construction time.
type Option func(*serviceOptions)

type serviceOptions struct {
	events  EventPublisher
	metrics *metrics.Metrics
}

// WithEventPublisher makes the service publish domain events to p.
func WithEventPublisher(p EventPublisher) Option {
	return func(o *serviceOptions) { o.events = p }
}

// WithMetrics makes the service record outcome counters on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *serviceOptions) { o.metrics = m }
}

func applyOptions(opts []Option) serviceOptions {
	var o serviceOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// publish never fails the calling operation; broker trouble is logged.
func (o serviceOptions) publish(ctx context.Context, log *slog.Logger, evt Event) {
	if o.events == nil {
		return
	}
	evt.OccurredAt = time.Now().UTC()
	if err := o.events.Publish(ctx, evt.Type, evt); err != nil {
		log.Warn("failed to publish event", slog.String("type", evt.Type), slog.String("user_id", evt.UserID), logger.Err(err))
		o.metrics.ObserveEvent(evt.Type, "error")
		return
	}
	o.metrics.ObserveEvent(evt.Type, "success")
}
