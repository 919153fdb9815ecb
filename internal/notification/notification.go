// Package notification delivers best-effort order and payment events to
// downstream displays and messaging channels. Delivery failures are logged,
// never propagated to the transaction that produced the event.
package notification

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	EventOrderCreated     = "order.created"
	EventOrderStatus      = "order.status_changed"
	EventOrderCancelled   = "order.cancelled"
	EventPaymentCompleted = "payment.completed"
	EventPaymentRefunded  = "payment.refunded"
)

// Event is one notification to a recipient.
type Event struct {
	ID         string
	Type       string
	Recipient  snowflake.ID
	OrderNum   string
	Detail     map[string]any
	OccurredAt time.Time
}

// Sink is a delivery backend (kitchen display, SMS gateway, email).
type Sink interface {
	Deliver(ctx context.Context, event Event) error
}

type logSink struct {
	log *zap.Logger
}

func (s *logSink) Deliver(_ context.Context, event Event) error {
	s.log.Info("notification delivered",
		zap.String("event_id", event.ID),
		zap.String("type", event.Type),
		zap.String("recipient", event.Recipient.String()),
		zap.String("order_number", event.OrderNum),
	)
	return nil
}

// Dispatcher fans events out to the configured sink asynchronously.
type Dispatcher struct {
	log  *zap.Logger
	sink Sink
}

type Params struct {
	fx.In

	Log  *zap.Logger
	Sink Sink `optional:"true"`
}

func NewDispatcher(p Params) *Dispatcher {
	sink := p.Sink
	log := p.Log.Named("notification")
	if sink == nil {
		sink = &logSink{log: log}
	}
	return &Dispatcher{log: log, sink: sink}
}

// Notify dispatches the event in the background. It must only be called after
// the transaction that produced the event has committed.
func (d *Dispatcher) Notify(event Event) {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	go func() {
		defer func() {
			if r := recover(); r != nil {
				d.log.Error("notification sink panicked", zap.Any("panic", r))
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := d.sink.Deliver(ctx, event); err != nil {
			d.log.Warn("notification delivery failed",
				zap.String("event_id", event.ID),
				zap.String("type", event.Type),
				zap.Error(err),
			)
		}
	}()
}

var Module = fx.Module("notification",
	fx.Provide(NewDispatcher),
)
