// Package eventbus carries the publish/subscribe primitive that decouples
// provisioning steps from the modules reacting to them. Delivery is
// at-least-once and unordered across channels; every consumer must be
// idempotent with respect to its channel's semantics.
package eventbus

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

// Handler consumes one raw message from a channel. A non-nil error is
// logged by the bus and never interrupts delivery to other subscribers.
type Handler func(ctx context.Context, payload []byte, channel string) error

// Bus is the transport contract. Publish returns once the broker accepted
// the message, not once subscribers processed it. Each Subscribe call
// registers an independent handler; all handlers on a channel receive
// every message.
type Bus interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(channel string, handler Handler)
}

// Envelope is the wire format for every channel: `{"data": <payload>}`.
type Envelope[T any] struct {
	Data T `json:"data"`
}

var ErrBusClosed = errors.New("event bus closed")

// dispatch runs one handler for one message, containing panics and
// recording the outcome. Shared by every Bus implementation.
func dispatch(log *zap.Logger, metrics *Metrics, handler Handler, payload []byte, channel string) {
	defer func() {
		if r := recover(); r != nil {
			metrics.HandlerFailures.WithLabelValues(channel).Inc()
			log.Error("event handler panicked",
				zap.String("channel", channel),
				zap.Any("panic", r),
			)
		}
	}()

	if err := handler(context.Background(), payload, channel); err != nil {
		metrics.HandlerFailures.WithLabelValues(channel).Inc()
		log.Warn("event handler failed",
			zap.String("channel", channel),
			zap.Error(err),
		)
		return
	}

	metrics.Delivered.WithLabelValues(channel).Inc()
}
