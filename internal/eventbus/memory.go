package eventbus

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// MemoryBus is an in-process Bus used in single-node deployments and
// tests. Handlers run on their own goroutines so a slow or failing
// subscriber never blocks the publisher or its siblings.
type MemoryBus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	closed   bool

	log     *zap.Logger
	metrics *Metrics

	wg sync.WaitGroup
}

func NewMemoryBus(log *zap.Logger, metrics *Metrics) *MemoryBus {
	return &MemoryBus{
		handlers: make(map[string][]Handler),
		log:      log.Named("eventbus.memory"),
		metrics:  metrics,
	}
}

func (b *MemoryBus) Publish(ctx context.Context, channel string, payload []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	// The closed check and wg.Add happen under the same lock Close takes
	// exclusively, so no dispatch goroutine can start once Close's Wait
	// begins.
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return ErrBusClosed
	}
	handlers := append([]Handler(nil), b.handlers[channel]...)
	b.wg.Add(len(handlers))
	b.mu.RUnlock()

	b.metrics.Published.WithLabelValues(channel).Inc()

	for _, handler := range handlers {
		go func(h Handler) {
			defer b.wg.Done()
			dispatch(b.log, b.metrics, h, payload, channel)
		}(handler)
	}

	return nil
}

func (b *MemoryBus) Subscribe(channel string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[channel] = append(b.handlers[channel], handler)
}

// Close stops accepting publishes and waits for in-flight handlers.
func (b *MemoryBus) Close() {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()
	b.wg.Wait()
}
