package eventbus

import (
	"context"
	"sync"

	redis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisBus is the Redis pub/sub Bus used when modules run as separate
// processes. One receive loop per channel fans messages out to every
// locally registered handler.
type RedisBus struct {
	client *redis.Client

	mu   sync.Mutex
	subs map[string]*redisChannel

	log     *zap.Logger
	metrics *Metrics

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

type redisChannel struct {
	mu       sync.RWMutex
	handlers []Handler
	pubsub   *redis.PubSub
}

func NewRedisBus(client *redis.Client, log *zap.Logger, metrics *Metrics) *RedisBus {
	ctx, cancel := context.WithCancel(context.Background())
	return &RedisBus{
		client:  client,
		subs:    make(map[string]*redisChannel),
		log:     log.Named("eventbus.redis"),
		metrics: metrics,
		ctx:     ctx,
		cancel:  cancel,
	}
}

func (b *RedisBus) Publish(ctx context.Context, channel string, payload []byte) error {
	if err := b.client.Publish(ctx, channel, payload).Err(); err != nil {
		return err
	}
	b.metrics.Published.WithLabelValues(channel).Inc()
	return nil
}

func (b *RedisBus) Subscribe(channel string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub, ok := b.subs[channel]
	if ok {
		sub.mu.Lock()
		sub.handlers = append(sub.handlers, handler)
		sub.mu.Unlock()
		return
	}

	sub = &redisChannel{
		handlers: []Handler{handler},
		pubsub:   b.client.Subscribe(b.ctx, channel),
	}
	b.subs[channel] = sub

	b.wg.Add(1)
	go b.receive(channel, sub)
}

func (b *RedisBus) receive(channel string, sub *redisChannel) {
	defer b.wg.Done()

	for msg := range sub.pubsub.Channel() {
		payload := []byte(msg.Payload)

		sub.mu.RLock()
		handlers := append([]Handler(nil), sub.handlers...)
		sub.mu.RUnlock()

		for _, handler := range handlers {
			b.wg.Add(1)
			go func(h Handler) {
				defer b.wg.Done()
				dispatch(b.log, b.metrics, h, payload, channel)
			}(handler)
		}
	}
}

// Close tears down all subscriptions and waits for in-flight handlers.
// The redis client itself is owned by the caller.
func (b *RedisBus) Close() error {
	b.cancel()

	b.mu.Lock()
	for _, sub := range b.subs {
		_ = sub.pubsub.Close()
	}
	b.mu.Unlock()

	b.wg.Wait()
	return nil
}
