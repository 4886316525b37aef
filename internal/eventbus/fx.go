package eventbus

import (
	"context"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/bizhub/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func NewDefaultMetrics() *Metrics {
	return NewMetrics(prometheus.DefaultRegisterer)
}

// NewBus selects the transport from configuration and ties its shutdown
// to the application lifecycle.
func NewBus(lc fx.Lifecycle, cfg config.Config, log *zap.Logger, metrics *Metrics) (Bus, error) {
	if cfg.Bus == config.BusMemory {
		bus := NewMemoryBus(log, metrics)
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				_ = ctx
				bus.Close()
				return nil
			},
		})
		return bus, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     strings.TrimSpace(cfg.RedisAddr),
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	bus := NewRedisBus(client, log, metrics)
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			_ = ctx
			if err := bus.Close(); err != nil {
				return err
			}
			return client.Close()
		},
	})
	return bus, nil
}

var Module = fx.Module("eventbus",
	fx.Provide(NewDefaultMetrics),
	fx.Provide(NewBus),
)
