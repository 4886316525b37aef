package tenantdb

import (
	"context"
	"fmt"

	"github.com/smallbiznis/bizhub/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func newDialectors(cfg config.Config) DialectorFactory {
	return PostgresDialectors(cfg.AdminDatabaseURL)
}

func newAdminConnectors(cfg config.Config) AdminConnectorFactory {
	return PostgresAdminConnectors(fmt.Sprintf("%s/%s", cfg.AdminDatabaseURL, cfg.AdminDatabaseName))
}

func registerHooks(lc fx.Lifecycle, cache *Cache, log *zap.Logger) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			_ = ctx
			if err := cache.EvictAll(); err != nil {
				log.Warn("failed to close tenant connections", zap.Error(err))
			}
			return nil
		},
	})
}

var Module = fx.Module("tenantdb",
	fx.Provide(NewRegistry),
	fx.Provide(newDialectors),
	fx.Provide(NewCache),
	fx.Provide(newAdminConnectors),
	fx.Provide(NewProvisioner),
	fx.Invoke(registerHooks),
)
