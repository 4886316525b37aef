package catalog

import (
	"github.com/smallbiznis/bizhub/internal/tenantdb"
	"go.uber.org/fx"
)

var Module = fx.Module("catalog",
	fx.Provide(NewInitializer),
	fx.Invoke(func(registry *tenantdb.Registry, ini *Initializer) error {
		if err := registry.Register(Entities()...); err != nil {
			return err
		}
		ini.Subscribe()
		return nil
	}),
)
