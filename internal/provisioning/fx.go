package provisioning

import (
	"github.com/smallbiznis/bizhub/internal/eventbus"
	"go.uber.org/fx"
)

var Module = fx.Module("provisioning",
	fx.Provide(NewHandlers),
	fx.Provide(NewCoordinator),
	fx.Invoke(func(handlers *Handlers, coordinator *Coordinator, bus eventbus.Bus) {
		handlers.Register()
		coordinator.Subscribe(bus)
	}),
)
