package config

import "go.uber.org/fx"

// Module wires application configuration into the fx graph.
var Module = fx.Module("config",
	fx.Provide(Load),
	fx.Provide(NewModulesConfigHolder),
)
