package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/bizhub/internal/catalog"
	"github.com/smallbiznis/bizhub/internal/clock"
	"github.com/smallbiznis/bizhub/internal/config"
	"github.com/smallbiznis/bizhub/internal/eventbus"
	"github.com/smallbiznis/bizhub/internal/logger"
	"github.com/smallbiznis/bizhub/internal/migration"
	"github.com/smallbiznis/bizhub/internal/observability"
	"github.com/smallbiznis/bizhub/internal/organisation"
	"github.com/smallbiznis/bizhub/internal/provisioning"
	"github.com/smallbiznis/bizhub/internal/shop"
	"github.com/smallbiznis/bizhub/internal/tenantdb"
	"github.com/smallbiznis/bizhub/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core infrastructure
		config.Module,
		logger.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,
		eventbus.Module,
		tenantdb.Module,
		observability.Module,

		// Functional domains
		organisation.Module,
		catalog.Module,
		shop.Module,
		provisioning.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
