package shop

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/bizhub/internal/clock"
	"github.com/smallbiznis/bizhub/internal/eventbus"
	"github.com/smallbiznis/bizhub/internal/tenantdb"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const defaultChannelCode = "online"

// Initializer seeds the storefront module for every new tenant database
// and reports the outcome on the bus, success or not.
type Initializer struct {
	bus   eventbus.Bus
	cache *tenantdb.Cache
	genID *snowflake.Node
	clk   clock.Clock
	log   *zap.Logger
}

func NewInitializer(bus eventbus.Bus, cache *tenantdb.Cache, genID *snowflake.Node, clk clock.Clock, log *zap.Logger) *Initializer {
	return &Initializer{
		bus:   bus,
		cache: cache,
		genID: genID,
		clk:   clk,
		log:   log.Named("shop.init"),
	}
}

func (i *Initializer) Subscribe() {
	eventbus.SubscribeDatabaseCreated(i.bus, i.handle)
}

func (i *Initializer) handle(ctx context.Context, evt eventbus.DatabaseCreated) error {
	state := eventbus.ModuleStateSuccess
	if err := i.initialize(ctx, evt.Name); err != nil {
		state = eventbus.ModuleStateFailed
		i.log.Error("shop initialization failed",
			zap.String("tenant", evt.Name),
			zap.String("organisation_id", evt.OrganisationID),
			zap.Error(err),
		)
	}

	return eventbus.PublishModuleInitialized(ctx, i.bus, eventbus.ModuleInitialized{
		Name:           ModuleName,
		OrganisationID: evt.OrganisationID,
		State:          state,
	})
}

func (i *Initializer) initialize(ctx context.Context, tenant string) error {
	conn, err := i.cache.Acquire(ctx, tenant)
	if err != nil {
		return err
	}

	now := i.clk.Now()
	return conn.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var settings Settings
		err := tx.
			Attrs(Settings{
				ID:          i.genID.Generate(),
				DisplayName: tenant,
				CreatedAt:   now,
				UpdatedAt:   now,
			}).
			FirstOrCreate(&settings, Settings{}).Error
		if err != nil {
			return err
		}

		return tx.
			Where(SalesChannel{Code: defaultChannelCode}).
			Attrs(SalesChannel{
				ID:        i.genID.Generate(),
				Name:      "Online shop",
				CreatedAt: now,
				UpdatedAt: now,
			}).
			FirstOrCreate(&SalesChannel{}).Error
	})
}
