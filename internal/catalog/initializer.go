package catalog

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/bizhub/internal/clock"
	"github.com/smallbiznis/bizhub/internal/eventbus"
	"github.com/smallbiznis/bizhub/internal/tenantdb"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const defaultCategoryName = "General"

// Initializer reacts to new tenant databases by seeding the catalog
// module and reporting the outcome. The outcome event is published on
// success and on failure; a broken seed must not leave the organisation
// waiting forever.
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
		log:   log.Named("catalog.init"),
	}
}

// Subscribe registers the module's database-created handler on the bus.
func (i *Initializer) Subscribe() {
	eventbus.SubscribeDatabaseCreated(i.bus, i.handle)
}

func (i *Initializer) handle(ctx context.Context, evt eventbus.DatabaseCreated) error {
	state := eventbus.ModuleStateSuccess
	if err := i.initialize(ctx, evt.Name); err != nil {
		state = eventbus.ModuleStateFailed
		i.log.Error("catalog initialization failed",
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
		// FirstOrCreate keeps re-delivered events from duplicating the seed.
		return tx.
			Where(Category{Name: defaultCategoryName}).
			Attrs(Category{
				ID:        i.genID.Generate(),
				IsDefault: true,
				CreatedAt: now,
				UpdatedAt: now,
			}).
			FirstOrCreate(&Category{}).Error
	})
}
