package provisioning

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"github.com/smallbiznis/bizhub/internal/eventbus"
	"github.com/smallbiznis/bizhub/internal/organisation/domain"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Coordinator tallies per-module initialization outcomes and flips the
// organisation to DB_INITIALIZED once no module remains PENDING. Each
// delivery runs in one transaction that first takes the organisation row
// lock: concurrent deliveries for the same organisation serialize there,
// so the PENDING count always sees every committed outcome and the final
// compare-and-set makes duplicates a no-op.
type Coordinator struct {
	db        *gorm.DB
	repo      domain.Repository
	validator domain.TransitionValidator
	log       *zap.Logger
}

func NewCoordinator(db *gorm.DB, repo domain.Repository, validator domain.TransitionValidator, log *zap.Logger) *Coordinator {
	return &Coordinator{
		db:        db,
		repo:      repo,
		validator: validator,
		log:       log.Named("provisioning.coordinator"),
	}
}

// Subscribe registers the coordinator's handler on the bus.
func (c *Coordinator) Subscribe(bus eventbus.Bus) {
	eventbus.SubscribeModuleInitialized(bus, c.HandleModuleInitialized)
}

// HandleModuleInitialized validates the payload, records the module's
// outcome by (organisation, name slug) and transitions the organisation
// when nothing is pending anymore. Malformed payloads are rejected
// without touching any row.
func (c *Coordinator) HandleModuleInitialized(ctx context.Context, evt eventbus.ModuleInitialized) error {
	state, err := parseModuleState(evt.State)
	if err != nil {
		return err
	}

	name := strings.TrimSpace(evt.Name)
	if name == "" {
		return domain.ErrInvalidModuleName
	}

	orgID, err := snowflake.ParseString(strings.TrimSpace(evt.OrganisationID))
	if err != nil {
		return domain.ErrInvalidOrganisation
	}

	nameSlug := slug.Make(name)

	return c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := c.repo.WithTx(tx)

		if err := repo.LockOrganisation(ctx, orgID); err != nil {
			return err
		}

		matched, err := repo.UpdateModuleState(ctx, orgID, nameSlug, state)
		if err != nil {
			return err
		}
		if !matched {
			return domain.ErrModuleNotFound
		}

		if state == domain.ModuleFailed {
			c.log.Warn("module initialization failed permanently",
				zap.String("organisation_id", orgID.String()),
				zap.String("module", nameSlug),
			)
		}

		pending, err := repo.CountPendingModules(ctx, orgID)
		if err != nil {
			return err
		}
		if pending > 0 {
			return nil
		}

		next, err := c.validator.Apply(ctx, domain.StateCreated, domain.EventModulesResolved)
		if err != nil {
			return err
		}

		changed, err := repo.TransitionState(ctx, orgID, domain.StateCreated, next)
		if err != nil {
			return err
		}
		if changed {
			c.log.Info("organisation database initialized",
				zap.String("organisation_id", orgID.String()),
			)
		}
		// Not changed means a concurrent or earlier delivery already
		// transitioned the organisation; re-delivery is a no-op.
		return nil
	})
}

func parseModuleState(raw string) (domain.ModuleState, error) {
	switch raw {
	case eventbus.ModuleStateSuccess:
		return domain.ModuleSuccess, nil
	case eventbus.ModuleStateFailed:
		return domain.ModuleFailed, nil
	default:
		return "", domain.ErrInvalidModuleState
	}
}
