package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	WithTx(tx *gorm.DB) Repository
	// LockOrganisation takes the per-organisation row lock. Concurrent
	// module-outcome transactions must serialize on it before counting
	// PENDING rows, otherwise two of them can each miss the other's
	// uncommitted update and both skip the final transition.
	LockOrganisation(ctx context.Context, orgID snowflake.ID) error
	CreateOrganisation(ctx context.Context, org Organisation) error
	AddMember(ctx context.Context, member OrganisationMember) error
	CreateModules(ctx context.Context, modules []OrganisationModule) error
	FindByID(ctx context.Context, id snowflake.ID) (*Organisation, error)
	FindByOwnerAndSlug(ctx context.Context, ownerID, slug string) (*Organisation, error)
	CountByOwner(ctx context.Context, ownerID string) (int64, error)
	// UpdateModuleState sets the state of the module row identified by
	// (orgID, nameSlug) and reports whether a row matched.
	UpdateModuleState(ctx context.Context, orgID snowflake.ID, nameSlug string, state ModuleState) (bool, error)
	CountPendingModules(ctx context.Context, orgID snowflake.ID) (int64, error)
	// TransitionState is a compare-and-set: it moves the organisation
	// from `from` to `to` and reports whether the row changed. A false
	// result means the organisation was not in `from` anymore.
	TransitionState(ctx context.Context, orgID snowflake.ID, from, to State) (bool, error)
}
