package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/bizhub/internal/clock"
	"github.com/smallbiznis/bizhub/internal/organisation/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repository struct {
	db  *gorm.DB
	clk clock.Clock
}

func NewRepository(db *gorm.DB, clk clock.Clock) domain.Repository {
	return &repository{db: db, clk: clk}
}

func (r *repository) WithTx(tx *gorm.DB) domain.Repository {
	return &repository{db: tx, clk: r.clk}
}

// LockOrganisation issues SELECT ... FOR UPDATE on the organisation row.
// sqlite has a single writer and rejects the FOR UPDATE syntax, so the
// locking clause is postgres-only.
func (r *repository) LockOrganisation(ctx context.Context, orgID snowflake.ID) error {
	tx := r.db.WithContext(ctx)
	if r.db.Dialector.Name() == "postgres" {
		tx = tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var org domain.Organisation
	err := tx.Select("id").Take(&org, "id = ?", orgID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ErrOrganisationNotFound
	}
	return err
}

func (r *repository) CreateOrganisation(ctx context.Context, org domain.Organisation) error {
	return r.db.WithContext(ctx).Omit("Members", "Modules").Create(&org).Error
}

func (r *repository) AddMember(ctx context.Context, member domain.OrganisationMember) error {
	return r.db.WithContext(ctx).Create(&member).Error
}

func (r *repository) CreateModules(ctx context.Context, modules []domain.OrganisationModule) error {
	if len(modules) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&modules).Error
}

func (r *repository) FindByID(ctx context.Context, id snowflake.ID) (*domain.Organisation, error) {
	var org domain.Organisation
	err := r.db.WithContext(ctx).
		Preload("Modules").
		First(&org, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrOrganisationNotFound
	}
	if err != nil {
		return nil, err
	}
	return &org, nil
}

func (r *repository) FindByOwnerAndSlug(ctx context.Context, ownerID, slug string) (*domain.Organisation, error) {
	var org domain.Organisation
	err := r.db.WithContext(ctx).
		Preload("Modules").
		First(&org, "owner_id = ? AND slug = ?", ownerID, slug).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrOrganisationNotFound
	}
	if err != nil {
		return nil, err
	}
	return &org, nil
}

func (r *repository) CountByOwner(ctx context.Context, ownerID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.Organisation{}).
		Where("owner_id = ?", ownerID).
		Count(&count).Error
	return count, err
}

func (r *repository) UpdateModuleState(ctx context.Context, orgID snowflake.ID, nameSlug string, state domain.ModuleState) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&domain.OrganisationModule{}).
		Where("org_id = ? AND name_slug = ?", orgID, nameSlug).
		Updates(map[string]any{
			"state":      state,
			"updated_at": r.clk.Now(),
		})
	return res.RowsAffected > 0, res.Error
}

func (r *repository) CountPendingModules(ctx context.Context, orgID snowflake.ID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.OrganisationModule{}).
		Where("org_id = ? AND state = ?", orgID, domain.ModulePending).
		Count(&count).Error
	return count, err
}

func (r *repository) TransitionState(ctx context.Context, orgID snowflake.ID, from, to domain.State) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&domain.Organisation{}).
		Where("id = ? AND state = ?", orgID, from).
		Updates(map[string]any{
			"state":      to,
			"updated_at": r.clk.Now(),
		})
	return res.RowsAffected > 0, res.Error
}
