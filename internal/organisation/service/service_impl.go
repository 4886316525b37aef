package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"github.com/smallbiznis/bizhub/internal/clock"
	"github.com/smallbiznis/bizhub/internal/config"
	"github.com/smallbiznis/bizhub/internal/eventbus"
	"github.com/smallbiznis/bizhub/internal/organisation/domain"
	"github.com/smallbiznis/bizhub/pkg/db"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type service struct {
	db      *gorm.DB
	repo    domain.Repository
	modules *config.ModulesConfigHolder
	genID   *snowflake.Node
	bus     eventbus.Bus
	clk     clock.Clock
	log     *zap.Logger
}

func NewService(
	db *gorm.DB,
	repo domain.Repository,
	modules *config.ModulesConfigHolder,
	genID *snowflake.Node,
	bus eventbus.Bus,
	clk clock.Clock,
	log *zap.Logger,
) domain.Service {
	return &service{
		db:      db,
		repo:    repo,
		modules: modules,
		genID:   genID,
		bus:     bus,
		clk:     clk,
		log:     log.Named("organisation.service"),
	}
}

func (s *service) CreateForUser(ctx context.Context, user domain.NewUser) (*domain.Organisation, error) {
	ownerID := strings.TrimSpace(user.ID)
	if ownerID == "" {
		return nil, domain.ErrInvalidUser
	}

	name := defaultOrganisationName(user)
	slugValue := slug.Make(name)

	org, err := s.repo.FindByOwnerAndSlug(ctx, ownerID, slugValue)
	switch {
	case err == nil:
		// Re-delivered registration event: reuse and re-announce.
	case errors.Is(err, domain.ErrOrganisationNotFound):
		org, err = s.create(ctx, ownerID, name, slugValue)
		if db.IsDuplicateKeyErr(err) {
			// Lost a race with a concurrent delivery of the same event.
			org, err = s.repo.FindByOwnerAndSlug(ctx, ownerID, slugValue)
		}
		if err != nil {
			return nil, err
		}
	default:
		return nil, err
	}

	count, err := s.repo.CountByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	if err := s.announce(ctx, org, count <= 1); err != nil {
		return nil, err
	}
	return org, nil
}

func (s *service) create(ctx context.Context, ownerID, name, slugValue string) (*domain.Organisation, error) {
	now := s.clk.Now()
	org := domain.Organisation{
		ID:        s.genID.Generate(),
		Name:      name,
		Slug:      slugValue,
		OwnerID:   ownerID,
		State:     domain.StateCreated,
		CreatedAt: now,
		UpdatedAt: now,
	}

	modules := make([]domain.OrganisationModule, 0, len(s.modules.Get().Modules))
	for _, moduleName := range s.modules.Get().Modules {
		modules = append(modules, domain.OrganisationModule{
			ID:        s.genID.Generate(),
			OrgID:     org.ID,
			Name:      moduleName,
			NameSlug:  slug.Make(moduleName),
			State:     domain.ModulePending,
			CreatedAt: now,
			UpdatedAt: now,
		})
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.CreateOrganisation(ctx, org); err != nil {
			return err
		}

		member := domain.OrganisationMember{
			ID:        s.genID.Generate(),
			OrgID:     org.ID,
			UserID:    ownerID,
			Role:      domain.RoleOwner,
			CreatedAt: now,
		}
		if err := repo.AddMember(ctx, member); err != nil {
			return err
		}

		return repo.CreateModules(ctx, modules)
	})
	if err != nil {
		return nil, err
	}

	org.Modules = modules
	s.log.Info("organisation created",
		zap.String("organisation_id", org.ID.String()),
		zap.String("owner_id", ownerID),
		zap.Int("modules", len(modules)),
	)
	return &org, nil
}

func (s *service) announce(ctx context.Context, org *domain.Organisation, isFirst bool) error {
	return eventbus.PublishOrganisationCreated(ctx, s.bus, eventbus.OrganisationCreated{
		ID:      org.ID.String(),
		Name:    org.Name,
		Slug:    org.Slug,
		OwnerID: org.OwnerID,
		State:   string(org.State),
		IsFirst: isFirst,
	})
}

func defaultOrganisationName(user domain.NewUser) string {
	name := strings.TrimSpace(user.Name)
	if name == "" {
		name = ownerFromEmail(user.Email)
	}
	if name == "" {
		name = strings.TrimSpace(user.ID)
	}
	return fmt.Sprintf("%s workspace", name)
}

func ownerFromEmail(email string) string {
	local, _, _ := strings.Cut(strings.TrimSpace(email), "@")
	return local
}
