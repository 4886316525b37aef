// Package provisioning wires the event-driven workflow that takes an
// organisation from first sign-up to a fully initialized tenant database.
package provisioning

import (
	"context"
	"strings"

	"github.com/smallbiznis/bizhub/internal/eventbus"
	"github.com/smallbiznis/bizhub/internal/organisation/domain"
	"github.com/smallbiznis/bizhub/internal/tenantdb"
	"go.uber.org/zap"
)

// Handlers reacts to user registrations and organisation creations.
// Failures are logged by the bus and never retried here: a stuck
// organisation is left for an external reconciliation process.
type Handlers struct {
	bus     eventbus.Bus
	orgs    domain.Service
	tenants *tenantdb.Provisioner
	log     *zap.Logger
}

func NewHandlers(bus eventbus.Bus, orgs domain.Service, tenants *tenantdb.Provisioner, log *zap.Logger) *Handlers {
	return &Handlers{
		bus:     bus,
		orgs:    orgs,
		tenants: tenants,
		log:     log.Named("provisioning"),
	}
}

// Register subscribes the saga entry points on the bus.
func (h *Handlers) Register() {
	eventbus.SubscribeUserCreated(h.bus, h.handleUserCreated)
	eventbus.SubscribeOrganisationCreated(h.bus, h.handleOrganisationCreated)
}

func (h *Handlers) handleUserCreated(ctx context.Context, evt eventbus.UserCreated) error {
	_, err := h.orgs.CreateForUser(ctx, domain.NewUser{
		ID:    evt.ID,
		Email: evt.Email,
		Name:  evt.Name,
	})
	return err
}

// handleOrganisationCreated provisions the tenant database and announces
// it. The database name is derived from the organisation identifier;
// database-created is only published once the database is confirmed
// created and migrated.
func (h *Handlers) handleOrganisationCreated(ctx context.Context, evt eventbus.OrganisationCreated) error {
	orgID := strings.TrimSpace(evt.ID)
	if orgID == "" {
		return domain.ErrInvalidOrganisation
	}

	name := strings.ToLower(orgID)
	if err := h.tenants.CreateTenantDatabase(ctx, name); err != nil {
		return err
	}

	h.log.Info("tenant database provisioned",
		zap.String("organisation_id", orgID),
		zap.String("database", name),
	)

	return eventbus.PublishDatabaseCreated(ctx, h.bus, eventbus.DatabaseCreated{
		Name:           name,
		OrganisationID: orgID,
	})
}
