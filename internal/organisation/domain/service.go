package domain

import (
	"context"
	"errors"
)

// NewUser is the registered-user record the organisation service reacts to.
type NewUser struct {
	ID    string
	Email string
	Name  string
}

type Service interface {
	// CreateForUser creates the user's default organisation with one
	// PENDING module row per configured platform module, or reuses the
	// existing organisation keyed by (owner, slug). It announces the
	// organisation on the bus either way, so a re-delivered registration
	// event re-triggers provisioning instead of being lost.
	CreateForUser(ctx context.Context, user NewUser) (*Organisation, error)
}

var (
	ErrInvalidUser          = errors.New("invalid_user")
	ErrInvalidModuleState   = errors.New("invalid_module_state")
	ErrInvalidModuleName    = errors.New("invalid_module_name")
	ErrInvalidOrganisation  = errors.New("invalid_organisation")
	ErrModuleNotFound       = errors.New("module_not_found")
	ErrOrganisationNotFound = errors.New("organisation_not_found")
)
