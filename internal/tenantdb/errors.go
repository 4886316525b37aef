package tenantdb

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyTenantID     = errors.New("tenant identifier is required")
	ErrInvalidTenantName = errors.New("invalid tenant database name")
	ErrRegistryFrozen    = errors.New("entity registry is frozen")
)

// DatabaseCreationError reports a failed tenant database provisioning
// attempt. Creation is not idempotent: an "already exists" failure means
// a prior attempt with an unknown outcome and is propagated, not swallowed.
type DatabaseCreationError struct {
	Name string
	Err  error
}

func (e *DatabaseCreationError) Error() string {
	return fmt.Sprintf("create tenant database %s: %v", e.Name, e.Err)
}

func (e *DatabaseCreationError) Unwrap() error {
	return e.Err
}
