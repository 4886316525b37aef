package tenantdb

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/smallbiznis/bizhub/pkg/db"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// AdminConnector is a short-lived administrative session used only for
// tenant database DDL. It is opened and closed around each provisioning
// operation, never held across them.
type AdminConnector interface {
	Exec(ctx context.Context, stmt string) error
	Close() error
}

// AdminConnectorFactory opens a fresh administrative session.
type AdminConnectorFactory func(ctx context.Context) (AdminConnector, error)

type gormAdminConnector struct {
	conn *gorm.DB
}

func (c *gormAdminConnector) Exec(ctx context.Context, stmt string) error {
	return c.conn.WithContext(ctx).Exec(stmt).Error
}

func (c *gormAdminConnector) Close() error {
	return closeConn(c.conn)
}

// PostgresAdminConnectors opens admin sessions against the maintenance
// database (usually "postgres") on the admin server.
func PostgresAdminConnectors(adminDSN string) AdminConnectorFactory {
	return func(ctx context.Context) (AdminConnector, error) {
		_ = ctx
		conn, err := gorm.Open(postgres.Open(adminDSN), &gorm.Config{})
		if err != nil {
			return nil, fmt.Errorf("open admin connection: %w", err)
		}
		return &gormAdminConnector{conn: conn}, nil
	}
}

// Identifiers are always quoted in DDL, so a leading digit (snowflake
// organisation ids) is acceptable.
var databaseNamePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

// Provisioner creates and drops tenant databases. Every operation opens
// its own admin session and releases it on all exit paths.
type Provisioner struct {
	connect AdminConnectorFactory
	cache   *Cache
	log     *zap.Logger
}

func NewProvisioner(connect AdminConnectorFactory, cache *Cache, log *zap.Logger) *Provisioner {
	return &Provisioner{
		connect: connect,
		cache:   cache,
		log:     log.Named("tenantdb.provisioner"),
	}
}

// CreateTenantDatabase creates the database and immediately acquires the
// tenant connection so the schema is migrated before anyone else looks
// for it. A database that already exists is a failure: it means a prior
// provisioning attempt with an unknown outcome.
func (p *Provisioner) CreateTenantDatabase(ctx context.Context, name string) error {
	key, err := normalizeDatabaseName(name)
	if err != nil {
		return err
	}

	admin, err := p.connect(ctx)
	if err != nil {
		return &DatabaseCreationError{Name: key, Err: err}
	}
	defer p.closeAdmin(admin)

	if err := admin.Exec(ctx, fmt.Sprintf("CREATE DATABASE %q", key)); err != nil {
		if db.IsDuplicateDatabaseErr(err) {
			// A leftover database means a prior attempt whose outcome is
			// unknown; surfacing it keeps the operator in the loop.
			p.log.Warn("tenant database already exists", zap.String("name", key))
		}
		return &DatabaseCreationError{Name: key, Err: err}
	}

	if _, err := p.cache.Acquire(ctx, key); err != nil {
		return &DatabaseCreationError{Name: key, Err: err}
	}

	p.log.Info("tenant database created", zap.String("name", key))
	return nil
}

// DropTenantDatabase removes the database if it exists and evicts the
// cached connection. Dropping an unknown tenant is not an error.
func (p *Provisioner) DropTenantDatabase(ctx context.Context, name string) error {
	key, err := normalizeDatabaseName(name)
	if err != nil {
		return err
	}

	admin, err := p.connect(ctx)
	if err != nil {
		return fmt.Errorf("drop tenant database %s: %w", key, err)
	}
	defer p.closeAdmin(admin)

	if err := admin.Exec(ctx, fmt.Sprintf("DROP DATABASE IF EXISTS %q", key)); err != nil {
		return fmt.Errorf("drop tenant database %s: %w", key, err)
	}

	if err := p.cache.Evict(key); err != nil {
		return fmt.Errorf("evict tenant %s: %w", key, err)
	}

	p.log.Info("tenant database dropped", zap.String("name", key))
	return nil
}

func (p *Provisioner) closeAdmin(admin AdminConnector) {
	if err := admin.Close(); err != nil {
		p.log.Warn("failed to close admin connection", zap.Error(err))
	}
}

func normalizeDatabaseName(name string) (string, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return "", ErrEmptyTenantID
	}
	if !databaseNamePattern.MatchString(key) {
		return "", fmt.Errorf("%w: %q", ErrInvalidTenantName, name)
	}
	return key, nil
}
