package tenantdb

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// DialectorFactory builds the gorm dialector for one tenant database.
type DialectorFactory func(name string) gorm.Dialector

// PostgresDialectors targets <baseURL>/<tenant> on the admin server.
func PostgresDialectors(baseURL string) DialectorFactory {
	base := strings.TrimRight(baseURL, "/")
	return func(name string) gorm.Dialector {
		return postgres.Open(fmt.Sprintf("%s/%s", base, name))
	}
}

// Cache maps tenant identifiers to live, migrated database handles.
// A handle that leaves Acquire is guaranteed to have the full registry
// schema applied. Entries live until explicit eviction or shutdown.
type Cache struct {
	dialectors DialectorFactory
	registry   *Registry
	log        *zap.Logger

	mu    sync.RWMutex
	conns map[string]*gorm.DB
	group singleflight.Group
}

func NewCache(dialectors DialectorFactory, registry *Registry, log *zap.Logger) *Cache {
	return &Cache{
		dialectors: dialectors,
		registry:   registry,
		log:        log.Named("tenantdb.cache"),
		conns:      make(map[string]*gorm.DB),
	}
}

// Acquire returns the cached connection for the tenant, creating and
// migrating it on first use. Concurrent first-time acquisitions for the
// same tenant share a single initialization; all callers receive the
// same handle.
func (c *Cache) Acquire(ctx context.Context, tenantID string) (*gorm.DB, error) {
	key := normalizeTenantID(tenantID)
	if key == "" {
		return nil, ErrEmptyTenantID
	}

	c.mu.RLock()
	conn, ok := c.conns[key]
	c.mu.RUnlock()
	if ok {
		return conn, nil
	}

	value, err, _ := c.group.Do(key, func() (any, error) {
		c.mu.RLock()
		existing, ok := c.conns[key]
		c.mu.RUnlock()
		if ok {
			return existing, nil
		}

		created, err := c.open(ctx, key)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.conns[key] = created
		c.mu.Unlock()

		c.log.Info("tenant datasource initialized", zap.String("tenant", key))
		return created, nil
	})
	if err != nil {
		return nil, err
	}

	return value.(*gorm.DB), nil
}

func (c *Cache) open(ctx context.Context, key string) (*gorm.DB, error) {
	conn, err := gorm.Open(c.dialectors(key), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("open tenant database %s: %w", key, err)
	}

	if err := conn.WithContext(ctx).AutoMigrate(c.registry.Entities()...); err != nil {
		if closeErr := closeConn(conn); closeErr != nil {
			c.log.Warn("failed to close tenant connection after migration failure",
				zap.String("tenant", key), zap.Error(closeErr))
		}
		return nil, fmt.Errorf("migrate tenant database %s: %w", key, err)
	}

	return conn, nil
}

// Has reports whether a tenant currently holds a cached connection.
func (c *Cache) Has(tenantID string) bool {
	key := normalizeTenantID(tenantID)

	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.conns[key]
	return ok
}

// Evict closes and removes the tenant's connection. Evicting an unknown
// tenant is a no-op.
func (c *Cache) Evict(tenantID string) error {
	key := normalizeTenantID(tenantID)

	c.mu.Lock()
	conn, ok := c.conns[key]
	delete(c.conns, key)
	c.mu.Unlock()

	if !ok {
		return nil
	}
	return closeConn(conn)
}

// EvictAll closes every cached connection. Called at process shutdown.
func (c *Cache) EvictAll() error {
	c.mu.Lock()
	conns := c.conns
	c.conns = make(map[string]*gorm.DB)
	c.mu.Unlock()

	var errs []error
	for key, conn := range conns {
		if err := closeConn(conn); err != nil {
			errs = append(errs, fmt.Errorf("close tenant %s: %w", key, err))
		}
	}
	return errors.Join(errs...)
}

func closeConn(conn *gorm.DB) error {
	sqlDB, err := conn.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func normalizeTenantID(tenantID string) string {
	return strings.ToLower(strings.TrimSpace(tenantID))
}
