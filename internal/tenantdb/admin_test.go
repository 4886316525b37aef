package tenantdb

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

type adminRecorder struct {
	mu      sync.Mutex
	execs   []string
	closes  int
	execErr error
}

type recordedConn struct {
	rec *adminRecorder
}

func (c *recordedConn) Exec(ctx context.Context, stmt string) error {
	_ = ctx
	c.rec.mu.Lock()
	defer c.rec.mu.Unlock()
	c.rec.execs = append(c.rec.execs, stmt)
	return c.rec.execErr
}

func (c *recordedConn) Close() error {
	c.rec.mu.Lock()
	defer c.rec.mu.Unlock()
	c.rec.closes++
	return nil
}

func (r *adminRecorder) factory() AdminConnectorFactory {
	return func(ctx context.Context) (AdminConnector, error) {
		_ = ctx
		return &recordedConn{rec: r}, nil
	}
}

func newTestProvisioner(t *testing.T, rec *adminRecorder) (*Provisioner, *Cache) {
	t.Helper()

	registry := NewRegistry()
	require.NoError(t, registry.Register(&tenantWidget{}))

	prefix := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	cache := NewCache(func(name string) gorm.Dialector {
		return sqlite.Open(fmt.Sprintf("file:%s_%s?mode=memory&cache=shared", prefix, name))
	}, registry, zaptest.NewLogger(t))
	t.Cleanup(func() { _ = cache.EvictAll() })

	return NewProvisioner(rec.factory(), cache, zaptest.NewLogger(t)), cache
}

func TestCreateTenantDatabase(t *testing.T) {
	rec := &adminRecorder{}
	provisioner, cache := newTestProvisioner(t, rec)

	require.NoError(t, provisioner.CreateTenantDatabase(context.Background(), "Org_42"))

	assert.Equal(t, []string{`CREATE DATABASE "org_42"`}, rec.execs)
	assert.Equal(t, 1, rec.closes, "admin session must be released")
	assert.True(t, cache.Has("org_42"), "connection must be migrated and cached before returning")
}

func TestCreateTenantDatabaseFailureReleasesAdmin(t *testing.T) {
	rec := &adminRecorder{execErr: errors.New("database \"org_42\" already exists")}
	provisioner, cache := newTestProvisioner(t, rec)

	err := provisioner.CreateTenantDatabase(context.Background(), "org_42")

	var creationErr *DatabaseCreationError
	require.ErrorAs(t, err, &creationErr)
	assert.Equal(t, "org_42", creationErr.Name)
	assert.Equal(t, 1, rec.closes, "admin session must be released on failure too")
	assert.False(t, cache.Has("org_42"))
}

func TestCreateTenantDatabaseRejectsInvalidName(t *testing.T) {
	rec := &adminRecorder{}
	provisioner, _ := newTestProvisioner(t, rec)

	err := provisioner.CreateTenantDatabase(context.Background(), `org"; DROP TABLE users;`)
	assert.ErrorIs(t, err, ErrInvalidTenantName)
	assert.Empty(t, rec.execs, "no admin session work for rejected names")
}

func TestDropTenantDatabaseEvictsCache(t *testing.T) {
	rec := &adminRecorder{}
	provisioner, cache := newTestProvisioner(t, rec)

	require.NoError(t, provisioner.CreateTenantDatabase(context.Background(), "org_42"))
	require.True(t, cache.Has("org_42"))

	require.NoError(t, provisioner.DropTenantDatabase(context.Background(), "org_42"))
	assert.False(t, cache.Has("org_42"))
	assert.Equal(t, `DROP DATABASE IF EXISTS "org_42"`, rec.execs[len(rec.execs)-1])

	// Dropping again is a no-op, not an error.
	require.NoError(t, provisioner.DropTenantDatabase(context.Background(), "org_42"))
	assert.Equal(t, 3, rec.closes)
}

func TestDropTenantDatabaseEmptyName(t *testing.T) {
	rec := &adminRecorder{}
	provisioner, _ := newTestProvisioner(t, rec)

	assert.ErrorIs(t, provisioner.DropTenantDatabase(context.Background(), ""), ErrEmptyTenantID)
}
