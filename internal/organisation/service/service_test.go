package service

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/bizhub/internal/clock"
	"github.com/smallbiznis/bizhub/internal/config"
	"github.com/smallbiznis/bizhub/internal/eventbus"
	"github.com/smallbiznis/bizhub/internal/organisation/domain"
	"github.com/smallbiznis/bizhub/internal/organisation/repository"
	dbpkg "github.com/smallbiznis/bizhub/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

// recordingBus captures publishes synchronously so assertions do not race
// handler goroutines.
type recordingBus struct {
	mu        sync.Mutex
	published []recordedEvent
}

type recordedEvent struct {
	channel string
	payload []byte
}

func (b *recordingBus) Publish(ctx context.Context, channel string, payload []byte) error {
	_ = ctx
	b.mu.Lock()
	defer b.mu.Unlock()
	b.published = append(b.published, recordedEvent{channel: channel, payload: payload})
	return nil
}

func (b *recordingBus) Subscribe(channel string, handler eventbus.Handler) {
	_, _ = channel, handler
}

func (b *recordingBus) events(channel string) []eventbus.OrganisationCreated {
	b.mu.Lock()
	defer b.mu.Unlock()

	var out []eventbus.OrganisationCreated
	for _, evt := range b.published {
		if evt.channel != channel {
			continue
		}
		var env eventbus.Envelope[eventbus.OrganisationCreated]
		if err := json.Unmarshal(evt.payload, &env); err == nil {
			out = append(out, env.Data)
		}
	}
	return out
}

type serviceFixture struct {
	db   *gorm.DB
	repo domain.Repository
	bus  *recordingBus
	svc  domain.Service
	node *snowflake.Node
	clk  *clock.FakeClock
}

func newServiceFixture(t *testing.T, modules ...string) *serviceFixture {
	t.Helper()

	conn, err := dbpkg.NewTest()
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(
		&domain.Organisation{},
		&domain.OrganisationMember{},
		&domain.OrganisationModule{},
	))

	node, err := snowflake.NewNode(4)
	require.NoError(t, err)

	if len(modules) == 0 {
		modules = []string{"Catalog", "Shop"}
	}

	bus := &recordingBus{}
	clk := clock.NewFakeClock(time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC))
	repo := repository.NewRepository(conn, clk)

	return &serviceFixture{
		db:   conn,
		repo: repo,
		bus:  bus,
		node: node,
		clk:  clk,
		svc: NewService(conn, repo,
			config.NewStaticModulesConfigHolder(modules...),
			node, bus, clk, zaptest.NewLogger(t)),
	}
}

func TestCreateForUser(t *testing.T) {
	f := newServiceFixture(t)

	org, err := f.svc.CreateForUser(context.Background(), domain.NewUser{
		ID:    "user-1",
		Email: "ada@example.com",
		Name:  "Ada",
	})
	require.NoError(t, err)

	assert.Equal(t, "Ada workspace", org.Name)
	assert.Equal(t, "ada-workspace", org.Slug)
	assert.Equal(t, "user-1", org.OwnerID)
	assert.Equal(t, domain.StateCreated, org.State)

	require.Len(t, org.Modules, 2)
	for _, module := range org.Modules {
		assert.Equal(t, domain.ModulePending, module.State, module.Name)
	}

	var member domain.OrganisationMember
	require.NoError(t, f.db.First(&member, "org_id = ?", org.ID).Error)
	assert.Equal(t, "user-1", member.UserID)
	assert.Equal(t, domain.RoleOwner, member.Role)

	events := f.bus.events(eventbus.ChannelOrganisationCreated)
	require.Len(t, events, 1)
	assert.Equal(t, org.ID.String(), events[0].ID)
	assert.Equal(t, "ada-workspace", events[0].Slug)
	assert.Equal(t, "user-1", events[0].OwnerID)
	assert.True(t, events[0].IsFirst)
}

func TestCreateForUserRedelivery(t *testing.T) {
	f := newServiceFixture(t)

	user := domain.NewUser{ID: "user-1", Email: "ada@example.com", Name: "Ada"}

	first, err := f.svc.CreateForUser(context.Background(), user)
	require.NoError(t, err)

	second, err := f.svc.CreateForUser(context.Background(), user)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID, "redelivered registration must reuse the organisation")

	var count int64
	require.NoError(t, f.db.Model(&domain.Organisation{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	// The event is re-announced so downstream consumers can catch up.
	assert.Len(t, f.bus.events(eventbus.ChannelOrganisationCreated), 2)
}

func TestCreateForUserNameFallsBackToEmail(t *testing.T) {
	f := newServiceFixture(t)

	org, err := f.svc.CreateForUser(context.Background(), domain.NewUser{
		ID:    "user-2",
		Email: "grace.hopper@example.com",
	})
	require.NoError(t, err)

	assert.Equal(t, "grace.hopper workspace", org.Name)
	assert.Equal(t, "grace-hopper-workspace", org.Slug)
}

func TestCreateForUserRejectsEmptyOwner(t *testing.T) {
	f := newServiceFixture(t)

	_, err := f.svc.CreateForUser(context.Background(), domain.NewUser{ID: "   "})
	assert.ErrorIs(t, err, domain.ErrInvalidUser)
}

func TestCreateForUserNotFirstOrganisation(t *testing.T) {
	f := newServiceFixture(t)

	now := f.clk.Now()
	require.NoError(t, f.db.Create(&domain.Organisation{
		ID:        f.node.Generate(),
		Name:      "Side project",
		Slug:      "side-project",
		OwnerID:   "user-3",
		State:     domain.StateDBInitialized,
		CreatedAt: now,
		UpdatedAt: now,
	}).Error)

	_, err := f.svc.CreateForUser(context.Background(), domain.NewUser{
		ID:    "user-3",
		Email: "ada@example.com",
		Name:  "Ada",
	})
	require.NoError(t, err)

	events := f.bus.events(eventbus.ChannelOrganisationCreated)
	require.Len(t, events, 1)
	assert.False(t, events[0].IsFirst)
}

func TestCreateForUserModulesFollowConfig(t *testing.T) {
	f := newServiceFixture(t, "Catalog")

	org, err := f.svc.CreateForUser(context.Background(), domain.NewUser{
		ID:   "user-4",
		Name: "Lin",
	})
	require.NoError(t, err)

	require.Len(t, org.Modules, 1)
	assert.Equal(t, "Catalog", org.Modules[0].Name)
	assert.Equal(t, "catalog", org.Modules[0].NameSlug)
}
