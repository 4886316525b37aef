package eventbus

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypedChannelRoundTrip(t *testing.T) {
	bus := newTestBus(t)

	var mu sync.Mutex
	var got DatabaseCreated
	SubscribeDatabaseCreated(bus, func(ctx context.Context, data DatabaseCreated) error {
		mu.Lock()
		got = data
		mu.Unlock()
		return nil
	})

	sent := DatabaseCreated{Name: "org_42", OrganisationID: "42"}
	require.NoError(t, PublishDatabaseCreated(context.Background(), bus, sent))
	bus.Close()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, sent, got)
}

func TestTypedSubscribeRejectsMalformedEnvelope(t *testing.T) {
	bus := newTestBus(t)

	invoked := false
	SubscribeModuleInitialized(bus, func(ctx context.Context, data ModuleInitialized) error {
		invoked = true
		return nil
	})

	// Raw publish bypassing the typed helper: broken JSON must be dropped
	// at the envelope boundary, not crash the handler.
	require.NoError(t, bus.Publish(context.Background(), ChannelModuleInitialized, []byte("{not json")))
	bus.Close()

	assert.False(t, invoked)
}

func TestEnvelopeWireFormat(t *testing.T) {
	bus := newTestBus(t)

	var mu sync.Mutex
	var raw []byte
	bus.Subscribe(ChannelModuleInitialized, func(ctx context.Context, payload []byte, channel string) error {
		mu.Lock()
		raw = append([]byte(nil), payload...)
		mu.Unlock()
		return nil
	})

	require.NoError(t, PublishModuleInitialized(context.Background(), bus, ModuleInitialized{
		Name:           "Catalog",
		OrganisationID: "7",
		State:          ModuleStateSuccess,
	}))
	bus.Close()

	mu.Lock()
	defer mu.Unlock()
	assert.JSONEq(t,
		`{"data":{"name":"Catalog","organisationId":"7","state":"SUCCESS"}}`,
		string(raw),
	)
}
