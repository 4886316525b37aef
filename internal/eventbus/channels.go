package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
)

// Channel names follow the "<domain>.<entity>.<event>" convention. The
// set below is closed: producers and consumers go through the typed
// helpers so payload contracts are checked at compile time instead of
// agreed on out of band.
const (
	ChannelUserCreated         = "user.created"
	ChannelOrganisationCreated = "organisation.created"
	ChannelDatabaseCreated     = "organisation.database.created"
	ChannelModuleInitialized   = "organisation.module.initialized"
)

// Module initialization outcomes carried on the wire.
const (
	ModuleStateSuccess = "SUCCESS"
	ModuleStateFailed  = "FAILED"
)

// UserCreated announces a new platform user.
type UserCreated struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// OrganisationCreated carries the full organisation record plus whether
// this is the owner's first organisation.
type OrganisationCreated struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Slug    string `json:"slug"`
	OwnerID string `json:"ownerId"`
	State   string `json:"state"`
	IsFirst bool   `json:"isFirst"`
}

// DatabaseCreated announces that a tenant database exists and is migrated.
type DatabaseCreated struct {
	Name           string `json:"name"`
	OrganisationID string `json:"organisationId"`
}

// ModuleInitialized reports one module's initialization outcome for an
// organisation.
type ModuleInitialized struct {
	Name           string `json:"name"`
	OrganisationID string `json:"organisationId"`
	State          string `json:"state"`
}

func publish[T any](ctx context.Context, bus Bus, channel string, data T) error {
	raw, err := json.Marshal(Envelope[T]{Data: data})
	if err != nil {
		return fmt.Errorf("encode %s envelope: %w", channel, err)
	}
	return bus.Publish(ctx, channel, raw)
}

func subscribe[T any](bus Bus, channel string, fn func(ctx context.Context, data T) error) {
	bus.Subscribe(channel, func(ctx context.Context, payload []byte, ch string) error {
		var env Envelope[T]
		if err := json.Unmarshal(payload, &env); err != nil {
			return fmt.Errorf("decode %s envelope: %w", ch, err)
		}
		return fn(ctx, env.Data)
	})
}

func PublishUserCreated(ctx context.Context, bus Bus, data UserCreated) error {
	return publish(ctx, bus, ChannelUserCreated, data)
}

func SubscribeUserCreated(bus Bus, fn func(ctx context.Context, data UserCreated) error) {
	subscribe(bus, ChannelUserCreated, fn)
}

func PublishOrganisationCreated(ctx context.Context, bus Bus, data OrganisationCreated) error {
	return publish(ctx, bus, ChannelOrganisationCreated, data)
}

func SubscribeOrganisationCreated(bus Bus, fn func(ctx context.Context, data OrganisationCreated) error) {
	subscribe(bus, ChannelOrganisationCreated, fn)
}

func PublishDatabaseCreated(ctx context.Context, bus Bus, data DatabaseCreated) error {
	return publish(ctx, bus, ChannelDatabaseCreated, data)
}

func SubscribeDatabaseCreated(bus Bus, fn func(ctx context.Context, data DatabaseCreated) error) {
	subscribe(bus, ChannelDatabaseCreated, fn)
}

func PublishModuleInitialized(ctx context.Context, bus Bus, data ModuleInitialized) error {
	return publish(ctx, bus, ChannelModuleInitialized, data)
}

func SubscribeModuleInitialized(bus Bus, fn func(ctx context.Context, data ModuleInitialized) error) {
	subscribe(bus, ChannelModuleInitialized, fn)
}
