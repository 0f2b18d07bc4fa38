/*
Package state contains the per-browser-session application state.

This file defines the User model: the authenticated identity plus the lazily
fetched, memoized mapping from guild ID to Guild. Concurrent fetches of the
guild list collapse onto a single backend request.
*/
package state

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"

	"rowboatweb/internal/app/api"
)

// User wraps the authenticated user's identity and owns the session's guild mapping.
type User struct {
	ID            string
	Username      string
	Discriminator string
	Avatar        string
	Bot           bool
	Admin         bool

	client *api.Client
	events *Emitter

	mu     sync.Mutex
	guilds map[string]*Guild

	flight singleflight.Group
}

// newUser builds the session User model from the backend identity payload.
func newUser(data *api.User, client *api.Client, events *Emitter) *User {
	return &User{
		ID:            data.ID,
		Username:      data.Username,
		Discriminator: data.Discriminator,
		Avatar:        data.Avatar,
		Bot:           data.Bot,
		Admin:         data.Admin,
		client:        client,
		events:        events,
	}
}

// Guilds returns the user's guild mapping, keyed by guild ID. The mapping is
// fetched once and memoized; forceRefresh discards the cache and refetches.
// Concurrent callers while a fetch is in flight all receive the result of that
// single request. The returned map is shared and must not be mutated; display
// ordering is the view layer's concern.
func (u *User) Guilds(ctx context.Context, forceRefresh bool) (map[string]*Guild, error) {
	u.mu.Lock()
	if u.guilds != nil && !forceRefresh {
		guilds := u.guilds
		u.mu.Unlock()
		return guilds, nil
	}
	u.mu.Unlock()

	v, err, _ := u.flight.Do("guilds", func() (any, error) {
		raw, err := u.client.Guilds(ctx)
		if err != nil {
			return nil, err
		}

		guilds := make(map[string]*Guild, len(raw))
		for _, data := range raw {
			guilds[data.ID] = newGuild(data, u.client, u.events)
		}

		u.mu.Lock()
		u.guilds = guilds
		u.mu.Unlock()

		u.events.Emit(Event{Name: EventGuildsSet})

		return guilds, nil
	})
	if err != nil {
		return nil, err
	}

	return v.(map[string]*Guild), nil
}

// guild returns the cached Guild for id without triggering a fetch.
// It reports false when the guild list has not been fetched or id is absent.
func (u *User) guild(id string) (*Guild, bool) {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.guilds == nil {
		return nil, false
	}
	g, ok := u.guilds[id]
	return g, ok
}

// Tag returns the classic username#discriminator presentation of the user.
func (u *User) Tag() string {
	if u.Discriminator == "" {
		return u.Username
	}
	return u.Username + "#" + u.Discriminator
}
