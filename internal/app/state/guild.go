/*
Package state contains the per-browser-session application state.

This file defines the Guild model: guild identity, the viewer's role, the cached
configuration, and the guild's backend operations. Configuration reads are
memoized with in-flight coalescing; infraction listings are never cached and are
debounced so rapid filter changes collapse into a single request for the final
query.
*/
package state

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"rowboatweb/internal/app/api"
)

// DefaultInfractionsDebounce is the coalescing window for infraction listing
// requests. Filter inputs re-query on every keystroke; within this window only
// the final query is dispatched.
const DefaultInfractionsDebounce = 500 * time.Millisecond

// Role is the guild-scoped permission level of the current user.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleMod    Role = "mod"
	RoleViewer Role = "viewer"
)

// CanEditConfig reports whether the role may save configuration changes.
// The backend re-checks this on every write; the flag only controls which
// actions the pages render.
func (r Role) CanEditConfig() bool {
	return r == RoleAdmin || r == RoleMod
}

// CanDelete reports whether the role may remove the guild from the bot.
func (r Role) CanDelete() bool {
	return r == RoleAdmin
}

// Guild wraps a single guild's identity and data access. Guilds are owned by
// the session User's guild mapping and live exactly as long as it does.
type Guild struct {
	ID        string
	OwnerID   string
	Name      string
	Icon      string
	Splash    string
	Region    string
	Enabled   bool
	Whitelist []string
	Role      Role

	client *api.Client
	events *Emitter

	mu     sync.Mutex
	config *api.GuildConfig
	flight singleflight.Group

	// debounceWindow is the infractions coalescing window; tests shrink it.
	debounceWindow time.Duration

	// pending is the infractions call waiting for its debounce timer to fire.
	pending *infractionsCall

	// inflight serializes dispatched infraction requests so at most one is on
	// the wire at a time.
	inflight chan struct{}
}

// newGuild builds the Guild model from the backend guild payload.
func newGuild(data api.Guild, client *api.Client, events *Emitter) *Guild {
	return &Guild{
		ID:             data.ID,
		OwnerID:        data.OwnerID,
		Name:           data.Name,
		Icon:           data.Icon,
		Splash:         data.Splash,
		Region:         data.Region,
		Enabled:        data.Enabled,
		Whitelist:      data.Whitelist,
		Role:           Role(data.Role),
		client:         client,
		events:         events,
		debounceWindow: DefaultInfractionsDebounce,
		inflight:       make(chan struct{}, 1),
	}
}

// Config returns the guild's configuration. The first successful fetch is
// cached; forceRefresh bypasses the cache. Concurrent callers while a fetch is
// in flight share that single request. A failed fetch leaves any previously
// cached value intact.
func (g *Guild) Config(ctx context.Context, forceRefresh bool) (*api.GuildConfig, error) {
	g.mu.Lock()
	if g.config != nil && !forceRefresh {
		config := g.config
		g.mu.Unlock()
		return config, nil
	}
	g.mu.Unlock()

	v, err, _ := g.flight.Do("config", func() (any, error) {
		config, err := g.client.Config(ctx, g.ID)
		if err != nil {
			return nil, err
		}

		g.mu.Lock()
		g.config = config
		g.mu.Unlock()

		return config, nil
	})
	if err != nil {
		return nil, err
	}

	return v.(*api.GuildConfig), nil
}

// SaveConfig submits new configuration contents to the backend. On success the
// local cache is replaced with the submitted text (the backend accepted it, so
// it is valid by definition) and EventConfigSaved fires; no refetch is needed.
// On failure the cache is untouched and the backend's validation message is
// carried in the returned error verbatim.
func (g *Guild) SaveConfig(ctx context.Context, contents string) error {
	if err := g.client.SaveConfig(ctx, g.ID, contents); err != nil {
		return err
	}

	g.mu.Lock()
	g.config = &api.GuildConfig{Contents: contents, Valid: true}
	g.mu.Unlock()

	g.events.Emit(Event{Name: EventConfigSaved, GuildID: g.ID})

	return nil
}

// CachedConfig returns the cached configuration without fetching, or nil when
// nothing has been fetched yet.
func (g *Guild) CachedConfig() *api.GuildConfig {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.config
}

// infractionsCall is one debounced listing request. All callers that land in
// the same window wait on done and receive the result of the final query.
type infractionsCall struct {
	query api.InfractionQuery
	timer *time.Timer
	done  chan struct{}

	// dispatched guards against the timer firing twice for the same call: a
	// Reset that races the window expiry re-arms a timer whose callback has
	// already started.
	dispatched bool

	page *api.InfractionPage
	err  error
}

// Infractions returns one page of the guild's infraction list. Results are
// never cached; every dispatched call is a fresh backend round trip. Calls are
// debounced: a call that arrives while a previous one is still waiting for its
// window replaces the pending query and restarts the timer, and every waiter
// resolves with the final query's result.
func (g *Guild) Infractions(ctx context.Context, query api.InfractionQuery) (*api.InfractionPage, error) {
	g.mu.Lock()
	if g.pending == nil {
		call := &infractionsCall{query: query, done: make(chan struct{})}
		call.timer = time.AfterFunc(g.debounceWindow, func() {
			g.dispatchInfractions(call)
		})
		g.pending = call
	} else {
		g.pending.query = query
		g.pending.timer.Reset(g.debounceWindow)
	}
	call := g.pending
	g.mu.Unlock()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-call.done:
		return call.page, call.err
	}
}

// dispatchInfractions runs when a debounce window closes. It detaches the call
// so new arrivals start a fresh window, then issues the request. The inflight
// semaphore keeps a slow response from overlapping with the next window's
// request. The request is deliberately not tied to any caller's context:
// callers that gave up simply discard the eventual result.
func (g *Guild) dispatchInfractions(call *infractionsCall) {
	g.mu.Lock()
	if call.dispatched {
		g.mu.Unlock()
		return
	}
	call.dispatched = true
	if g.pending == call {
		g.pending = nil
	}
	query := call.query
	g.mu.Unlock()

	g.inflight <- struct{}{}
	defer func() { <-g.inflight }()

	ctx, cancel := context.WithTimeout(context.Background(), requestGrace)
	defer cancel()

	call.page, call.err = g.client.Infractions(ctx, g.ID, query)
	close(call.done)
}

// requestGrace bounds a detached infractions request once its window has closed.
const requestGrace = 30 * time.Second

// Delete removes the guild from the bot. The backend enforces that only admins
// may do this; any failure is returned as-is and no local state changes.
func (g *Guild) Delete(ctx context.Context) error {
	return g.client.DeleteGuild(ctx, g.ID)
}

// IconURL returns the CDN URL of the guild icon, or empty when the guild has none.
func (g *Guild) IconURL() string {
	if g.Icon == "" {
		return ""
	}
	return "https://cdn.discordapp.com/icons/" + g.ID + "/" + g.Icon + ".png"
}
