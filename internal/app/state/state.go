/*
Package state contains the per-browser-session application state.

This file defines the State container itself: the single source of truth for
who is signed in and which guild is contextually active. All session and guild
fetches are arbitrated here so that at most one request per resource is in
flight, and all state mutations are atomic from the caller's perspective.
*/
package state

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"rowboatweb/internal/app/api"
	"rowboatweb/internal/pkg/errs"
	"rowboatweb/internal/pkg/logx"
)

// State is the state container for one browser session.
type State struct {
	client *api.Client
	events *Emitter
	logger zerolog.Logger

	mu           sync.Mutex
	initialized  bool
	ready        bool
	user         *User
	currentGuild *Guild

	flight singleflight.Group
}

// New constructs a State bound to the given backend client.
func New(client *api.Client) *State {
	s := &State{
		client: client,
		events: NewEmitter(),
		logger: logx.Logger().With().Str("component", "state").Logger(),
	}

	// A guild list refresh rebuilds the mapping with fresh Guild instances; the
	// current selection must follow the mapping or be dropped with it.
	s.events.Subscribe(func(ev Event) {
		if ev.Name == EventGuildsSet {
			s.rebindCurrentGuild()
		}
	})

	return s
}

// Events exposes the container's change-event registry for subscribers.
func (s *State) Events() *Emitter {
	return s.events
}

// Initialize performs the initial session check. It is idempotent: only the
// first call does anything. On success the container becomes ready with a
// populated user and the guild list is prefetched in the background; a prefetch
// failure is swallowed because guilds are refetched on demand. On failure the
// container becomes ready with no user.
func (s *State) Initialize(ctx context.Context) {
	s.mu.Lock()
	if s.initialized {
		s.mu.Unlock()
		return
	}
	s.initialized = true
	s.mu.Unlock()

	user, err := s.CurrentUser(ctx, false)
	if err != nil {
		if !errs.IsNotAuthenticated(err) {
			s.logger.Warn().Err(err).Msg("Session check failed")
		}
		s.setUser(nil)
		return
	}

	go func() {
		if _, err := user.Guilds(context.Background(), false); err != nil {
			s.logger.Debug().Err(err).Msg("Background guild prefetch failed")
		}
	}()
}

// Ready reports whether the initial session check has completed.
func (s *State) Ready() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.ready
}

// CurrentUser returns the session's user. The cached user is returned unless
// absent or forceRefresh is set; otherwise a fetch is issued, cached, and
// EventUserSet fires. Concurrent callers while a fetch is in flight all attach
// to the same request and resolve with the same User instance. An invalid
// session fails with the not-authenticated error.
func (s *State) CurrentUser(ctx context.Context, forceRefresh bool) (*User, error) {
	s.mu.Lock()
	if s.user != nil && !forceRefresh {
		user := s.user
		s.mu.Unlock()
		return user, nil
	}
	s.mu.Unlock()

	v, err, _ := s.flight.Do("user", func() (any, error) {
		raw, err := s.client.CurrentUser(ctx)
		if err != nil {
			return nil, err
		}

		user := newUser(raw, s.client, s.events)
		s.setUser(user)

		return user, nil
	})
	if err != nil {
		return nil, err
	}

	return v.(*User), nil
}

// CachedUser returns the cached user without fetching, or nil when signed out.
func (s *State) CachedUser() *User {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.user
}

// Guild resolves the guild with the given ID through the current user's guild
// mapping. A guild that is not in the user's own list fails with the
// guild-not-found error; there is deliberately no fallback lookup against the
// backend's generic guild endpoint.
func (s *State) Guild(ctx context.Context, guildID string) (*Guild, error) {
	user, err := s.CurrentUser(ctx, false)
	if err != nil {
		return nil, err
	}

	guilds, err := user.Guilds(ctx, false)
	if err != nil {
		return nil, err
	}

	guild, ok := guilds[guildID]
	if !ok {
		return nil, errs.NewError(errs.ErrGuildNotFound)
	}

	return guild, nil
}

// Logout destroys the backend session, then clears the cached user and
// notifies subscribers. The local session is cleared even if the backend call
// fails; callers are expected to navigate away regardless.
func (s *State) Logout(ctx context.Context) error {
	err := s.client.Logout(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Backend logout failed; clearing local session anyway")
	}

	s.ClearCurrentGuild()
	s.setUser(nil)

	return err
}

// SetCurrentGuild marks the guild as the contextually active one. The guild
// must be a member of the current user's guild mapping; nil clears the
// selection. Every call emits EventGuildSelected, including transitions to
// absent, so dependent views can react to deselection.
func (s *State) SetCurrentGuild(guild *Guild) error {
	if guild == nil {
		s.ClearCurrentGuild()
		return nil
	}

	s.mu.Lock()
	user := s.user
	if user == nil {
		s.mu.Unlock()
		return errs.NewError(errs.ErrNotAuthenticated)
	}
	if _, ok := user.guild(guild.ID); !ok {
		s.mu.Unlock()
		return errs.NewError(errs.ErrGuildNotFound)
	}
	s.currentGuild = guild
	s.mu.Unlock()

	s.events.Emit(Event{Name: EventGuildSelected, GuildID: guild.ID})

	return nil
}

// ClearCurrentGuild drops the current guild selection. It always emits
// EventGuildSelected with no guild so sidebars can clear their highlight.
func (s *State) ClearCurrentGuild() {
	s.mu.Lock()
	s.currentGuild = nil
	s.mu.Unlock()

	s.events.Emit(Event{Name: EventGuildSelected})
}

// rebindCurrentGuild re-resolves the current selection against the user's
// guild mapping after a refresh. The selection moves to the replacement
// instance with the same ID, or is cleared when the guild left the list.
func (s *State) rebindCurrentGuild() {
	s.mu.Lock()
	current := s.currentGuild
	user := s.user
	s.mu.Unlock()

	if current == nil || user == nil {
		return
	}

	replacement, ok := user.guild(current.ID)
	if !ok {
		s.ClearCurrentGuild()
		return
	}

	if replacement == current {
		return
	}

	s.mu.Lock()
	if s.currentGuild == current {
		s.currentGuild = replacement
	}
	s.mu.Unlock()
}

// CurrentGuild returns the contextually active guild, or nil when no
// guild-scoped view is active.
func (s *State) CurrentGuild() *Guild {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.currentGuild
}

// setUser installs the user (or clears it with nil), marks the container ready,
// and emits the corresponding notifications. The state mutation happens under
// the lock in one step; observers never see a half-applied transition.
func (s *State) setUser(user *User) {
	s.mu.Lock()
	s.user = user
	wasReady := s.ready
	s.ready = true
	s.mu.Unlock()

	s.events.Emit(Event{Name: EventUserSet, LoggedIn: user != nil})

	if !wasReady {
		s.events.Emit(Event{Name: EventReady})
	}
}
