package state

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rowboatweb/internal/app/api"
	"rowboatweb/internal/pkg/errs"
)

// testClient spins up a fake moderation backend and returns a client bound to it.
func testClient(t *testing.T, handler http.Handler) *api.Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return api.NewClient(server.URL, &http.Cookie{Name: "rowboat_session", Value: "test-session"})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func testUser() api.User {
	return api.User{ID: "42", Username: "jake", Discriminator: "0001"}
}

func testGuilds() []api.Guild {
	return []api.Guild{
		{ID: "100", OwnerID: "42", Name: "Rowboat HQ", Role: "admin"},
		{ID: "200", OwnerID: "7", Name: "Side Server", Role: "viewer"},
	}
}

// recorder collects emitted events for assertions.
type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) attach(e *Emitter) {
	e.Subscribe(func(ev Event) {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.events = append(r.events, ev)
	})
}

func (r *recorder) names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	names := make([]string, len(r.events))
	for i, ev := range r.events {
		names[i] = ev.Name
	}
	return names
}

func (r *recorder) last() (Event, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.events) == 0 {
		return Event{}, false
	}
	return r.events[len(r.events)-1], true
}

func TestCurrentUserCoalescesConcurrentFetches(t *testing.T) {
	var calls int32

	mux := http.NewServeMux()
	mux.HandleFunc("/api/users/@me", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		time.Sleep(50 * time.Millisecond)
		writeJSON(w, testUser())
	})

	st := New(testClient(t, mux))

	const workers = 8
	users := make([]*User, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			user, err := st.CurrentUser(context.Background(), false)
			require.NoError(t, err)
			users[i] = user
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "concurrent callers must share one request")
	for _, user := range users {
		assert.Same(t, users[0], user, "all callers must resolve with the same instance")
	}

	// The cached user answers without another round trip.
	again, err := st.CurrentUser(context.Background(), false)
	require.NoError(t, err)
	assert.Same(t, users[0], again)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestCurrentUserForceRefreshReplacesInstance(t *testing.T) {
	var calls int32

	mux := http.NewServeMux()
	mux.HandleFunc("/api/users/@me", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		writeJSON(w, testUser())
	})

	st := New(testClient(t, mux))

	first, err := st.CurrentUser(context.Background(), false)
	require.NoError(t, err)

	second, err := st.CurrentUser(context.Background(), true)
	require.NoError(t, err)

	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	assert.NotSame(t, first, second)
	assert.Same(t, second, st.CachedUser())
}

func TestCurrentUserInvalidSession(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/users/@me", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	st := New(testClient(t, mux))

	_, err := st.CurrentUser(context.Background(), false)
	require.Error(t, err)
	assert.True(t, errs.IsNotAuthenticated(err))
	assert.Nil(t, st.CachedUser())
}

func TestInitializeIsIdempotent(t *testing.T) {
	var userCalls int32

	mux := http.NewServeMux()
	mux.HandleFunc("/api/users/@me", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&userCalls, 1)
		w.WriteHeader(http.StatusUnauthorized)
	})

	st := New(testClient(t, mux))

	st.Initialize(context.Background())
	st.Initialize(context.Background())

	assert.Equal(t, int32(1), atomic.LoadInt32(&userCalls))
	assert.True(t, st.Ready())
	assert.Nil(t, st.CachedUser(), "a failed session check leaves the container signed out")
}

func TestInitializeSignedInPrefetchesGuilds(t *testing.T) {
	var guildCalls int32

	mux := http.NewServeMux()
	mux.HandleFunc("/api/users/@me", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, testUser())
	})
	mux.HandleFunc("/api/users/@me/guilds", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&guildCalls, 1)
		writeJSON(w, testGuilds())
	})

	st := New(testClient(t, mux))

	rec := &recorder{}
	rec.attach(st.Events())

	st.Initialize(context.Background())

	require.True(t, st.Ready())
	require.NotNil(t, st.CachedUser())

	names := rec.names()
	require.GreaterOrEqual(t, len(names), 2)
	assert.Equal(t, EventUserSet, names[0])
	assert.Equal(t, EventReady, names[1])

	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&guildCalls) == 1
	}, time.Second, 10*time.Millisecond, "guild prefetch should run in the background")
}

func TestReadyEventFiresOnce(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/users/@me", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, testUser())
	})

	st := New(testClient(t, mux))

	rec := &recorder{}
	rec.attach(st.Events())

	_, err := st.CurrentUser(context.Background(), false)
	require.NoError(t, err)
	_, err = st.CurrentUser(context.Background(), true)
	require.NoError(t, err)

	var readies int
	for _, name := range rec.names() {
		if name == EventReady {
			readies++
		}
	}
	assert.Equal(t, 1, readies)
}

func TestGuildResolvesThroughUserMapping(t *testing.T) {
	var directLookups int32

	mux := http.NewServeMux()
	mux.HandleFunc("/api/users/@me", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, testUser())
	})
	mux.HandleFunc("/api/users/@me/guilds", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, testGuilds())
	})
	mux.HandleFunc("/api/guilds/", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&directLookups, 1)
		w.WriteHeader(http.StatusNotFound)
	})

	st := New(testClient(t, mux))

	guild, err := st.Guild(context.Background(), "100")
	require.NoError(t, err)
	assert.Equal(t, "Rowboat HQ", guild.Name)
	assert.Equal(t, RoleAdmin, guild.Role)

	_, err = st.Guild(context.Background(), "999")
	require.Error(t, err)
	assert.True(t, errs.IsGuildNotFound(err))

	assert.Equal(t, int32(0), atomic.LoadInt32(&directLookups),
		"an absent guild must fail from the mapping, not fall back to a direct lookup")
}

func TestLogoutClearsSessionEvenWhenBackendFails(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/users/@me", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, testUser())
	})
	mux.HandleFunc("/api/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	st := New(testClient(t, mux))

	_, err := st.CurrentUser(context.Background(), false)
	require.NoError(t, err)

	rec := &recorder{}
	rec.attach(st.Events())

	err = st.Logout(context.Background())
	require.Error(t, err)

	assert.Nil(t, st.CachedUser())
	assert.Nil(t, st.CurrentGuild())

	last, ok := rec.last()
	require.True(t, ok)
	assert.Equal(t, EventUserSet, last.Name)
	assert.False(t, last.LoggedIn)
}

func TestSetCurrentGuild(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/users/@me", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, testUser())
	})
	mux.HandleFunc("/api/users/@me/guilds", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, testGuilds())
	})

	st := New(testClient(t, mux))

	guild, err := st.Guild(context.Background(), "100")
	require.NoError(t, err)

	rec := &recorder{}
	rec.attach(st.Events())

	require.NoError(t, st.SetCurrentGuild(guild))
	assert.Same(t, guild, st.CurrentGuild())

	last, ok := rec.last()
	require.True(t, ok)
	assert.Equal(t, EventGuildSelected, last.Name)
	assert.Equal(t, "100", last.GuildID)

	// Clearing always notifies, even when nothing was selected.
	st.ClearCurrentGuild()
	st.ClearCurrentGuild()

	assert.Nil(t, st.CurrentGuild())
	names := rec.names()
	assert.Equal(t, []string{EventGuildSelected, EventGuildSelected, EventGuildSelected}, names)
}

func TestSetCurrentGuildRejectsForeignGuild(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/users/@me", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, testUser())
	})
	mux.HandleFunc("/api/users/@me/guilds", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, testGuilds())
	})

	st := New(testClient(t, mux))

	_, err := st.Guild(context.Background(), "100")
	require.NoError(t, err)

	foreign := newGuild(api.Guild{ID: "999", Name: "Not Mine"}, nil, NewEmitter())
	err = st.SetCurrentGuild(foreign)
	require.Error(t, err)
	assert.True(t, errs.IsGuildNotFound(err))
	assert.Nil(t, st.CurrentGuild())
}

func TestGuildRefreshRebindsCurrentGuild(t *testing.T) {
	var dropGuild atomic.Bool

	mux := http.NewServeMux()
	mux.HandleFunc("/api/users/@me", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, testUser())
	})
	mux.HandleFunc("/api/users/@me/guilds", func(w http.ResponseWriter, r *http.Request) {
		guilds := testGuilds()
		if dropGuild.Load() {
			guilds = guilds[1:]
		}
		writeJSON(w, guilds)
	})

	st := New(testClient(t, mux))

	guild, err := st.Guild(context.Background(), "100")
	require.NoError(t, err)
	require.NoError(t, st.SetCurrentGuild(guild))

	user := st.CachedUser()
	require.NotNil(t, user)

	// A refresh rebuilds the mapping with fresh instances; the selection must
	// follow the mapping.
	guilds, err := user.Guilds(context.Background(), true)
	require.NoError(t, err)

	current := st.CurrentGuild()
	require.NotNil(t, current)
	assert.Equal(t, "100", current.ID)
	assert.NotSame(t, guild, current)
	assert.Same(t, guilds["100"], current, "the selection must point into the live mapping")

	// A refresh that no longer contains the selected guild clears the selection.
	rec := &recorder{}
	rec.attach(st.Events())

	dropGuild.Store(true)
	_, err = user.Guilds(context.Background(), true)
	require.NoError(t, err)

	assert.Nil(t, st.CurrentGuild())

	// The deselection is announced during the refresh notification.
	var deselected bool
	rec.mu.Lock()
	for _, ev := range rec.events {
		if ev.Name == EventGuildSelected && ev.GuildID == "" {
			deselected = true
		}
	}
	rec.mu.Unlock()
	assert.True(t, deselected, "dropping the selected guild must emit a deselection")
}

func TestGuildsCoalesceAndRefresh(t *testing.T) {
	var calls int32

	mux := http.NewServeMux()
	mux.HandleFunc("/api/users/@me", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, testUser())
	})
	mux.HandleFunc("/api/users/@me/guilds", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		time.Sleep(50 * time.Millisecond)
		writeJSON(w, testGuilds())
	})

	st := New(testClient(t, mux))

	user, err := st.CurrentUser(context.Background(), false)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			guilds, err := user.Guilds(context.Background(), false)
			require.NoError(t, err)
			assert.Len(t, guilds, 2)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	_, err = user.Guilds(context.Background(), true)
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}
