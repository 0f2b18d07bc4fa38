/*
Package session maps incoming browser requests onto their state containers.

The backend session cookie is the identity of a browser session. The Manager
keeps one state.State per cookie, keyed by a digest of the cookie value, in a
bounded expirable LRU. Eviction only drops ephemeral caches; the next request
from the same browser simply rebuilds its container.
*/
package session

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"sync"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/rs/zerolog"

	"rowboatweb/internal/app/api"
	"rowboatweb/internal/app/state"
	"rowboatweb/internal/configs"
	"rowboatweb/internal/pkg/logx"
)

// Manager owns the registry of per-browser-session state containers.
type Manager struct {
	cfg      *configs.AppConfig
	sessions *expirable.LRU[string, *state.State]

	// mu serializes container creation so two concurrent requests from the
	// same new browser session share one container instead of racing two.
	mu sync.Mutex

	logger zerolog.Logger
}

// NewManager constructs a Manager sized and aged per configuration.
func NewManager(cfg *configs.AppConfig) *Manager {
	return &Manager{
		cfg:      cfg,
		sessions: expirable.NewLRU[string, *state.State](cfg.MaxSessions, nil, cfg.SessionTTL),
		logger:   logx.Logger().With().Str("component", "sessions").Logger(),
	}
}

// Resolve returns the state container for the request's backend session cookie
// together with its registry key. Requests without the cookie are anonymous and
// get (nil, "").
func (m *Manager) Resolve(r *http.Request) (*state.State, string) {
	cookie, err := r.Cookie(m.cfg.SessionCookie)
	if err != nil || cookie.Value == "" {
		return nil, ""
	}

	key := Key(cookie.Value)

	if st, ok := m.sessions.Get(key); ok {
		return st, key
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if st, ok := m.sessions.Get(key); ok {
		return st, key
	}

	st := state.New(api.NewClient(m.cfg.BackendURL, cookie))
	m.sessions.Add(key, st)

	m.logger.Debug().Int("sessions", m.sessions.Len()).Msg("New session container created")

	return st, key
}

// Lookup returns the state container stored under the given registry key.
// It is used by the notification stream, which authenticates with a stream
// token instead of the cookie.
func (m *Manager) Lookup(key string) (*state.State, bool) {
	return m.sessions.Get(key)
}

// Len returns the number of live session containers.
func (m *Manager) Len() int {
	return m.sessions.Len()
}

// Key digests a session cookie value into a registry key. Raw session secrets
// are never used as map keys or written to logs.
func Key(cookieValue string) string {
	sum := sha256.Sum256([]byte(cookieValue))
	return hex.EncodeToString(sum[:])
}
