package session

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rowboatweb/internal/configs"
)

func testConfig() *configs.AppConfig {
	return &configs.AppConfig{
		Environment:   "development",
		BackendURL:    "http://localhost:8000",
		SessionCookie: "rowboat_session",
		MaxSessions:   8,
		SessionTTL:    time.Minute,
	}
}

func requestWithCookie(value string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	if value != "" {
		r.AddCookie(&http.Cookie{Name: "rowboat_session", Value: value})
	}
	return r
}

func TestResolveIsStablePerCookie(t *testing.T) {
	m := NewManager(testConfig())

	first, firstKey := m.Resolve(requestWithCookie("alpha"))
	require.NotNil(t, first)
	require.NotEmpty(t, firstKey)

	second, secondKey := m.Resolve(requestWithCookie("alpha"))
	assert.Same(t, first, second, "the same cookie must map to the same container")
	assert.Equal(t, firstKey, secondKey)
	assert.Equal(t, 1, m.Len())

	other, otherKey := m.Resolve(requestWithCookie("beta"))
	assert.NotSame(t, first, other)
	assert.NotEqual(t, firstKey, otherKey)
	assert.Equal(t, 2, m.Len())
}

func TestResolveAnonymousRequest(t *testing.T) {
	m := NewManager(testConfig())

	st, key := m.Resolve(requestWithCookie(""))
	assert.Nil(t, st)
	assert.Empty(t, key)
	assert.Equal(t, 0, m.Len())
}

func TestLookupByRegistryKey(t *testing.T) {
	m := NewManager(testConfig())

	st, key := m.Resolve(requestWithCookie("alpha"))
	require.NotNil(t, st)

	found, ok := m.Lookup(key)
	require.True(t, ok)
	assert.Same(t, st, found)

	_, ok = m.Lookup(Key("never-seen"))
	assert.False(t, ok)
}

func TestKeyDigestsCookieValue(t *testing.T) {
	key := Key("alpha")

	assert.Len(t, key, 64)
	assert.NotContains(t, key, "alpha", "raw cookie values must never appear in registry keys")
	assert.Equal(t, key, Key("alpha"))
	assert.NotEqual(t, key, Key("beta"))
}

func TestRegistryIsBounded(t *testing.T) {
	cfg := testConfig()
	cfg.MaxSessions = 2
	m := NewManager(cfg)

	m.Resolve(requestWithCookie("one"))
	m.Resolve(requestWithCookie("two"))
	m.Resolve(requestWithCookie("three"))

	assert.Equal(t, 2, m.Len(), "the registry must evict beyond its size bound")
}
