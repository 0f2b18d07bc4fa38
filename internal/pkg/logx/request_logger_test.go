package logx

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnonymizeIP(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"203.0.113.77:51234", "203.0.113.0"},
		{"203.0.113.77", "203.0.113.0"},
		{"127.0.0.1:8080", "127.0.0.1"},
		{"[2001:db8:1:2:3:4:5:6]:443", "2001:db8:1:2::"},
		{"garbage", "unknown_ip"},
		{"", "unknown_ip"},
	}

	for _, tc := range tests {
		assert.Equal(t, tc.want, anonymizeIP(tc.in), "input %q", tc.in)
	}
}

// captureLog swaps the global logger for a buffer-backed one for the duration
// of the test.
func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()

	var buf bytes.Buffer
	previous := log.Logger
	log.Logger = zerolog.New(&buf)
	t.Cleanup(func() { log.Logger = previous })

	return &buf
}

func TestRequestLoggerRecordsSessionAndGuild(t *testing.T) {
	buf := captureLog(t)

	r := chi.NewRouter()
	r.Use(RequestLogger("rowboat_session"))
	r.Get("/guilds/{guildID}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/guilds/100", nil)
	req.AddCookie(&http.Cookie{Name: "rowboat_session", Value: "secret-cookie"})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	line := buf.String()
	assert.Contains(t, line, `"session":true`)
	assert.Contains(t, line, `"guild_id":"100"`)
	assert.Contains(t, line, `"status":200`)
	assert.NotContains(t, line, "secret-cookie", "cookie values must never reach the log")
}

func TestRequestLoggerMarksAnonymousRequests(t *testing.T) {
	buf := captureLog(t)

	r := chi.NewRouter()
	r.Use(RequestLogger("rowboat_session"))
	r.Get("/login", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/login", nil))

	line := buf.String()
	assert.Contains(t, line, `"session":false`)
	assert.NotContains(t, line, `"guild_id"`)
}
