/*
Package api contains the typed HTTP client for the Rowboat moderation backend.

This file defines the Client struct, one instance of which exists per browser
session. Every request forwards that session's backend cookie, so the backend
sees the browser's own authentication. Transport failures, authentication
failures, and authorization failures are mapped onto the errs taxonomy; the
client never retries on its own.
*/
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"rowboatweb/internal/pkg/errs"
	"rowboatweb/internal/pkg/logx"
)

const (
	// requestTimeout bounds a single backend round trip. The backend contract
	// specifies no timeout policy, so this is a transport-level safety net only.
	requestTimeout = 30 * time.Second
)

// Client issues REST calls against the moderation backend on behalf of one
// browser session.
type Client struct {
	baseURL string
	http    *http.Client

	// cookie is the backend session cookie taken from the incoming browser
	// request. It is attached to every outgoing call.
	cookie *http.Cookie

	logger zerolog.Logger
}

// NewClient constructs a Client for the given backend base URL and session cookie.
// A nil cookie produces an anonymous client whose calls will fail with a 401 from
// the backend; that path is only exercised by the session check itself.
func NewClient(baseURL string, cookie *http.Cookie) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: requestTimeout},
		cookie:  cookie,
		logger:  logx.Logger().With().Str("component", "api_client").Logger(),
	}
}

// CurrentUser fetches the user attached to the session (GET /api/users/@me).
// A 401 from the backend surfaces as ErrNotAuthenticated.
func (c *Client) CurrentUser(ctx context.Context) (*User, error) {
	var user User
	if err := c.getJSON(ctx, "/api/users/@me", nil, &user, c.checkStatus); err != nil {
		return nil, err
	}
	return &user, nil
}

// Logout destroys the backend session (POST /api/auth/logout).
func (c *Client) Logout(ctx context.Context) error {
	res, err := c.do(ctx, http.MethodPost, "/api/auth/logout", nil, "")
	if err != nil {
		return err
	}
	defer res.Body.Close()

	return c.checkStatus(res)
}

// Guilds fetches the guild list for the current user, each entry carrying the
// user's role in that guild (GET /api/users/@me/guilds).
func (c *Client) Guilds(ctx context.Context) ([]Guild, error) {
	var guilds []Guild
	if err := c.getJSON(ctx, "/api/users/@me/guilds", nil, &guilds, c.checkStatus); err != nil {
		return nil, err
	}
	return guilds, nil
}

// Guild fetches a single guild's metadata (GET /api/guilds/{id}).
func (c *Client) Guild(ctx context.Context, guildID string) (*Guild, error) {
	var guild Guild
	if err := c.getJSON(ctx, "/api/guilds/"+url.PathEscape(guildID), nil, &guild, c.checkGuildStatus); err != nil {
		return nil, err
	}
	return &guild, nil
}

// Config fetches a guild's YAML configuration text and validity flag
// (GET /api/guilds/{id}/config).
func (c *Client) Config(ctx context.Context, guildID string) (*GuildConfig, error) {
	var config GuildConfig
	if err := c.getJSON(ctx, "/api/guilds/"+url.PathEscape(guildID)+"/config", nil, &config, c.checkGuildStatus); err != nil {
		return nil, err
	}
	return &config, nil
}

// SaveConfig submits new configuration contents (POST /api/guilds/{id}/config).
// A 400 means the backend rejected the YAML; its validation message is surfaced
// verbatim via ErrConfigRejected.
func (c *Client) SaveConfig(ctx context.Context, guildID string, contents string) error {
	body, err := json.Marshal(map[string]string{"config": contents})
	if err != nil {
		return errs.NewError(errs.ErrUnknown, err)
	}

	res, err := c.do(ctx, http.MethodPost, "/api/guilds/"+url.PathEscape(guildID)+"/config", bytes.NewReader(body), "application/json")
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusBadRequest {
		return errs.NewErrorMessage(errs.ErrConfigRejected, readErrorMessage(res.Body))
	}

	return c.checkGuildStatus(res)
}

// Infractions fetches one page of a guild's infraction list
// (GET /api/guilds/{id}/infractions). The sorted and filtered specs are
// serialized as JSON arrays in the query string.
func (c *Client) Infractions(ctx context.Context, guildID string, query InfractionQuery) (*InfractionPage, error) {
	values := url.Values{}
	values.Set("page", strconv.Itoa(query.Page))
	values.Set("limit", strconv.Itoa(query.Limit))

	if len(query.Sorted) > 0 {
		sorted, err := json.Marshal(query.Sorted)
		if err != nil {
			return nil, errs.NewError(errs.ErrUnknown, err)
		}
		values.Set("sorted", string(sorted))
	}

	if len(query.Filtered) > 0 {
		filtered, err := json.Marshal(query.Filtered)
		if err != nil {
			return nil, errs.NewError(errs.ErrUnknown, err)
		}
		values.Set("filtered", string(filtered))
	}

	var page InfractionPage
	if err := c.getJSON(ctx, "/api/guilds/"+url.PathEscape(guildID)+"/infractions", values, &page, c.checkGuildStatus); err != nil {
		return nil, err
	}
	return &page, nil
}

// DeleteGuild removes the guild from the bot (DELETE /api/guilds/{id}).
// The backend enforces the admin-only rule; any non-2xx is a hard failure.
func (c *Client) DeleteGuild(ctx context.Context, guildID string) error {
	res, err := c.do(ctx, http.MethodDelete, "/api/guilds/"+url.PathEscape(guildID), nil, "")
	if err != nil {
		return err
	}
	defer res.Body.Close()

	return c.checkGuildStatus(res)
}

// getJSON performs a GET request, maps the status through check, and decodes
// the JSON body into dst.
func (c *Client) getJSON(ctx context.Context, path string, query url.Values, dst any, check func(*http.Response) error) error {
	requestPath := path
	if len(query) > 0 {
		requestPath = path + "?" + query.Encode()
	}

	res, err := c.do(ctx, http.MethodGet, requestPath, nil, "")
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if err := check(res); err != nil {
		return err
	}

	if err := json.NewDecoder(res.Body).Decode(dst); err != nil {
		c.logger.Warn().Err(err).Str("path", path).Msg("Failed to decode backend response")
		return errs.NewError(errs.ErrBackendResponseInvalid)
	}

	return nil
}

// do builds and executes one backend request, attaching the session cookie.
// Transport-level failures surface as ErrBackendUnreachable.
func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, errs.NewError(errs.ErrUnknown, err)
	}

	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	if c.cookie != nil {
		req.AddCookie(c.cookie)
	}

	res, err := c.http.Do(req)
	if err != nil {
		// Context cancellation belongs to the caller, not the transport.
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		c.logger.Warn().Err(err).Str("method", method).Str("path", path).Msg("Backend request failed")
		return nil, errs.NewError(errs.ErrBackendUnreachable)
	}

	return res, nil
}

// checkStatus maps non-2xx backend statuses onto the errs taxonomy. A 404 here
// means the backend route itself is missing, which is an unexpected response,
// not a missing guild.
func (c *Client) checkStatus(res *http.Response) error {
	if res.StatusCode >= 200 && res.StatusCode < 300 {
		return nil
	}

	switch res.StatusCode {
	case http.StatusUnauthorized:
		return errs.NewError(errs.ErrNotAuthenticated)
	case http.StatusForbidden:
		return errs.NewError(errs.ErrNotPermitted)
	default:
		c.logger.Warn().Int("status", res.StatusCode).Str("url", res.Request.URL.Path).Msg("Unexpected backend status")
		return errs.NewError(errs.ErrBackendResponseInvalid)
	}
}

// checkGuildStatus maps statuses for guild-scoped endpoints, where a 404 means
// the guild is gone rather than a broken backend.
func (c *Client) checkGuildStatus(res *http.Response) error {
	if res.StatusCode == http.StatusNotFound {
		return errs.NewError(errs.ErrGuildNotFound)
	}

	return c.checkStatus(res)
}

// readErrorMessage extracts a human-readable message from an error body. The
// backend answers config rejections either as a bare string or as a JSON object
// with a "message" field; both forms are accepted.
func readErrorMessage(body io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(body, 64<<10))
	if err != nil || len(raw) == 0 {
		return ""
	}

	var structured struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &structured); err == nil && structured.Message != "" {
		return structured.Message
	}

	var plain string
	if err := json.Unmarshal(raw, &plain); err == nil && plain != "" {
		return plain
	}

	return string(raw)
}

// String implements fmt.Stringer for log context without leaking the cookie value.
func (c *Client) String() string {
	return fmt.Sprintf("api.Client(%s)", c.baseURL)
}
