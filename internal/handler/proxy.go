/*
Package handler provides the HTTP handlers and routing setup for the Rowboat dashboard.

This file contains the OAuth reverse proxy. The dashboard never implements
Discord OAuth itself: the login entry point and its callback are forwarded to
the moderation backend so the whole flow runs on the dashboard's origin and the
backend's session cookie lands on the shared domain.
*/
package handler

import (
	"net/http"
	"net/http/httputil"
	"net/url"

	"rowboatweb/internal/pkg/logx"
	"rowboatweb/internal/pkg/resp"
)

// NewAuthProxy builds the reverse proxy handler for the backend's OAuth routes.
func NewAuthProxy(backendURL string) (http.Handler, error) {
	target, err := url.Parse(backendURL)
	if err != nil {
		return nil, err
	}

	proxy := httputil.NewSingleHostReverseProxy(target)

	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		logx.Error(err, "OAuth proxy request failed", "path", r.URL.Path)
		http.Error(w, "The moderation backend could not be reached.", http.StatusBadGateway)
	}

	return proxy, nil
}

// HandleAuthProxy wraps the proxy so non-OAuth paths cannot be tunneled through it.
func HandleAuthProxy(proxy http.Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/auth/discord", "/api/auth/discord/callback":
			proxy.ServeHTTP(w, r)
		default:
			resp.RespondJSON(w, r, http.StatusNotFound, map[string]string{"error": "not found"})
		}
	}
}
