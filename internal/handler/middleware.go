/*
Package handler provides the HTTP handlers and routing setup for the Rowboat dashboard.

This file contains the session middleware: every request is resolved to its
state container (or anonymous), the container is initialized on first contact,
and downstream handlers pull it out of the request context. It also defines the
authentication gates for page and API routes.
*/
package handler

import (
	"context"
	"net/http"

	"rowboatweb/internal/app/state"
	"rowboatweb/internal/pkg/errs"
	"rowboatweb/internal/pkg/resp"
)

// Define Context Keys for storing session data, preventing key collisions with other packages.
type contextKey string

const (
	// ContextStateKey is the key used to store the session's state container in the request Context.
	ContextStateKey contextKey = "session_state"

	// ContextSessionKey is the key used to store the session registry key in the request Context.
	ContextSessionKey contextKey = "session_key"
)

// SessionResolver resolves the browser's backend session cookie to its state
// container and injects it into the request context. Requests without a cookie
// pass through as anonymous; the container's Initialize is idempotent, so
// calling it on every request only triggers the session check once.
func SessionResolver(deps *AppDeps) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			st, key := deps.Sessions.Resolve(r)
			if st == nil {
				next.ServeHTTP(w, r)
				return
			}

			st.Initialize(r.Context())

			ctx := context.WithValue(r.Context(), ContextStateKey, st)
			ctx = context.WithValue(ctx, ContextSessionKey, key)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetState safely extracts the session's state container from the request Context.
// A nil return means the request is anonymous.
func GetState(r *http.Request) *state.State {
	st, ok := r.Context().Value(ContextStateKey).(*state.State)
	if !ok {
		return nil
	}
	return st
}

// GetSessionKey safely extracts the session registry key from the request Context.
func GetSessionKey(r *http.Request) string {
	key, ok := r.Context().Value(ContextSessionKey).(string)
	if !ok {
		return ""
	}
	return key
}

// currentUser resolves the signed-in user for the request, or nil when the
// session is anonymous or invalid.
func currentUser(r *http.Request) *state.User {
	st := GetState(r)
	if st == nil {
		return nil
	}

	user, err := st.CurrentUser(r.Context(), false)
	if err != nil {
		return nil
	}
	return user
}

// RequirePageUser gates page routes behind authentication. Unauthenticated
// requests are redirected to the login page.
func RequirePageUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if currentUser(r) == nil {
			http.Redirect(w, r, "/login", http.StatusFound)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// RequireAPIUser gates JSON routes behind authentication. Unauthenticated
// requests receive the standard 401 error envelope.
func RequireAPIUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if currentUser(r) == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrNotAuthenticated))
			return
		}

		next.ServeHTTP(w, r)
	})
}
