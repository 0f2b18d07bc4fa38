/*
Package handler provides the HTTP handler function for the notification stream upgrade.

This file contains the HandleStream function, which is responsible for rate limiting,
validating the stream token, locating the session's state container, upgrading the
HTTP connection to WebSocket, and attaching the client to the notification hub.
*/
package handler

import (
	"net"
	"net/http"

	"github.com/gorilla/websocket"

	"rowboatweb/internal/pkg/auth/streamtoken"
	"rowboatweb/internal/pkg/errs"
	"rowboatweb/internal/pkg/limiter"
	"rowboatweb/internal/pkg/logx"
	"rowboatweb/internal/pkg/resp"
)

// HandleStream creates an HTTP HandlerFunc to process notification stream connection requests.
func HandleStream(deps *AppDeps, upgrader websocket.Upgrader, rateLimiter *limiter.IPRateLimiter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			ip = r.RemoteAddr
		}

		if ip == "" {
			ip = "unknown_ip"
		}

		if !rateLimiter.GetLimiter(ip).Allow() {
			logx.Warn("Stream connection rejected: Rate limit exceeded.", "ip", ip)
			resp.RespondError(w, r, errs.NewError(errs.ErrRateLimitExceeded))
			return
		}

		tokenString := r.URL.Query().Get("token")
		if tokenString == "" {
			logx.Warn("Stream request rejected: Missing token query parameter")
			resp.RespondError(w, r, errs.NewError(errs.ErrStreamTokenInvalid))
			return
		}

		payload, err := streamtoken.ParseToken(tokenString, deps.Config.StreamTokenSecret)
		if err != nil {
			logx.Warn("Stream request rejected: Invalid token", "error", err)
			resp.RespondError(w, r, errs.NewError(errs.ErrStreamTokenInvalid))
			return
		}

		st, ok := deps.Sessions.Lookup(payload.SessionKey)
		if !ok {
			// The session container aged out between token mint and upgrade.
			logx.Info("Stream request rejected: Session no longer present.", "user_id", payload.UserID)
			resp.RespondError(w, r, errs.NewError(errs.ErrStreamTokenInvalid))
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logx.Error(err, "Failed to upgrade connection to WebSocket")
			return
		}

		client := deps.Hub.Attach(conn, st)

		logx.Info("Notification stream established", "client_id", client.ID, "user_id", payload.UserID)
	}
}
