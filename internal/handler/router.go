/*
Package handler provides the HTTP handlers and routing setup for the Rowboat dashboard.

This file defines the main Router, applying necessary middleware like logging, CORS,
and IP-based rate limiting before delegating requests to specific handlers
(pages, JSON API, OAuth proxy, and the notification stream).
*/
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/rs/cors"
	"golang.org/x/time/rate"

	"rowboatweb/internal/pkg/limiter"
	"rowboatweb/internal/pkg/logx"
	"rowboatweb/internal/pkg/resp"
)

const (
	// WriteRate limits config writes and guild deletions per IP.
	WriteRate  = 0.5
	WriteBurst = 5

	// StreamRate limits notification stream upgrade attempts per IP.
	StreamRate  = 0.2
	StreamBurst = 5
)

// Router sets up the main HTTP routing table (chi.Router) for the application.
// It initializes IP-based rate limiters, configures CORS, and applies global and per-route middleware.
func Router(deps *AppDeps) (http.Handler, error) {
	writeLimiter := limiter.NewIPRateLimiter(rate.Limit(WriteRate), WriteBurst)
	streamLimiter := limiter.NewIPRateLimiter(rate.Limit(StreamRate), StreamBurst)

	authProxy, err := NewAuthProxy(deps.Config.BackendURL)
	if err != nil {
		return nil, err
	}

	allowedOrigins := make(map[string]struct{})
	for _, origin := range deps.Config.AllowedOrigins {
		allowedOrigins[origin] = struct{}{}
	}

	wsUpgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if deps.Config.Environment == "development" {
				return true
			}

			origin := r.Header.Get("Origin")
			if _, ok := allowedOrigins[origin]; ok {
				return true
			}

			logx.Warn("WebSocket connection rejected: Origin not allowed.", "origin", origin)
			return false
		},
	}

	corsAllowedOrigins := []string{}
	if deps.Config.Environment == "development" {
		corsAllowedOrigins = []string{"*"}
	} else if len(deps.Config.AllowedOrigins) > 0 {
		corsAllowedOrigins = deps.Config.AllowedOrigins
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   corsAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		ExposedHeaders:   []string{},
		AllowCredentials: true,
		MaxAge:           300,
	})

	r := chi.NewRouter()

	r.Use(c.Handler)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logx.RequestLogger(deps.Config.SessionCookie))
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		data := map[string]string{
			"status":  "ok",
			"service": "Rowboat Dashboard",
		}
		resp.RespondSuccess(w, r, data)
	})

	// OAuth entry points are forwarded to the backend; the session cookie it
	// sets belongs to this origin.
	r.Handle("/api/auth/discord", HandleAuthProxy(authProxy))
	r.Handle("/api/auth/discord/callback", HandleAuthProxy(authProxy))

	r.Group(func(app chi.Router) {
		app.Use(SessionResolver(deps))

		app.Get("/login", HandleLoginPage(deps))

		app.Group(func(pages chi.Router) {
			pages.Use(RequirePageUser)

			pages.Get("/", HandleDashboard(deps))
			pages.Get("/guilds/{guildID}", HandleGuildOverview(deps))
			pages.Get("/guilds/{guildID}/config", HandleGuildConfigPage(deps))
			pages.Get("/guilds/{guildID}/infractions", HandleGuildInfractionsPage(deps))
		})

		app.Route("/api", func(api chi.Router) {
			api.Use(RequireAPIUser)

			api.Get("/users/@me", HandleMe(deps))
			api.Get("/users/@me/guilds", HandleMyGuilds(deps))
			api.Post("/auth/logout", HandleLogout(deps))
			api.Get("/stream/token", HandleStreamToken(deps))

			api.Route("/guilds/{guildID}", func(guild chi.Router) {
				guild.Get("/", HandleGuild(deps))
				guild.Get("/config", HandleGetConfig(deps))
				guild.Get("/infractions", HandleInfractions(deps))

				guild.With(writeLimiter.Middleware).Post("/config", HandleSaveConfig(deps))
				guild.With(writeLimiter.Middleware).Delete("/", HandleDeleteGuild(deps))
			})
		})
	})

	r.Get("/ws/stream", HandleStream(deps, wsUpgrader, streamLimiter))

	return r, nil
}
