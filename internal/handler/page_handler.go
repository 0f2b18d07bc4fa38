/*
Package handler provides the HTTP handlers and routing setup for the Rowboat dashboard.

This file contains the page handlers. Pages are rendered server-side from the
session's state container: the dashboard lists the user's guilds, the guild
pages mark their guild as the current selection for sidebar highlighting, and
a guild ID outside the user's own list renders an explicit not-found page.
*/
package handler

import (
	"embed"
	"html/template"
	"net/http"

	"github.com/go-chi/chi/v5"

	"rowboatweb/internal/app/state"
	"rowboatweb/internal/pkg/errs"
	"rowboatweb/internal/pkg/logx"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// pageData is the common payload handed to every page template.
type pageData struct {
	Title string
	User  *state.User

	// Guild is set on guild-scoped pages; it is also the current selection.
	Guild *state.Guild

	// Config holds the editor contents on the config page.
	ConfigContents string
	ConfigValid    bool

	// Guilds holds the dashboard listing, ordered by guild ID.
	Guilds []*state.Guild
}

// render writes a template with the given status, falling back to a plain 500
// if template execution itself fails.
func render(w http.ResponseWriter, status int, name string, data pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)

	if err := templates.ExecuteTemplate(w, name, data); err != nil {
		logx.Error(err, "Failed to render template", "template", name)
	}
}

// HandleLoginPage renders the login page, or bounces straight to the dashboard
// when a valid session already exists.
func HandleLoginPage(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if currentUser(r) != nil {
			http.Redirect(w, r, "/", http.StatusFound)
			return
		}

		render(w, http.StatusOK, "login.html", pageData{Title: "Login"})
	}
}

// HandleDashboard renders the guild listing. No guild-scoped view is active
// here, so the current guild selection is cleared.
func HandleDashboard(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st := GetState(r)
		st.ClearCurrentGuild()

		user, err := st.CurrentUser(r.Context(), false)
		if err != nil {
			http.Redirect(w, r, "/login", http.StatusFound)
			return
		}

		guilds, err := user.Guilds(r.Context(), false)
		if err != nil {
			logx.Warn("Guild list fetch for dashboard failed", "error", err)
			render(w, http.StatusBadGateway, "error.html", pageData{Title: "Error", User: user})
			return
		}

		render(w, http.StatusOK, "dashboard.html", pageData{
			Title:  "Dashboard",
			User:   user,
			Guilds: sortedGuilds(guilds),
		})
	}
}

// resolveGuildPage loads the guild for a guild-scoped page and marks it as the
// current selection. A guild outside the user's list renders the not-found page
// and returns nil.
func resolveGuildPage(deps *AppDeps, w http.ResponseWriter, r *http.Request) *state.Guild {
	st := GetState(r)

	guild, err := st.Guild(r.Context(), chi.URLParam(r, "guildID"))
	if err != nil {
		st.ClearCurrentGuild()

		if errs.IsGuildNotFound(err) {
			render(w, http.StatusNotFound, "notfound.html", pageData{Title: "Not Found", User: st.CachedUser()})
			return nil
		}

		logx.Warn("Guild resolution for page failed", "guild_id", chi.URLParam(r, "guildID"), "error", err)
		render(w, http.StatusBadGateway, "error.html", pageData{Title: "Error", User: st.CachedUser()})
		return nil
	}

	if err := st.SetCurrentGuild(guild); err != nil {
		logx.Warn("Failed to set current guild", "guild_id", guild.ID, "error", err)
	}

	return guild
}

// HandleGuildOverview renders the guild overview page.
func HandleGuildOverview(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		guild := resolveGuildPage(deps, w, r)
		if guild == nil {
			return
		}

		render(w, http.StatusOK, "guild_overview.html", pageData{
			Title: guild.Name,
			User:  GetState(r).CachedUser(),
			Guild: guild,
		})
	}
}

// HandleGuildConfigPage renders the configuration editor with the current
// (cached or freshly fetched) configuration text.
func HandleGuildConfigPage(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		guild := resolveGuildPage(deps, w, r)
		if guild == nil {
			return
		}

		config, err := guild.Config(r.Context(), false)
		if err != nil {
			logx.Warn("Config fetch for editor failed", "guild_id", guild.ID, "error", err)
			render(w, http.StatusBadGateway, "error.html", pageData{Title: "Error", User: GetState(r).CachedUser()})
			return
		}

		render(w, http.StatusOK, "guild_config.html", pageData{
			Title:          guild.Name + " - Config",
			User:           GetState(r).CachedUser(),
			Guild:          guild,
			ConfigContents: config.Contents,
			ConfigValid:    config.Valid,
		})
	}
}

// HandleGuildInfractionsPage renders the infractions browser shell; the table
// itself is filled in by the page script through the JSON route.
func HandleGuildInfractionsPage(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		guild := resolveGuildPage(deps, w, r)
		if guild == nil {
			return
		}

		render(w, http.StatusOK, "guild_infractions.html", pageData{
			Title: guild.Name + " - Infractions",
			User:  GetState(r).CachedUser(),
			Guild: guild,
		})
	}
}
