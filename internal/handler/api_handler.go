/*
Package handler provides the HTTP handlers and routing setup for the Rowboat dashboard.

This file contains the JSON handlers the dashboard pages call from their
scripts. The routes mirror the backend's REST paths, but every one of them is
served from the session's state container, so the caches and in-flight
coalescing in the state layer front all browser traffic.
*/
package handler

import (
	"net/http"
	"sort"
	"strconv"

	"github.com/go-chi/chi/v5"

	"rowboatweb/internal/app/api"
	"rowboatweb/internal/app/state"
	"rowboatweb/internal/pkg/auth/streamtoken"
	"rowboatweb/internal/pkg/errs"
	"rowboatweb/internal/pkg/logx"
	"rowboatweb/internal/pkg/req"
	"rowboatweb/internal/pkg/resp"
)

// maxInfractionsPageSize caps the per-page row count a browser may request.
const maxInfractionsPageSize = 100

// userPayload shapes a session user for JSON responses.
func userPayload(user *state.User) map[string]any {
	return map[string]any{
		"id":            user.ID,
		"username":      user.Username,
		"discriminator": user.Discriminator,
		"avatar":        user.Avatar,
		"bot":           user.Bot,
		"admin":         user.Admin,
	}
}

// guildPayload shapes a guild model for JSON responses.
func guildPayload(guild *state.Guild) map[string]any {
	return map[string]any{
		"id":       guild.ID,
		"owner_id": guild.OwnerID,
		"name":     guild.Name,
		"icon":     guild.IconURL(),
		"splash":   guild.Splash,
		"region":   guild.Region,
		"enabled":  guild.Enabled,
		"role":     string(guild.Role),
	}
}

// HandleMe returns the session's user identity.
func HandleMe(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := GetState(r).CurrentUser(r.Context(), false)
		if err != nil {
			resp.RespondAppError(w, r, err)
			return
		}

		resp.RespondSuccess(w, r, userPayload(user))
	}
}

// HandleLogout destroys the backend session and clears the session container.
func HandleLogout(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := GetState(r).Logout(r.Context()); err != nil {
			resp.RespondAppError(w, r, err)
			return
		}

		resp.RespondSuccess(w, r, nil)
	}
}

// HandleMyGuilds returns the user's guild list, sorted by guild ID for stable display.
func HandleMyGuilds(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		forceRefresh := r.URL.Query().Get("refresh") == "1"

		user, err := GetState(r).CurrentUser(r.Context(), false)
		if err != nil {
			resp.RespondAppError(w, r, err)
			return
		}

		guilds, err := user.Guilds(r.Context(), forceRefresh)
		if err != nil {
			resp.RespondAppError(w, r, err)
			return
		}

		payload := make([]map[string]any, 0, len(guilds))
		for _, guild := range sortedGuilds(guilds) {
			payload = append(payload, guildPayload(guild))
		}

		resp.RespondSuccess(w, r, payload)
	}
}

// sortedGuilds flattens the guild mapping into a slice ordered by guild ID.
// The mapping itself is unordered; ordering is purely a display concern.
func sortedGuilds(guilds map[string]*state.Guild) []*state.Guild {
	list := make([]*state.Guild, 0, len(guilds))
	for _, guild := range guilds {
		list = append(list, guild)
	}

	sort.Slice(list, func(i, j int) bool {
		return list[i].ID < list[j].ID
	})

	return list
}

// HandleGuild returns a single guild from the user's own guild list.
func HandleGuild(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		guild, err := GetState(r).Guild(r.Context(), chi.URLParam(r, "guildID"))
		if err != nil {
			resp.RespondAppError(w, r, err)
			return
		}

		resp.RespondSuccess(w, r, guildPayload(guild))
	}
}

// HandleGetConfig returns a guild's configuration text and validity flag.
// The refresh query parameter bypasses the cache.
func HandleGetConfig(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		guild, err := GetState(r).Guild(r.Context(), chi.URLParam(r, "guildID"))
		if err != nil {
			resp.RespondAppError(w, r, err)
			return
		}

		config, err := guild.Config(r.Context(), r.URL.Query().Get("refresh") == "1")
		if err != nil {
			resp.RespondAppError(w, r, err)
			return
		}

		resp.RespondSuccess(w, r, map[string]any{
			"contents": config.Contents,
			"valid":    config.Valid,
		})
	}
}

type saveConfigInput struct {
	Config string `json:"config"`
}

// HandleSaveConfig submits new configuration contents. The viewer role is
// refused before any backend call; the backend still re-checks on its side, and
// its validation message is surfaced verbatim on rejection.
func HandleSaveConfig(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		guild, err := GetState(r).Guild(r.Context(), chi.URLParam(r, "guildID"))
		if err != nil {
			resp.RespondAppError(w, r, err)
			return
		}

		if !guild.Role.CanEditConfig() {
			resp.RespondError(w, r, errs.NewError(errs.ErrNotPermitted))
			return
		}

		var input saveConfigInput
		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		if err := guild.SaveConfig(r.Context(), input.Config); err != nil {
			resp.RespondAppError(w, r, err)
			return
		}

		resp.RespondSuccess(w, r, nil)
	}
}

// HandleInfractions returns one page of a guild's infraction list. The query
// parameters mirror the backend wire format: page, limit, and JSON-encoded
// sorted/filtered arrays.
func HandleInfractions(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		guild, err := GetState(r).Guild(r.Context(), chi.URLParam(r, "guildID"))
		if err != nil {
			resp.RespondAppError(w, r, err)
			return
		}

		query, customErr := parseInfractionQuery(r)
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		page, err := guild.Infractions(r.Context(), query)
		if err != nil {
			resp.RespondAppError(w, r, err)
			return
		}

		resp.RespondSuccess(w, r, page)
	}
}

// parseInfractionQuery decodes the listing query parameters.
func parseInfractionQuery(r *http.Request) (api.InfractionQuery, *errs.CustomError) {
	values := r.URL.Query()
	query := api.InfractionQuery{Page: 0, Limit: 20}

	if pageStr := values.Get("page"); pageStr != "" {
		page, err := strconv.Atoi(pageStr)
		if err != nil || page < 0 {
			return query, errs.NewError(errs.ErrInfractionQueryInvalid)
		}
		query.Page = page
	}

	if limitStr := values.Get("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit < 1 || limit > maxInfractionsPageSize {
			return query, errs.NewError(errs.ErrInfractionQueryInvalid)
		}
		query.Limit = limit
	}

	if sortedStr := values.Get("sorted"); sortedStr != "" {
		if customErr := req.DecodeJSONParam(sortedStr, &query.Sorted); customErr != nil {
			return query, errs.NewError(errs.ErrInfractionQueryInvalid)
		}
	}

	if filteredStr := values.Get("filtered"); filteredStr != "" {
		if customErr := req.DecodeJSONParam(filteredStr, &query.Filtered); customErr != nil {
			return query, errs.NewError(errs.ErrInfractionQueryInvalid)
		}
	}

	return query, nil
}

// HandleDeleteGuild removes the guild from the bot. Only admins see the action
// in the UI and only admins pass this gate; the backend enforces it again.
func HandleDeleteGuild(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st := GetState(r)

		guild, err := st.Guild(r.Context(), chi.URLParam(r, "guildID"))
		if err != nil {
			resp.RespondAppError(w, r, err)
			return
		}

		if !guild.Role.CanDelete() {
			resp.RespondError(w, r, errs.NewError(errs.ErrNotPermitted))
			return
		}

		if err := guild.Delete(r.Context()); err != nil {
			resp.RespondAppError(w, r, err)
			return
		}

		// The guild list is now stale; refetch so the mapping drops the guild.
		if user := st.CachedUser(); user != nil {
			if _, err := user.Guilds(r.Context(), true); err != nil {
				logx.Warn("Guild list refresh after deletion failed", "guild_id", guild.ID, "error", err)
			}
		}

		st.ClearCurrentGuild()

		resp.RespondSuccess(w, r, nil)
	}
}

// HandleStreamToken mints a short-lived token that authenticates the
// notification stream upgrade for this session.
func HandleStreamToken(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := GetState(r).CurrentUser(r.Context(), false)
		if err != nil {
			resp.RespondAppError(w, r, err)
			return
		}

		payload := &streamtoken.Payload{
			SessionKey: GetSessionKey(r),
			UserID:     user.ID,
		}

		token, err := streamtoken.GenerateToken(payload, deps.Config.StreamTokenSecret, streamtoken.StreamTokenExpiration)
		if err != nil {
			logx.Error(err, "Failed to generate stream token", "user_id", user.ID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		resp.RespondSuccess(w, r, map[string]any{
			"token": token,
		})
	}
}
