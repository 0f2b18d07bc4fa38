/*
Package api contains the typed HTTP client for the Rowboat moderation backend.

This file defines the wire types exchanged with the backend REST surface: the
authenticated user, guilds with the viewer's role, the guild configuration blob,
and infraction records with their listing query and page envelope.
*/
package api

import "time"

// User is the identity of the authenticated session as reported by the backend.
type User struct {
	ID            string `json:"id"`
	Username      string `json:"username"`
	Discriminator string `json:"discriminator"`
	Avatar        string `json:"avatar"`
	Bot           bool   `json:"bot"`
	Admin         bool   `json:"admin"`
}

// Guild is a Discord server the bot moderates, together with the requesting
// user's role in it.
type Guild struct {
	ID        string   `json:"id"`
	OwnerID   string   `json:"owner_id"`
	Name      string   `json:"name"`
	Icon      string   `json:"icon"`
	Splash    string   `json:"splash"`
	Region    string   `json:"region"`
	Enabled   bool     `json:"enabled"`
	Whitelist []string `json:"whitelist"`
	Role      string   `json:"role"`
}

// GuildConfig is the YAML moderation configuration of a guild. Contents is an
// opaque text blob; Valid is the backend's verdict on whether it parsed and
// validated. The dashboard never inspects the YAML itself.
type GuildConfig struct {
	Contents string `json:"contents"`
	Valid    bool   `json:"valid"`
}

// UserSummary is the abbreviated user identity embedded in infraction rows.
type UserSummary struct {
	ID            string `json:"id"`
	Username      string `json:"username"`
	Discriminator string `json:"discriminator"`
}

// InfractionType is the tag describing what kind of moderation action was taken.
type InfractionType struct {
	Name string `json:"name"`
}

// Infraction is a single moderation action record issued against a user within a guild.
type Infraction struct {
	ID        int64          `json:"id"`
	User      UserSummary    `json:"user"`
	Actor     UserSummary    `json:"actor"`
	Type      InfractionType `json:"type"`
	Reason    string         `json:"reason"`
	CreatedAt time.Time      `json:"created_at"`

	// ExpiresAt is nil for permanent infractions.
	ExpiresAt *time.Time `json:"expires_at"`

	Active bool `json:"active"`
}

// SortSpec orders an infraction listing by a single column.
type SortSpec struct {
	Field     string `json:"field"`
	Direction string `json:"direction"`
}

// FilterSpec restricts an infraction listing to rows whose field matches the value.
// Filtering semantics are entirely server-side.
type FilterSpec struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

// InfractionQuery is one page request against a guild's infraction list.
type InfractionQuery struct {
	Page     int
	Limit    int
	Sorted   []SortSpec
	Filtered []FilterSpec
}

// InfractionPage is the server's response envelope for an infraction listing.
type InfractionPage struct {
	Rows      []Infraction `json:"rows"`
	PageCount int          `json:"pageCount"`
}
