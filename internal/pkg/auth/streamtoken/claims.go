package streamtoken

import "github.com/golang-jwt/jwt"

// Payload defines the structure of the signed claims used to authenticate the
// browser's notification stream connection. WebSocket upgrades cannot carry an
// Authorization header from page scripts, so the dashboard mints a short-lived
// token that the stream endpoint validates instead.
type Payload struct {
	// StandardClaims embeds the necessary JWT standard fields such as Exp (Expiration),
	// Iat (Issued At), and Iss (Issuer). These are crucial for token validity checks.
	jwt.StandardClaims `json:"standard_claims"`

	// SessionKey is the digest key of the browser session's state container in the
	// session registry. The stream endpoint uses it to attach the connection to the
	// correct event stream.
	SessionKey string `json:"session_key"`

	// UserID is the Discord user ID the session belongs to, recorded for log context.
	UserID string `json:"user_id"`
}
