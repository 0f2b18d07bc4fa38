/*
Package errs provides custom error types and application-level error code constants.

These error codes are used to clearly identify specific business or system errors
both internally within the server and in communication with clients.
*/
package errs

// 1xxx: General Request Handling Errors
const (
	// ErrInvalidParams indicates that request parameter validation failed.
	ErrInvalidParams = 1001

	// ErrUnsupportedMediaType indicates that the request header Content-Type is not supported.
	ErrUnsupportedMediaType = 1002

	// ErrInvalidJSONFormat indicates that the request body JSON format is incorrect (e.g., syntax error).
	ErrInvalidJSONFormat = 1003

	// ErrExtraContentInBody indicates that the request body contained extra content after valid JSON data.
	ErrExtraContentInBody = 1004

	// ErrRateLimitExceeded indicates that the request rate has exceeded the set limit.
	ErrRateLimitExceeded = 1005
)

// 2xxx: Guild, Configuration and Infraction Business Logic Errors
const (
	// ErrGuildNotFound indicates that the requested guild is not in the current user's guild list.
	ErrGuildNotFound = 2101

	// ErrConfigRejected indicates that the moderation backend refused a configuration write.
	// The message carries the backend's validation text verbatim.
	ErrConfigRejected = 2201

	// ErrInfractionQueryInvalid indicates that an infraction listing query could not be parsed.
	ErrInfractionQueryInvalid = 2301
)

// 3xxx: Session and Authorization Errors
const (
	// ErrNotAuthenticated indicates that there is no valid backend session for the request.
	ErrNotAuthenticated = 3001

	// ErrNotPermitted indicates that the user's guild role does not allow the attempted action.
	ErrNotPermitted = 3002

	// ErrStreamTokenInvalid indicates that a notification stream token is missing, expired, or malformed.
	ErrStreamTokenInvalid = 3003
)

// 4xxx: Backend Transport Errors
const (
	// ErrBackendUnreachable indicates a transport-level failure while calling the moderation backend.
	ErrBackendUnreachable = 4001

	// ErrBackendResponseInvalid indicates that the backend returned a payload that could not be decoded.
	ErrBackendResponseInvalid = 4002
)

// 5xxx: Internal System Errors
const (
	// ErrUnknown represents an unclassified, general server internal error.
	ErrUnknown = 5000
)
