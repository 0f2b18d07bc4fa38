/*
Package errs provides custom error types and application-level error code constants.

This file defines the map from error codes to the CustomError struct, used to standardize
HTTP responses and internal error handling.
*/
package errs

import "net/http"

// errorMap stores the detailed CustomError struct corresponding to every application error code.
// The key is the error code (int), and the value contains the user message and HTTP status code.
var errorMap = map[int]CustomError{
	// 1xxx: General Request Handling Errors
	ErrInvalidParams:        {Code: ErrInvalidParams, Message: "Invalid request parameters.", Status: http.StatusBadRequest},
	ErrUnsupportedMediaType: {Code: ErrUnsupportedMediaType, Message: "Unsupported request format.", Status: http.StatusUnsupportedMediaType},
	ErrInvalidJSONFormat:    {Code: ErrInvalidJSONFormat, Message: "Unsupported request format.", Status: http.StatusBadRequest},
	ErrExtraContentInBody:   {Code: ErrExtraContentInBody, Message: "Request contains unexpected data.", Status: http.StatusBadRequest},
	ErrRateLimitExceeded:    {Code: ErrRateLimitExceeded, Message: "Too many requests. Please try again later.", Status: http.StatusTooManyRequests},

	// 2xxx: Guild, Configuration and Infraction Business Logic Errors
	ErrGuildNotFound:          {Code: ErrGuildNotFound, Message: "Guild not found.", Status: http.StatusNotFound},
	ErrConfigRejected:         {Code: ErrConfigRejected, Message: "The configuration was rejected.", Status: http.StatusBadRequest},
	ErrInfractionQueryInvalid: {Code: ErrInfractionQueryInvalid, Message: "Invalid infraction query.", Status: http.StatusBadRequest},

	// 3xxx: Session and Authorization Errors
	ErrNotAuthenticated:   {Code: ErrNotAuthenticated, Message: "Please sign in to continue.", Status: http.StatusUnauthorized},
	ErrNotPermitted:       {Code: ErrNotPermitted, Message: "You do not have permission to do that.", Status: http.StatusForbidden},
	ErrStreamTokenInvalid: {Code: ErrStreamTokenInvalid, Message: "Invalid notification stream token.", Status: http.StatusUnauthorized},

	// 4xxx: Backend Transport Errors
	ErrBackendUnreachable:     {Code: ErrBackendUnreachable, Message: "The moderation backend could not be reached. Please try again later.", Status: http.StatusBadGateway},
	ErrBackendResponseInvalid: {Code: ErrBackendResponseInvalid, Message: "The moderation backend returned an unexpected response.", Status: http.StatusBadGateway},

	// 5xxx: Internal System Errors
	ErrUnknown: {Code: ErrUnknown, Message: "Something went wrong. Please try again.", Status: http.StatusInternalServerError},
}
