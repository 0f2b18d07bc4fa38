/*
Package req provides helper functions for HTTP request parsing and data binding.

It encapsulates the logic for parsing JSON request bodies and integrates error handling
to ensure data format correctness, facilitating subsequent business logic processing.
*/
package req

import (
	"encoding/json"
	"net/http"
	"strings"

	"rowboatweb/internal/pkg/errs"
)

// BindJSON attempts to bind the JSON data from the HTTP request body to the destination struct dst.
func BindJSON(r *http.Request, dst any) *errs.CustomError {
	contentType := r.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "application/json") {
		return errs.NewError(errs.ErrUnsupportedMediaType)
	}

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		return errs.NewError(errs.ErrInvalidJSONFormat)
	}

	if decoder.More() {
		return errs.NewError(errs.ErrExtraContentInBody)
	}

	return nil
}

// DecodeJSONParam binds a JSON-encoded query parameter value to the destination dst.
// Used for structured query parameters such as the infraction sort and filter specs.
func DecodeJSONParam(raw string, dst any) *errs.CustomError {
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return errs.NewError(errs.ErrInvalidJSONFormat)
	}

	return nil
}
