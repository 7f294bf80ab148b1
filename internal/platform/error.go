package platform

import (
	"encoding/json"
	"errors"
	"net/http"
)

// Error is a failure reported by the hosted backend. Code carries the
// store's error code (PostgREST/SQLSTATE style) or a synthetic transport
// code; Status is the HTTP status the API boundary should answer with.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
	Status  int    `json:"-"`
}

func (e *Error) Error() string {
	if e.Details != "" {
		return e.Code + ": " + e.Message + " (" + e.Details + ")"
	}
	return e.Code + ": " + e.Message
}

// AsError unwraps err into a *Error when possible.
func AsError(err error) (*Error, bool) {
	var pe *Error
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}

// codeStatus maps the store's error codes onto the API error taxonomy.
// Constraint violations surface as 409/400 instead of opaque 500s.
var codeStatus = map[string]int{
	"23505":    http.StatusConflict,   // unique violation
	"23503":    http.StatusConflict,   // foreign key violation
	"23502":    http.StatusBadRequest, // not null violation
	"22P02":    http.StatusBadRequest, // invalid input syntax
	"42703":    http.StatusBadRequest, // undefined column
	"42P01":    http.StatusNotFound,   // undefined table
	"PGRST101": http.StatusBadRequest, // malformed query
	"PGRST116": http.StatusBadRequest, // invalid JSON
	"PGRST204": http.StatusNotFound,   // column not found
	"PGRST205": http.StatusNotFound,   // table not found
}

// decodeError turns a non-2xx platform response into *Error. The table API
// answers {code,message,details,hint}; the identity API answers either
// {error,error_description} or {msg,...}. Anything unrecognized keeps the
// transport status and the raw body as the message.
func decodeError(httpStatus int, body []byte) *Error {
	var wire struct {
		Code             string `json:"code"`
		Message          string `json:"message"`
		Details          string `json:"details"`
		Msg              string `json:"msg"`
		ErrorField       string `json:"error"`
		ErrorDescription string `json:"error_description"`
	}
	e := &Error{Code: "UPSTREAM_ERROR", Status: httpStatus}
	if err := json.Unmarshal(body, &wire); err != nil {
		e.Message = string(body)
		return e
	}
	switch {
	case wire.Message != "":
		e.Message = wire.Message
	case wire.Msg != "":
		e.Message = wire.Msg
	case wire.ErrorDescription != "":
		e.Message = wire.ErrorDescription
	case wire.ErrorField != "":
		e.Message = wire.ErrorField
	default:
		e.Message = string(body)
	}
	if wire.Code != "" {
		e.Code = wire.Code
	}
	e.Details = wire.Details
	if mapped, ok := codeStatus[e.Code]; ok {
		e.Status = mapped
	}
	if e.Status == 0 {
		e.Status = http.StatusInternalServerError
	}
	return e
}
