package authgate

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/authify/authgate/core"
)

// Codes returned in the error body. The specific rejection reason is
// logged, never sent to the client.
const (
	CodeUnauthorized  = "UNAUTHORIZED"
	CodeInternalError = "INTERNAL_ERROR"
)

const (
	unauthorizedMessage  = "Invalid or missing credentials."
	internalErrorMessage = "Something went wrong while checking the credentials."
)

// ErrorHandler is a handler which is called when the Gate rejects a
// request. err matches core.ErrUnauthenticated for every credential
// failure; anything else is an internal problem. A custom handler MUST NOT
// call the next handler.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

// ErrorBody is the JSON shape of an error response:
//
//	{"error":{"code":"UNAUTHORIZED","message":"..."}}
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail is the inner object of ErrorBody.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse maps err to a status code and body: 401 for every
// credential failure and 500 for anything else.
func ErrorResponse(err error) (int, ErrorBody) {
	if errors.Is(err, core.ErrUnauthenticated) {
		return http.StatusUnauthorized, ErrorBody{Error: ErrorDetail{
			Code:    CodeUnauthorized,
			Message: unauthorizedMessage,
		}}
	}
	return http.StatusInternalServerError, ErrorBody{Error: ErrorDetail{
		Code:    CodeInternalError,
		Message: internalErrorMessage,
	}}
}

// DefaultErrorHandler is the default error handler implementation for the
// Gate. If an error handler is not provided via the WithErrorHandler
// option this will be used.
func DefaultErrorHandler(w http.ResponseWriter, _ *http.Request, err error) {
	status, body := ErrorResponse(err)

	w.Header().Set("Content-Type", "application/json")
	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", `Bearer realm="api"`)
	}
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
