package response

import (
	"errors"
	"net/http"

	"event-portal/internal/domain"
)

// Messages for failures raised outside the domain (middleware, routing).
const (
	MsgActionNotFound  = "Endpoint action not found or invalid request method."
	MsgUnauthorized    = "unauthorized"
	MsgForbidden       = "forbidden"
	MsgTooManyRequests = "too many requests"
	MsgBodyTooLarge    = "request body too large"
	MsgTimeout         = "request timed out"
	MsgServerBusy      = "server busy"
	MsgInternal        = "internal server error"
)

// Status maps an error from the domain taxonomy onto an HTTP status.
func Status(err error) int {
	var se *domain.StorageError
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict
	case errors.As(err, &se) && se.Unavailable:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// Message is the caller facing text for err. Storage details stay in the logs.
func Message(err error) string {
	var se *domain.StorageError
	if errors.As(err, &se) {
		if se.Unavailable {
			return "storage unavailable, please retry"
		}
		return "storage error"
	}
	if Status(err) == http.StatusInternalServerError {
		return MsgInternal
	}
	return err.Error()
}
