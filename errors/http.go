package errors

import (
	"errors"
	"net/http"
)

// MapToHTTPStatus translates a service error into the status code returned to clients.
// Unknown errors are reported as 500 without leaking their message.
func MapToHTTPStatus(err error) (int, string) {
	switch {
	case err == nil:
		return http.StatusOK, ""
	case errors.Is(err, ErrEmptyMessage):
		return http.StatusBadRequest, ErrEmptyMessage.Error()
	case errors.Is(err, ErrSelfMessage):
		return http.StatusBadRequest, ErrSelfMessage.Error()
	case errors.Is(err, ErrValidation), errors.Is(err, ErrInvalidPassword):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, ErrInvalidCredentials), errors.Is(err, ErrUserAlreadyExists):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized, ErrUnauthenticated.Error()
	case errors.Is(err, ErrRecipientNotFound):
		return http.StatusNotFound, ErrRecipientNotFound.Error()
	case errors.Is(err, ErrUserNotFound):
		return http.StatusNotFound, ErrUserNotFound.Error()
	case errors.Is(err, ErrMediaUpload):
		return http.StatusBadGateway, ErrMediaUpload.Error()
	case errors.Is(err, ErrStorageUnavailable):
		return http.StatusServiceUnavailable, ErrStorageUnavailable.Error()
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}
