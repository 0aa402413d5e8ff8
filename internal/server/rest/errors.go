package rest

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/bookmarkauth/internal/common"
)

// errorStatus maps a service error to the status and message sent to the
// client. Anything unrecognised becomes a bare 500.
func errorStatus(err error) (int, error) {
	switch {
	case errors.Is(err, common.ErrorValidation):
		return http.StatusBadRequest, err
	case errors.Is(err, common.ErrDuplicateEmail):
		return http.StatusConflict, common.ErrDuplicateEmail
	case errors.Is(err, common.ErrInvalidCredentials):
		return http.StatusUnauthorized, common.ErrInvalidCredentials
	case errors.Is(err, common.ErrMissingToken):
		return http.StatusUnauthorized, common.ErrMissingToken
	case errors.Is(err, common.ErrInvalidToken):
		return http.StatusUnauthorized, common.ErrInvalidToken
	case errors.Is(err, common.ErrSessionNotFound):
		return http.StatusUnauthorized, common.ErrSessionNotFound
	case errors.Is(err, common.ErrSessionExpired):
		return http.StatusUnauthorized, common.ErrSessionExpired
	case errors.Is(err, common.ErrorNotFound):
		return http.StatusNotFound, common.ErrorNotFound
	default:
		return http.StatusInternalServerError, common.ErrorInternal
	}
}

func respondServiceError(w http.ResponseWriter, err error) {
	status, msg := errorStatus(err)
	respondError(w, status, msg)
}
