package handler

import (
	"errors"
	"net/http"

	"github.com/examportal/examportal-backend/internal/response"
	"github.com/examportal/examportal-backend/internal/service"
	"github.com/gin-gonic/gin"
)

// failFromService maps a service error onto the API error taxonomy and
// sends the envelope. Unrecognized errors become 500 INTERNAL_ERROR.
func failFromService(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	case errors.Is(err, service.ErrAccessDenied):
		response.Fail(c, http.StatusForbidden, response.ErrAccessDenied)
	case errors.Is(err, service.ErrSessionClosed):
		response.Fail(c, http.StatusConflict, response.ErrSessionClosed)
	case errors.Is(err, service.ErrInvalidWindow):
		response.Fail(c, http.StatusUnprocessableEntity, response.ErrInvalidWindow)
	case errors.Is(err, service.ErrOverlapConflict):
		response.Fail(c, http.StatusConflict, response.ErrOverlapConflict)
	case errors.Is(err, service.ErrAlreadyInProgress):
		response.Fail(c, http.StatusConflict, response.ErrAssignmentInProgress)
	case errors.Is(err, service.ErrAttemptExists):
		response.Fail(c, http.StatusConflict, response.ErrConflict)
	case errors.Is(err, service.ErrInvalidCredentials):
		response.Fail(c, http.StatusUnauthorized, response.ErrInvalidCredentials)
	case errors.Is(err, service.ErrNotOwner):
		response.Fail(c, http.StatusForbidden, response.ErrForbidden)
	case errors.Is(err, service.ErrConflict):
		response.Fail(c, http.StatusConflict, response.ErrConflict)
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}
