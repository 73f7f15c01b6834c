package handler

import (
	"errors"
	"net/http"

	"taxflow/internal/approval"
	"taxflow/internal/middleware"
	"taxflow/internal/service"
	"taxflow/internal/tax"
	"taxflow/internal/token"
	"taxflow/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// statusFor maps service and domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, tax.ErrInvalidInput),
		errors.Is(err, tax.ErrUnsupportedCategory),
		errors.Is(err, approval.ErrMissingReason),
		errors.Is(err, service.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, approval.ErrNotFound), errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, approval.ErrInvalidTransition), errors.Is(err, service.ErrEmailTaken):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// abortWithError writes the error envelope. Internal errors are reported
// generically and kept on the gin context for the request logger.
func abortWithError(c *gin.Context, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		msg = "internal server error"
	}
	c.AbortWithStatusJSON(status, response.Error(status, msg))
}

func principal(c *gin.Context) (token.Principal, bool) {
	p, ok := middleware.GetPrincipal(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Authorization is missing"))
	}
	return p, ok
}

func uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "invalid "+name))
		return uuid.Nil, false
	}
	return id, true
}
