package rest

import (
	"context"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/docdrive/internal/common"
	"github.com/gin-gonic/gin"
)

// errorStatus maps service errors to HTTP status codes.
func errorStatus(err error) int {
	var maxBytes *http.MaxBytesError
	switch {
	case errors.As(err, &maxBytes):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, common.ErrorValidation),
		errors.Is(err, common.ErrDriveNotConfigured),
		errors.Is(err, common.ErrFolderNotConfigured),
		errors.Is(err, common.ErrSelfRoleChange):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrorUnauthorized),
		errors.Is(err, common.ErrInvalidToken),
		errors.Is(err, common.ErrTokenExpired),
		errors.Is(err, common.ErrRefreshTokenExpired):
		return http.StatusUnauthorized
	case errors.Is(err, common.ErrorForbidden):
		return http.StatusForbidden
	case errors.Is(err, common.ErrorNotFound):
		return http.StatusNotFound
	case errors.Is(err, common.ErrorAlreadyExists), errors.Is(err, common.ErrorConflict):
		return http.StatusConflict
	case errors.Is(err, common.ErrTooManyAttempts):
		return http.StatusTooManyRequests
	case errors.Is(err, common.ErrRemoteProvider):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

// errorDetail is the client-facing message. Unclassified internal errors are
// not echoed back.
func errorDetail(status int, err error) string {
	var ve *common.ValidationError
	switch {
	case errors.As(err, &ve):
		return ve.Detail
	case errors.Is(err, common.ErrorUnauthorized):
		return "Incorrect email or password"
	case errors.Is(err, common.ErrCredentialIntegrity):
		return common.ErrCredentialIntegrity.Error()
	case status == http.StatusInternalServerError:
		return "internal server error"
	}
	return err.Error()
}

func (s *Server) abortWithError(c *gin.Context, err error) {
	status := errorStatus(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error(c.Request.Context(), "request failed",
			"request_id", c.GetString(requestIDKey), "status", status, "error", err.Error())
	}
	if status == http.StatusUnauthorized {
		c.Header("WWW-Authenticate", "Bearer")
	}
	c.AbortWithStatusJSON(status, gin.H{"detail": errorDetail(status, err)})
}

func badRequest(c *gin.Context, detail string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"detail": detail})
}
