package handler

import (
	"context"
	"errors"
	"net/http"

	"bet_wallet/internal/ledger"
	"bet_wallet/internal/logger"
	"bet_wallet/internal/player"

	"github.com/gin-gonic/gin"
)

const internalErrorMessage = "an internal server error occurred"

func statusFor(err error) int {
	switch {
	case errors.Is(err, player.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case ledger.IsNotFound(err):
		return http.StatusNotFound
	case errors.Is(err, ledger.ErrInsufficientFunds):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ledger.ErrConcurrentUpdate), errors.Is(err, ledger.ErrConflict):
		return http.StatusConflict
	case ledger.IsInvalidInput(err):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeError maps err onto a status code and the error body. Unexpected
// errors are logged and their text is not sent to the client.
func writeError(c *gin.Context, err error) {
	ctx := c.Request.Context()
	status := statusFor(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		logger.Error(ctx).Err(err).Str("path", c.FullPath()).Msg("unhandled error")
		message = internalErrorMessage
	} else {
		logger.Warn(ctx).Err(err).Int("status", status).Msg("request rejected")
	}
	c.AbortWithStatusJSON(status, errorResponse{Success: false, Message: message})
}

func badRequest(c *gin.Context, err error) {
	logger.Warn(c.Request.Context()).Err(err).Msg("invalid request body")
	c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{Success: false, Message: err.Error()})
}

func forbidden(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusForbidden, errorResponse{Success: false, Message: "token does not belong to this player"})
}
