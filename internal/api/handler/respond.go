package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/finledger/ledger-service/internal/api/dto"
	"github.com/finledger/ledger-service/internal/api/middleware"
	"github.com/finledger/ledger-service/internal/pkg/logger"
	apperrors "github.com/finledger/ledger-service/internal/shared/errors"
)

// respondError maps a service-layer error onto the API error envelope. App
// errors carry their own HTTP status; anything else is an unexpected
// failure and surfaces as a bare 500 with the cause logged, never exposed.
func respondError(c *gin.Context, err error) {
	if appErr := apperrors.GetAppError(err); appErr != nil {
		if appErr.StatusCode >= http.StatusInternalServerError {
			logger.WithContext(c.Request.Context()).WithError(appErr.Unwrap()).Error("request failed")
		}
		c.JSON(appErr.StatusCode, dto.ErrorResponse(string(appErr.Code), appErr.Message))
		return
	}

	logger.WithContext(c.Request.Context()).WithError(err).Error("request failed")
	c.JSON(http.StatusInternalServerError, dto.ErrorResponse(string(apperrors.ErrCodeInternal), "internal server error"))
}

// actorFrom resolves the audit actor for a mutating request: the
// authenticated principal's subject, or "anonymous" on routes where
// authentication is optional.
func actorFrom(c *gin.Context) string {
	subject, err := middleware.GetSubject(c)
	if err != nil || subject == "" {
		return "anonymous"
	}
	return subject
}

// requestContext captures the caller's network identity for the audit row.
func requestContext(c *gin.Context) (ip, userAgent *string) {
	if v := c.ClientIP(); v != "" {
		ip = &v
	}
	if v := c.Request.UserAgent(); v != "" {
		userAgent = &v
	}
	return ip, userAgent
}
