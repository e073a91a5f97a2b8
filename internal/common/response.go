// File: internal/common/response.go
package common

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// LoggerContextKey is where ZapLogger stores the request scoped logger.
const LoggerContextKey = "logger"

// RespondWithError sends a JSON error response. Errors that are not an
// *APIError are logged and reported as a generic 500; their text only leaks
// into the body when gin runs in debug mode.
func RespondWithError(c *gin.Context, err error) {
	apiErr, ok := IsAPIError(err)
	if !ok {
		if l, exists := c.Get(LoggerContextKey); exists {
			if logger, ok := l.(*zap.Logger); ok {
				logger.Error("Unhandled internal error being wrapped", zap.Error(err))
			}
		}
		apiErr = ErrInternalServer
		if gin.IsDebugging() {
			apiErr = ErrInternalServer.WithDetails(err.Error())
		}
	}

	c.AbortWithStatusJSON(apiErr.StatusCode, apiErr)
}

// RespondSuccess sends a JSON success response. Payload keys are written at
// the top level next to status and message.
func RespondSuccess(c *gin.Context, statusCode int, message string, payload gin.H) {
	body := gin.H{"status": "success"}
	if message != "" {
		body["message"] = message
	}
	for k, v := range payload {
		body[k] = v
	}
	c.JSON(statusCode, body)
}

// RespondOK sends a 200 OK response.
func RespondOK(c *gin.Context, message string, payload gin.H) {
	RespondSuccess(c, http.StatusOK, message, payload)
}

// RespondCreated sends a 201 Created response.
func RespondCreated(c *gin.Context, message string, payload gin.H) {
	RespondSuccess(c, http.StatusCreated, message, payload)
}

// RespondNoContent sends a 204 No Content response.
func RespondNoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
