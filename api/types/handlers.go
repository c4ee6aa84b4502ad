package types

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/killallgit/wavepng/pkg/errors"
)

// Handler utility functions to reduce duplication across handlers

// SendError writes err as an ErrorResponse with the status its code maps to
func SendError(c *gin.Context, err error) {
	appErr, ok := apperrors.As(err)
	if !ok {
		appErr = apperrors.Wrap(err, apperrors.ErrCodeInternal, "internal server error")
	}

	status := appErr.GetHTTPCode()
	if status >= http.StatusInternalServerError {
		slog.Error("request failed", "path", c.Request.URL.Path, "error", err)
	}

	c.AbortWithStatusJSON(status, ErrorResponse{
		Code:    string(appErr.Code),
		Message: appErr.Message,
		Details: appErr.Details,
	})
}

// BindQueryOrError binds the query string to target
// Returns false and sends error response if binding fails
func BindQueryOrError(c *gin.Context, target interface{}) bool {
	if err := c.ShouldBindQuery(target); err != nil {
		SendError(c, apperrors.ValidationError("query", err.Error()))
		return false
	}
	return true
}

// SendSuccess sends a standardized success response with data
func SendSuccess(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, data)
}
