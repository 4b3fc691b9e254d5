// Package middleware provides HTTP middleware for archgraph.
//
// Import Path: archgraph.io/archgraph/internal/api/middleware
package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apperrors "archgraph.io/archgraph/internal/pkg/errors"
)

// CodeInternalError is the code of every 5xx response body.
const CodeInternalError = "INTERNAL_ERROR"

// ErrorHandler renders the last error a handler recorded with c.Error.
//
// Client errors (NotFound, BadRequest, Unauthorized) become
// {code, message, params?, field_errors?} with their own status. Anything else,
// including internal AppErrors and store failures, is logged and answered with
// a bare 500 so storage details never reach the caller.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		l := RequestLogger(c.Request.Context())

		var appErr *apperrors.AppError
		if errors.As(err, &appErr) && appErr.HTTPStatus < http.StatusInternalServerError {
			l.Info("Request rejected",
				zap.String("code", appErr.Code),
				zap.String("message", appErr.Message),
				zap.Int("status", appErr.HTTPStatus),
			)
			c.JSON(appErr.HTTPStatus, clientBody(appErr))
			return
		}

		l.Error("Request failed",
			zap.String("route", c.FullPath()),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    CodeInternalError,
			"message": "An internal error occurred",
		})
	}
}

func clientBody(e *apperrors.AppError) gin.H {
	body := gin.H{
		"code":    e.Code,
		"message": e.Message,
	}
	if len(e.Params) > 0 {
		body["params"] = e.Params
	}
	if len(e.FieldErrors) > 0 {
		body["field_errors"] = e.FieldErrors
	}
	return body
}
