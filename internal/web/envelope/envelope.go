// Package envelope writes every API response in the same JSON shape.
package envelope

import (
	"net/http"

	"github.com/Laisky/errors/v2"
	gmw "github.com/Laisky/gin-middlewares/v7"
	"github.com/Laisky/zap"
	"github.com/gin-gonic/gin"

	"github.com/blogcms/blog-api/internal/web/blog/model"
)

// internalMessage replaces the text of unexpected errors outside debug mode
const internalMessage = "Internal server error"

// Response is the body of every API response
type Response struct {
	Success bool               `json:"success"`
	Message string             `json:"message,omitempty"`
	Data    any                `json:"data,omitempty"`
	Errors  []model.FieldError `json:"errors,omitempty"`
}

// OK writes a successful response
func OK(c *gin.Context, status int, message string, data any) {
	c.JSON(status, Response{Success: true, Message: message, Data: data})
}

// Abort writes a failure with a fixed status and stops the handler chain
func Abort(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, Response{Message: message})
}

// Error translates err into a failure response and stops the handler chain.
func Error(c *gin.Context, err error) {
	status, resp := Translate(err, gin.IsDebugging())
	if status >= http.StatusInternalServerError {
		gmw.GetLogger(c).Error("request failed",
			zap.String("path", c.FullPath()), zap.Error(err))
	}

	_ = c.Error(err)
	c.AbortWithStatusJSON(status, resp)
}

// Translate maps err to an HTTP status and body.
// debug exposes the text of unexpected errors.
func Translate(err error, debug bool) (int, Response) {
	var verr *model.ValidationError
	if errors.As(err, &verr) {
		return http.StatusBadRequest, Response{Message: "Validation failed", Errors: verr.Fields}
	}

	status := StatusOf(err)
	if status == http.StatusInternalServerError {
		msg := internalMessage
		if debug {
			msg = err.Error()
		}
		return status, Response{Message: msg}
	}

	msg := err.Error()
	var merr *model.Error
	if errors.As(err, &merr) {
		msg = merr.Msg
	}
	return status, Response{Message: msg}
}

// StatusOf is the HTTP status of err
func StatusOf(err error) int {
	var verr *model.ValidationError
	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &verr):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, model.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, model.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, model.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, model.ErrTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, model.ErrUpload):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
