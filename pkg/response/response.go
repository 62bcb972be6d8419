package response

import (
	"errors"
	"net/http"

	"channel-chat/internal/errs"
	"channel-chat/internal/models"

	"github.com/gin-gonic/gin"
)

const (
	ErrCodeParamInvalid = 4000 // Request parameters invalid
	ErrCodeUnauthorized = 4001 // Missing or invalid token
	ErrCodeForbidden    = 4003 // Not allowed
	ErrCodeNotFound     = 4004 // Resource not found
	ErrCodeConflict     = 4009 // Resource already exists
	ErrCodeRateLimited  = 4029 // Too many requests
	ErrCodeInternal     = 5000 // Internal error
)

// message
var msg = map[int]string{
	ErrCodeParamInvalid: "invalid request",
	ErrCodeUnauthorized: "unauthorized",
	ErrCodeForbidden:    "forbidden",
	ErrCodeNotFound:     "not found",
	ErrCodeConflict:     "already exists",
	ErrCodeRateLimited:  "rate limit exceeded",
	ErrCodeInternal:     "internal server error",
}

func Msg(code int) string {
	return msg[code]
}

// FromError maps a domain error to its HTTP status and response code.
func FromError(err error) (int, int) {
	switch {
	case errors.Is(err, errs.ErrNotFound):
		return http.StatusNotFound, ErrCodeNotFound
	case errors.Is(err, errs.ErrForbidden):
		return http.StatusForbidden, ErrCodeForbidden
	case errors.Is(err, errs.ErrConflict):
		return http.StatusConflict, ErrCodeConflict
	case errors.Is(err, errs.ErrValidation):
		return http.StatusBadRequest, ErrCodeParamInvalid
	default:
		return http.StatusInternalServerError, ErrCodeInternal
	}
}

// Abort writes an ErrorResponse and stops the handler chain.
func Abort(c *gin.Context, status, code int, details string) {
	c.AbortWithStatusJSON(status, models.ErrorResponse{
		Code:    code,
		Message: Msg(code),
		Details: details,
	})
}

// Error reports a domain error. Internal causes are not exposed.
func Error(c *gin.Context, err error) {
	status, code := FromError(err)
	details := ""
	if code != ErrCodeInternal {
		details = err.Error()
	}
	_ = c.Error(err)
	Abort(c, status, code, details)
}
