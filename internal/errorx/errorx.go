package errorx

import (
	"context"
	"errors"
	"net/http"

	"nowink/internal/types"
)

// CodeError carries the HTTP status a handler should answer with.
type CodeError struct {
	Code int
	Msg  string
}

func (e *CodeError) Error() string {
	return e.Msg
}

func New(code int, msg string) error {
	return &CodeError{Code: code, Msg: msg}
}

func BadRequest(msg string) error   { return New(http.StatusBadRequest, msg) }
func Unauthorized(msg string) error { return New(http.StatusUnauthorized, msg) }
func Forbidden(msg string) error    { return New(http.StatusForbidden, msg) }
func NotFound(msg string) error     { return New(http.StatusNotFound, msg) }
func Conflict(msg string) error     { return New(http.StatusConflict, msg) }
func ServiceUnavailable(msg string) error {
	return New(http.StatusServiceUnavailable, msg)
}

// Handler maps errors to {"error": "..."} bodies; registered with httpx.SetErrorHandlerCtx.
func Handler(_ context.Context, err error) (int, any) {
	var ce *CodeError
	if errors.As(err, &ce) {
		return ce.Code, types.ErrorResp{Error: ce.Msg}
	}
	return http.StatusInternalServerError, types.ErrorResp{Error: err.Error()}
}
