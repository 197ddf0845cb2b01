package utils

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type APIResponse struct {
	Status  string      `json:"status"`
	Code    int         `json:"code"`
	Message string      `json:"message,omitempty"`
	TraceID string      `json:"trace_id,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func RespondSuccess(c *gin.Context, data interface{}, message string) {
	respond(c, http.StatusOK, data, message)
}

func RespondCreated(c *gin.Context, data interface{}, message string) {
	respond(c, http.StatusCreated, data, message)
}

func respond(c *gin.Context, code int, data interface{}, message string) {
	c.JSON(code, APIResponse{
		Status:  "success",
		Code:    code,
		Message: message,
		TraceID: c.GetString("trace_id"),
		Data:    data,
	})
}

func RespondError(c *gin.Context, code int, message string) {
	c.JSON(code, APIResponse{
		Status:  "error",
		Code:    code,
		Message: message,
		TraceID: c.GetString("trace_id"),
	})
}

// HandleServiceError writes the response for an error returned by a service.
// Known sentinels keep their message; anything else is logged and hidden
// behind a 500.
func HandleServiceError(c *gin.Context, err error) {
	kind, sentinel := Classify(err)

	code := http.StatusInternalServerError
	switch kind {
	case KindNotFound:
		code = http.StatusNotFound
	case KindConflict:
		code = http.StatusConflict
	case KindForbidden:
		code = http.StatusForbidden
	case KindAuthRequired:
		code = http.StatusUnauthorized
	case KindInvalidInput:
		code = http.StatusBadRequest
	case KindUnavailable:
		code = http.StatusServiceUnavailable
	}

	if sentinel == nil {
		Logger(c).Error("unhandled service error", zap.Error(err))
		RespondError(c, code, "Internal server error")
		return
	}

	if code == http.StatusUnauthorized {
		c.Header("WWW-Authenticate", "Bearer")
	}
	RespondError(c, code, capitalize(sentinel.Error()))
}

// Logger returns the request scoped logger set by the request logging
// middleware, or a no-op logger.
func Logger(c *gin.Context) *zap.Logger {
	if v, ok := c.Get("logger"); ok {
		if l, ok := v.(*zap.Logger); ok {
			return l
		}
	}
	return zap.NewNop()
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
