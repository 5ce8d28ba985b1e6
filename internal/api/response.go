package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"liveResume/internal/errcode"
)

func Error(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"error": msg})
}

// ErrorCode 返回带业务错误码的错误响应。
func ErrorCode(c *gin.Context, status, code int, msg string) {
	c.JSON(status, gin.H{"error": msg, "code": code})
}

func BadRequest(c *gin.Context, msg string) { ErrorCode(c, http.StatusBadRequest, errcode.InvalidRequest, msg) }
func NotFound(c *gin.Context, msg string)   { Error(c, http.StatusNotFound, msg) }
func Conflict(c *gin.Context, msg string)   { ErrorCode(c, http.StatusConflict, errcode.InProgress, msg) }
func Internal(c *gin.Context, msg string)   { ErrorCode(c, http.StatusInternalServerError, errcode.SystemError, msg) }

// DomainError maps a domain error to its status and code. System errors are
// reported with fallback so internal details stay in the logs.
func DomainError(c *gin.Context, err error, fallback string) {
	code := errcode.Of(err)
	status := statusFor(code)
	msg := err.Error()
	if code == errcode.SystemError {
		msg = fallback
	}
	ErrorCode(c, status, code, msg)
}

func statusFor(code int) int {
	switch code {
	case errcode.InvalidRequest:
		return http.StatusBadRequest
	case errcode.ParseFailure, errcode.NoRenderTarget:
		return http.StatusUnprocessableEntity
	case errcode.InProgress:
		return http.StatusConflict
	case errcode.RateLimited:
		return http.StatusTooManyRequests
	case errcode.RewriteFailure:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}
