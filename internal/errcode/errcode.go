package errcode

import (
	"errors"

	"liveResume/internal/export"
	"liveResume/internal/resume"
	"liveResume/internal/rewrite"
)

// 错误码约定：
// - 0：无错误
// - 4xxx：业务可恢复/告警类错误（例如资源缺失但流程可继续、请求被单飞保护拒绝）
// - 5xxx：系统错误（需要中断流程，但会话保持可重试）
const (
	OK              = 0
	InvalidRequest  = 4000
	ResourceMissing = 4004
	ParseFailure    = 4022
	NoRenderTarget  = 4040
	InProgress      = 4090
	RateLimited     = 4290
	SystemError     = 5000
	RewriteFailure  = 5020
	CaptureFailure  = 5030
)

// Of maps a domain error to its code. Unknown errors are SystemError.
func Of(err error) int {
	switch {
	case err == nil:
		return OK
	case errors.Is(err, resume.ErrInvalidDocument), errors.Is(err, resume.ErrNullField),
		errors.Is(err, export.ErrUnsupportedFormat):
		return InvalidRequest
	case errors.Is(err, rewrite.ErrParseFailure):
		return ParseFailure
	case errors.Is(err, rewrite.ErrRewriteRequest):
		return RewriteFailure
	case errors.Is(err, export.ErrNoRenderTarget):
		return NoRenderTarget
	case errors.Is(err, export.ErrCaptureFailure):
		return CaptureFailure
	case errors.Is(err, export.ErrExportInProgress), errors.Is(err, rewrite.ErrRewriteInProgress):
		return InProgress
	}
	return SystemError
}

// Name is the short label used in logs and metrics.
func Name(code int) string {
	switch code {
	case OK:
		return "ok"
	case InvalidRequest:
		return "invalid_request"
	case ResourceMissing:
		return "resource_missing"
	case ParseFailure:
		return "parse_failure"
	case NoRenderTarget:
		return "no_render_target"
	case InProgress:
		return "in_progress"
	case RateLimited:
		return "rate_limited"
	case RewriteFailure:
		return "rewrite_failure"
	case CaptureFailure:
		return "capture_failure"
	}
	return "system_error"
}
