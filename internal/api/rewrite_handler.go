package api

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"liveResume/internal/api/middleware"
	"liveResume/internal/errcode"
	"liveResume/internal/metrics"
	"liveResume/internal/rewrite"
)

const rewriteRateWindow = time.Hour

// RewriteHandler 触发会话文档的 AI 改写。
type RewriteHandler struct {
	limiter fixedWindow
}

// NewRewriteHandler 构造 RewriteHandler。counter 为空或 maxPerHour<=0 时不限流。
func NewRewriteHandler(counter redisRateCounter, maxPerHour int) *RewriteHandler {
	return &RewriteHandler{limiter: fixedWindow{
		counter: counter,
		prefix:  "rewrite_rate",
		limit:   maxPerHour,
		window:  rewriteRateWindow,
	}}
}

type rewriteResponse struct {
	Outcome string `json:"outcome"`
	documentResponse
}

// Rewrite 同步执行一次改写并返回合并后的文档。失败时文档保持不变。
func (h *RewriteHandler) Rewrite(c *gin.Context) {
	s := middleware.SessionFromContext(c)
	log := middleware.LoggerFromContext(c)

	if h.limited(c, s.ID) {
		return
	}

	start := time.Now()
	outcome, err := s.Rewriter.Rewrite(c.Request.Context())
	if err != nil {
		metrics.ObserveRewrite(errcode.Name(errcode.Of(err)), time.Since(start))
		if !errors.Is(err, rewrite.ErrRewriteInProgress) {
			log.Warn("rewrite failed, document kept", slog.Any("error", err))
		}
		DomainError(c, err, "failed to rewrite document")
		return
	}
	metrics.ObserveRewrite(outcome.String(), time.Since(start))

	c.JSON(http.StatusOK, rewriteResponse{
		Outcome:          outcome.String(),
		documentResponse: newDocumentResponse(s),
	})
}

// limited 按会话做固定窗口限流；Redis 不可用时放行。
func (h *RewriteHandler) limited(c *gin.Context, sessionID string) bool {
	ok, err := h.limiter.allow(c.Request.Context(), sessionID)
	if err != nil {
		middleware.LoggerFromContext(c).Warn("rewrite rate limit check failed", slog.Any("error", err))
	}
	if !ok {
		ErrorCode(c, http.StatusTooManyRequests, errcode.RateLimited, "too many rewrite requests")
		return true
	}
	return false
}
