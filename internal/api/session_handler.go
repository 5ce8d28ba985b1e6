package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"liveResume/internal/api/middleware"
	"liveResume/internal/resume"
	"liveResume/internal/session"
)

// SessionHandler 负责会话的创建与结束。
type SessionHandler struct {
	registry *session.Registry
	onEnd    func(ctx context.Context, id string)
}

// NewSessionHandler 构造 SessionHandler。onEnd 可为空，用于清理会话的导出产物。
func NewSessionHandler(registry *session.Registry, onEnd func(ctx context.Context, id string)) *SessionHandler {
	return &SessionHandler{registry: registry, onEnd: onEnd}
}

type documentResponse struct {
	SessionID string          `json:"session_id"`
	Version   uint64          `json:"version"`
	Document  resume.Document `json:"document"`
}

func newDocumentResponse(s *session.Session) documentResponse {
	doc, version := s.Store.Snapshot()
	return documentResponse{SessionID: s.ID, Version: version, Document: doc}
}

// CreateSession 总是新建会话，文档为默认值。
func (h *SessionHandler) CreateSession(c *gin.Context) {
	s := h.registry.Create()
	c.Header(middleware.SessionHeader, s.ID)
	c.JSON(http.StatusCreated, newDocumentResponse(s))
}

// EndSession 丢弃当前会话；文档不做持久化。
func (h *SessionHandler) EndSession(c *gin.Context) {
	s := middleware.SessionFromContext(c)
	h.registry.Delete(s.ID)
	if h.onEnd != nil {
		h.onEnd(c.Request.Context(), s.ID)
	}
	middleware.LoggerFromContext(c).Info("session ended", slog.String("session_id", s.ID))
	c.Status(http.StatusNoContent)
}
