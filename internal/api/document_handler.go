package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"liveResume/internal/api/middleware"
	"liveResume/internal/resume"
	"liveResume/internal/session"
)

var (
	errDuplicateTag = errors.New("tag already present")
	errEmptyTag     = errors.New("tag is empty")
	errTagIndex     = errors.New("tag index out of range")
)

// DocumentHandler 负责读取与编辑会话文档。所有写入都经由会话的 Store。
type DocumentHandler struct {
	renderer session.Renderer
}

func NewDocumentHandler(renderer session.Renderer) *DocumentHandler {
	return &DocumentHandler{renderer: renderer}
}

// GetDocument 返回当前文档与版本号。
func (h *DocumentHandler) GetDocument(c *gin.Context) {
	c.JSON(http.StatusOK, newDocumentResponse(middleware.SessionFromContext(c)))
}

// PatchDocument 浅合并请求体中出现的顶层字段。
func (h *DocumentHandler) PatchDocument(c *gin.Context) {
	var p resume.Patch
	if err := c.ShouldBindJSON(&p); err != nil {
		BadRequest(c, err.Error())
		return
	}

	s := middleware.SessionFromContext(c)
	if p.Empty() {
		c.JSON(http.StatusOK, newDocumentResponse(s))
		return
	}
	if err := s.Store.Patch(p); err != nil {
		middleware.LoggerFromContext(c).Info("patch rejected", slog.Any("error", err))
		DomainError(c, err, "failed to patch document")
		return
	}
	c.JSON(http.StatusOK, newDocumentResponse(s))
}

// ReplaceDocument 整体替换文档。
func (h *DocumentHandler) ReplaceDocument(c *gin.Context) {
	var doc resume.Document
	if err := c.ShouldBindJSON(&doc); err != nil {
		BadRequest(c, err.Error())
		return
	}

	s := middleware.SessionFromContext(c)
	if err := s.Store.Replace(doc); err != nil {
		DomainError(c, err, "failed to replace document")
		return
	}
	c.JSON(http.StatusOK, newDocumentResponse(s))
}

type addTagRequest struct {
	Tag string `json:"tag" binding:"required"`
}

// AddTag 在编辑边界去重后追加标签，仅支持 skills 与 areasOfInterest。
func (h *DocumentHandler) AddTag(c *gin.Context) {
	field := c.Param("field")
	if !isTagField(field) {
		NotFound(c, "unknown tag field")
		return
	}
	var req addTagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	s := middleware.SessionFromContext(c)
	err := s.Store.Update(func(doc resume.Document) (resume.Document, error) {
		if strings.TrimSpace(req.Tag) == "" {
			return doc, errEmptyTag
		}
		tags := tagField(&doc, field)
		next, ok := resume.AddTag(*tags, req.Tag)
		if !ok {
			return doc, errDuplicateTag
		}
		*tags = next
		return doc, nil
	})
	if h.tagError(c, err) {
		return
	}
	c.JSON(http.StatusOK, newDocumentResponse(s))
}

// RemoveTag 按下标删除标签。
func (h *DocumentHandler) RemoveTag(c *gin.Context) {
	field := c.Param("field")
	if !isTagField(field) {
		NotFound(c, "unknown tag field")
		return
	}
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		BadRequest(c, "invalid tag index")
		return
	}

	s := middleware.SessionFromContext(c)
	err = s.Store.Update(func(doc resume.Document) (resume.Document, error) {
		tags := tagField(&doc, field)
		next, ok := resume.RemoveTag(*tags, index)
		if !ok {
			return doc, errTagIndex
		}
		*tags = next
		return doc, nil
	})
	if h.tagError(c, err) {
		return
	}
	c.JSON(http.StatusOK, newDocumentResponse(s))
}

func (h *DocumentHandler) tagError(c *gin.Context, err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, errEmptyTag):
		BadRequest(c, err.Error())
	case errors.Is(err, errDuplicateTag):
		Error(c, http.StatusConflict, err.Error())
	case errors.Is(err, errTagIndex):
		NotFound(c, err.Error())
	default:
		DomainError(c, err, "failed to update tags")
	}
	return true
}

func isTagField(field string) bool {
	return field == "skills" || field == "areasOfInterest"
}

func tagField(doc *resume.Document, field string) *[]string {
	if field == "areasOfInterest" {
		return &doc.AreasOfInterest
	}
	return &doc.Skills
}

// Preview 返回当前文档的渲染结果（HTML）。
func (h *DocumentHandler) Preview(c *gin.Context) {
	s := middleware.SessionFromContext(c)
	html, err := h.renderer.Render(s.Store.Read())
	if err != nil {
		middleware.LoggerFromContext(c).Error("render preview failed", slog.Any("error", err))
		Internal(c, "failed to render preview")
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(html))
}
