package api

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"liveResume/internal/api/middleware"
	"liveResume/internal/rewrite"
)

// GenerateHandler 是改写使用的生成接口：把请求交给模型，并保证返回可解析的 JSON。
type GenerateHandler struct {
	model rewrite.Generator
}

func NewGenerateHandler(model rewrite.Generator) *GenerateHandler {
	return &GenerateHandler{model: model}
}

// Generate 调用模型；模型输出不是合法 JSON 时回退为原样返回 summary 与 skills。
func (h *GenerateHandler) Generate(c *gin.Context) {
	var req rewrite.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	log := middleware.LoggerFromContext(c)
	text, err := h.model.Generate(c.Request.Context(), req)
	if err != nil {
		log.Error("generation failed", slog.Any("error", err))
		Error(c, http.StatusInternalServerError, "Failed to generate")
		return
	}

	resp, err := rewrite.ParseResponse(text)
	if err != nil {
		// 也覆盖能解析但不符合响应结构的 JSON，两者一律回显输入。
		log.Warn("model output is not valid json, echoing input", slog.Any("error", err))
		resp = rewrite.Response{
			Summary:           req.Summary,
			Skills:            req.Skills,
			ExperienceBullets: [][]string{},
		}
	}
	c.JSON(http.StatusOK, resp)
}
