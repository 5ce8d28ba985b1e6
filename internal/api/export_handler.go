package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"liveResume/internal/api/middleware"
	"liveResume/internal/errcode"
	"liveResume/internal/export"
	"liveResume/internal/metrics"
)

// WarningsHeader carries the number of images replaced by the placeholder.
const WarningsHeader = "X-Export-Warnings"

// ExportArtifact 同步导出当前文档并以附件形式返回。
func ExportArtifact(c *gin.Context) {
	format, err := export.ParseFormat(c.Param("format"))
	if err != nil {
		BadRequest(c, err.Error())
		return
	}

	s := middleware.SessionFromContext(c)
	log := middleware.LoggerFromContext(c).With(slog.String("format", string(format)))

	start := time.Now()
	artifact, err := s.Export(c.Request.Context(), format)
	if err != nil {
		metrics.ObserveExport(string(format), errcode.Name(errcode.Of(err)), time.Since(start))
		if !errors.Is(err, export.ErrExportInProgress) {
			log.Warn("export failed", slog.Any("error", err))
		}
		DomainError(c, err, "failed to export document")
		return
	}
	metrics.ObserveExport(string(format), "ok", time.Since(start))

	writeAttachment(c, artifact.Filename, artifact.ContentType)
	c.Header(WarningsHeader, strconv.Itoa(len(artifact.Warnings)))
	c.Data(http.StatusOK, artifact.ContentType, artifact.Data)
}

func writeAttachment(c *gin.Context, filename, contentType string) {
	c.Header("Content-Type", contentType)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
}
