package api

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"gorm.io/gorm"

	"liveResume/internal/api/middleware"
	"liveResume/internal/database"
	"liveResume/internal/errcode"
	"liveResume/internal/export"
	"liveResume/internal/storage"
	"liveResume/internal/tasks"
)

// pendingWindow bounds how long a pending job blocks new exports of its session.
const pendingWindow = 10 * time.Minute

type taskEnqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

type exportStorage interface {
	GetObject(ctx context.Context, objectKey string) (io.ReadCloser, error)
	PresignedDownloadURL(ctx context.Context, objectKey, filename string, ttl time.Duration) (string, error)
}

// ExportJobHandler 负责异步导出：入队、查询状态与下载。
type ExportJobHandler struct {
	db       *gorm.DB
	queue    taskEnqueuer
	storage  exportStorage
	linkTTL  time.Duration
	maxRetry int
}

// NewExportJobHandler 构造 ExportJobHandler。
func NewExportJobHandler(db *gorm.DB, queue taskEnqueuer, storage exportStorage, linkTTL time.Duration, maxRetry int) *ExportJobHandler {
	if linkTTL <= 0 {
		linkTTL = 5 * time.Minute
	}
	return &ExportJobHandler{
		db:       db,
		queue:    queue,
		storage:  storage,
		linkTTL:  linkTTL,
		maxRetry: maxRetry,
	}
}

type enqueueExportRequest struct {
	Format string `json:"format" binding:"required"`
}

type exportJobResponse struct {
	*database.ExportJob
	Warnings []string `json:"warnings"`
}

// EnqueueExport 记录导出任务并将当前文档快照入队，立即返回 202。
func (h *ExportJobHandler) EnqueueExport(c *gin.Context) {
	var req enqueueExportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	format, err := export.ParseFormat(req.Format)
	if err != nil {
		BadRequest(c, err.Error())
		return
	}

	s := middleware.SessionFromContext(c)
	log := middleware.LoggerFromContext(c)
	ctx := c.Request.Context()

	// 检查与建单必须在同一临界区内，否则并发请求会同时通过检查。
	done, ok := s.BeginEnqueue()
	if !ok {
		ErrorCode(c, http.StatusConflict, errcode.InProgress, export.ErrExportInProgress.Error())
		return
	}
	defer done()

	pending, err := database.HasPendingExportJob(ctx, h.db, s.ID, time.Now().Add(-pendingWindow))
	if err != nil {
		log.Error("check pending export failed", slog.Any("error", err))
		Internal(c, "failed to query export jobs")
		return
	}
	if pending {
		ErrorCode(c, http.StatusConflict, errcode.InProgress, export.ErrExportInProgress.Error())
		return
	}

	job := &database.ExportJob{
		ID:            uuid.NewString(),
		SessionID:     s.ID,
		CorrelationID: middleware.GetCorrelationID(c),
		Format:        string(format),
	}
	if err := database.CreateExportJob(ctx, h.db, job); err != nil {
		log.Error("create export job failed", slog.Any("error", err))
		Internal(c, "failed to create export job")
		return
	}

	task, err := tasks.NewExportGenerateTask(tasks.ExportGeneratePayload{
		JobID:         job.ID,
		SessionID:     s.ID,
		CorrelationID: job.CorrelationID,
		Format:        job.Format,
		Document:      s.Store.Read(),
	}, h.maxRetry)
	if err != nil {
		h.abandon(ctx, log, job.ID, err)
		Internal(c, "failed to create task")
		return
	}

	info, err := h.queue.EnqueueContext(ctx, task)
	if err != nil {
		h.abandon(ctx, log, job.ID, err)
		Internal(c, "failed to enqueue export")
		return
	}

	log.Info("export enqueued", slog.String("job_id", job.ID), slog.String("task_id", info.ID))
	c.JSON(http.StatusAccepted, gin.H{
		"message": "export request accepted",
		"job_id":  job.ID,
		"task_id": info.ID,
	})
}

func (h *ExportJobHandler) abandon(ctx context.Context, log *slog.Logger, jobID string, cause error) {
	log.Error("enqueue export failed", slog.String("job_id", jobID), slog.Any("error", cause))
	if err := database.FailExportJob(ctx, h.db, jobID, errcode.SystemError, cause.Error()); err != nil {
		log.Error("mark export job failed", slog.Any("error", err))
	}
}

// GetExportJob 返回导出任务状态。
func (h *ExportJobHandler) GetExportJob(c *gin.Context) {
	job, ok := h.loadJob(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, exportJobResponse{ExportJob: job, Warnings: job.WarningList()})
}

// GetExportLink 生成导出产物的预签名下载链接。
func (h *ExportJobHandler) GetExportLink(c *gin.Context) {
	job, ok := h.completedJob(c)
	if !ok {
		return
	}

	signedURL, err := h.storage.PresignedDownloadURL(c.Request.Context(), job.ObjectKey, filenameOf(job), h.linkTTL)
	if err != nil {
		middleware.LoggerFromContext(c).Error("presign export failed", slog.Any("error", err))
		Internal(c, "failed to generate download link")
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": signedURL, "expires_in": int(h.linkTTL.Seconds())})
}

// DownloadExport 直接以附件形式转发导出产物。
func (h *ExportJobHandler) DownloadExport(c *gin.Context) {
	job, ok := h.completedJob(c)
	if !ok {
		return
	}

	obj, err := h.storage.GetObject(c.Request.Context(), job.ObjectKey)
	if errors.Is(err, storage.ErrObjectNotFound) {
		ErrorCode(c, http.StatusGone, errcode.ResourceMissing, "export artifact no longer available")
		return
	}
	if err != nil {
		middleware.LoggerFromContext(c).Error("read export object failed", slog.Any("error", err))
		Internal(c, "failed to read export")
		return
	}
	defer obj.Close()

	format := export.Format(job.Format)
	writeAttachment(c, filenameOf(job), format.ContentType())
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, obj); err != nil {
		middleware.LoggerFromContext(c).Warn("stream export failed", slog.Any("error", err))
	}
}

func (h *ExportJobHandler) loadJob(c *gin.Context) (*database.ExportJob, bool) {
	s := middleware.SessionFromContext(c)
	job, err := database.FindExportJob(c.Request.Context(), h.db, s.ID, c.Param("id"))
	if err != nil {
		if errors.Is(err, database.ErrJobNotFound) {
			NotFound(c, "export job not found")
			return nil, false
		}
		middleware.LoggerFromContext(c).Error("query export job failed", slog.Any("error", err))
		Internal(c, "failed to query export job")
		return nil, false
	}
	return job, true
}

func (h *ExportJobHandler) completedJob(c *gin.Context) (*database.ExportJob, bool) {
	job, ok := h.loadJob(c)
	if !ok {
		return nil, false
	}
	switch job.Status {
	case database.JobCompleted:
		return job, true
	case database.JobFailed:
		ErrorCode(c, http.StatusUnprocessableEntity, job.ErrorCode, job.ErrorMessage)
	default:
		ErrorCode(c, http.StatusConflict, errcode.InProgress, "export not ready")
	}
	return nil, false
}

func filenameOf(job *database.ExportJob) string {
	return export.Format(job.Format).Filename()
}
