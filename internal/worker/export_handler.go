package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/hibiken/asynq"
	"gorm.io/gorm"

	"liveResume/internal/database"
	"liveResume/internal/errcode"
	"liveResume/internal/export"
	"liveResume/internal/metrics"
	"liveResume/internal/resume"
	"liveResume/internal/storage"
	"liveResume/internal/tasks"
)

// Uploader stores export artifacts.
type Uploader interface {
	UploadFile(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) error
}

// Renderer turns the payload document into the page that gets captured.
type Renderer interface {
	Render(doc resume.Document) (string, error)
}

// ExportTaskHandler 负责消费异步导出任务。
type ExportTaskHandler struct {
	db             *gorm.DB
	storage        Uploader
	notifier       Notifier
	renderer       Renderer
	composer       export.Composer
	targets        func(html string) export.Target
	thumbnailWidth int
	logger         *slog.Logger
}

// NewExportTaskHandler 创建任务处理器。
func NewExportTaskHandler(
	db *gorm.DB,
	uploader Uploader,
	notifier Notifier,
	renderer Renderer,
	composer export.Composer,
	targets func(html string) export.Target,
	thumbnailWidth int,
	logger *slog.Logger,
) *ExportTaskHandler {
	return &ExportTaskHandler{
		db:             db,
		storage:        uploader,
		notifier:       notifier,
		renderer:       renderer,
		composer:       composer,
		targets:        targets,
		thumbnailWidth: thumbnailWidth,
		logger:         logger,
	}
}

// ProcessTask 实现 asynq.Handler。
func (h *ExportTaskHandler) ProcessTask(ctx context.Context, t *asynq.Task) (retErr error) {
	log := h.logger

	var payload tasks.ExportGeneratePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		log.Error("unmarshal task payload failed", slog.Any("error", err))
		return fmt.Errorf("unmarshal payload: %v: %w", err, asynq.SkipRetry)
	}

	log = log.With(
		slog.String("correlation_id", payload.CorrelationID),
		slog.String("session_id", payload.SessionID),
		slog.String("job_id", payload.JobID),
		slog.String("format", payload.Format),
	)
	log.Info("starting export task")

	job, err := database.FindExportJob(ctx, h.db, payload.SessionID, payload.JobID)
	if err != nil {
		if errors.Is(err, database.ErrJobNotFound) {
			log.Warn("export job not found, skipping task")
			return nil
		}
		log.Error("query export job failed", slog.Any("error", err))
		return err
	}
	if job.Status == database.JobCompleted {
		log.Info("export job already completed, skipping task")
		return nil
	}

	start := time.Now()
	defer func() {
		metrics.ObserveExport(payload.Format, errcode.Name(errcode.Of(retErr)), time.Since(start))
		if retErr == nil {
			return
		}
		// 不可重试的错误已在下方落库并通知。
		if errors.Is(retErr, asynq.SkipRetry) || !isFinalAsynqAttempt(ctx) {
			return
		}
		h.fail(ctx, log, payload, retErr)
	}()

	format, err := export.ParseFormat(payload.Format)
	if err != nil {
		h.fail(ctx, log, payload, err)
		return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
	}

	html, err := h.renderer.Render(payload.Document)
	if err != nil {
		log.Error("render document failed", slog.Any("error", err))
		return err
	}

	var target export.Target
	if h.targets != nil {
		target = h.targets(html)
	}
	artifact, err := export.NewPipeline(h.composer, log).Export(ctx, target, format)
	if err != nil {
		if errors.Is(err, export.ErrNoRenderTarget) {
			h.fail(ctx, log, payload, err)
			return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
		}
		log.Error("export failed", slog.Any("error", err))
		return err
	}

	objectKey := storage.ExportKey(payload.SessionID, payload.JobID, string(artifact.Format))
	if err := h.storage.UploadFile(ctx, objectKey, bytes.NewReader(artifact.Data), int64(len(artifact.Data)), artifact.ContentType); err != nil {
		log.Error("upload artifact failed", slog.Any("error", err))
		return err
	}

	thumbnailKey, err := h.uploadThumbnail(ctx, payload, artifact)
	if err != nil {
		// 缩略图失败不影响导出结果。
		log.Warn("generate export thumbnail failed", slog.Any("error", err))
	}

	if err := database.CompleteExportJob(ctx, h.db, payload.JobID, database.CompletionUpdate{
		ObjectKey:    objectKey,
		ThumbnailKey: thumbnailKey,
		Width:        artifact.Width,
		Height:       artifact.Height,
		Warnings:     artifact.Warnings,
	}); err != nil {
		log.Error("update export job failed", slog.Any("error", err))
		return err
	}

	notify := NotifyMessage{
		Type:          MessageTypeExport,
		Status:        database.JobCompleted,
		JobID:         payload.JobID,
		Format:        string(artifact.Format),
		CorrelationID: payload.CorrelationID,
		ErrorCode:     errcode.OK,
		Warnings:      artifact.Warnings,
	}
	if len(artifact.Warnings) > 0 {
		notify.ErrorCode = errcode.ResourceMissing
		notify.ErrorMessage = "部分图片资源缺失/无效，已替换为占位图"
		log.Warn("export finished with substituted images", slog.Int("count", len(artifact.Warnings)))
	}
	if err := h.notifier.Notify(ctx, payload.SessionID, notify); err != nil {
		// 任务已落库，客户端仍可轮询状态，因此不重试。
		log.Error("publish export notification failed", slog.Any("error", err))
	}

	log.Info("export task completed", slog.Duration("elapsed", time.Since(start)))
	return nil
}

func (h *ExportTaskHandler) uploadThumbnail(ctx context.Context, payload tasks.ExportGeneratePayload, artifact *export.Artifact) (string, error) {
	if h.thumbnailWidth <= 0 {
		return "", nil
	}
	thumb, err := export.Thumbnail(artifact.Raster(), h.thumbnailWidth)
	if err != nil {
		return "", err
	}
	key := storage.ThumbnailKey(payload.SessionID, payload.JobID)
	if err := h.storage.UploadFile(ctx, key, bytes.NewReader(thumb), int64(len(thumb)), "image/jpeg"); err != nil {
		return "", fmt.Errorf("upload thumbnail: %w", err)
	}
	return key, nil
}

// fail 将任务标记为失败并通知会话；两步都只记录错误。
func (h *ExportTaskHandler) fail(ctx context.Context, log *slog.Logger, payload tasks.ExportGeneratePayload, cause error) {
	code := errcode.Of(cause)
	msg := strings.TrimSpace(cause.Error())

	if err := database.FailExportJob(ctx, h.db, payload.JobID, code, msg); err != nil {
		log.Error("mark export job failed", slog.Any("error", err))
	}
	notify := NotifyMessage{
		Type:          MessageTypeExport,
		Status:        "error",
		JobID:         payload.JobID,
		Format:        payload.Format,
		CorrelationID: payload.CorrelationID,
		ErrorCode:     code,
		ErrorMessage:  msg,
	}
	if err := h.notifier.Notify(ctx, payload.SessionID, notify); err != nil {
		log.Error("publish export error notification failed", slog.Any("error", err))
	}
}

func isFinalAsynqAttempt(ctx context.Context) bool {
	retryCount, ok1 := asynq.GetRetryCount(ctx)
	maxRetry, ok2 := asynq.GetMaxRetry(ctx)
	if !ok1 || !ok2 {
		return false
	}
	return retryCount >= maxRetry
}
