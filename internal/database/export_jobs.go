package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var ErrJobNotFound = errors.New("export job not found")

func CreateExportJob(ctx context.Context, db *gorm.DB, job *ExportJob) error {
	if job.Status == "" {
		job.Status = JobPending
	}
	if err := db.WithContext(ctx).Create(job).Error; err != nil {
		return fmt.Errorf("create export job: %w", err)
	}
	return nil
}

// FindExportJob loads a job owned by sessionID. Jobs of other sessions are
// reported as not found.
func FindExportJob(ctx context.Context, db *gorm.DB, sessionID, id string) (*ExportJob, error) {
	var job ExportJob
	err := db.WithContext(ctx).
		Where("id = ? AND session_id = ?", id, sessionID).
		First(&job).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query export job: %w", err)
	}
	return &job, nil
}

// CompletionUpdate carries the result of a finished export.
type CompletionUpdate struct {
	ObjectKey    string
	ThumbnailKey string
	Width        int
	Height       int
	Warnings     []string
}

func CompleteExportJob(ctx context.Context, db *gorm.DB, id string, u CompletionUpdate) error {
	warnings, err := encodeWarnings(u.Warnings)
	if err != nil {
		return err
	}
	update := map[string]any{
		"status":        JobCompleted,
		"object_key":    u.ObjectKey,
		"thumbnail_key": u.ThumbnailKey,
		"width":         u.Width,
		"height":        u.Height,
		"warnings":      warnings,
		"error_code":    0,
		"error_message": "",
	}
	return updateJob(ctx, db, id, update)
}

func FailExportJob(ctx context.Context, db *gorm.DB, id string, code int, msg string) error {
	return updateJob(ctx, db, id, map[string]any{
		"status":        JobFailed,
		"error_code":    code,
		"error_message": msg,
	})
}

func updateJob(ctx context.Context, db *gorm.DB, id string, update map[string]any) error {
	res := db.WithContext(ctx).Model(&ExportJob{}).Where("id = ?", id).Updates(update)
	if res.Error != nil {
		return fmt.Errorf("update export job: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrJobNotFound
	}
	return nil
}

func encodeWarnings(warnings []string) (datatypes.JSON, error) {
	if len(warnings) == 0 {
		return datatypes.JSON("[]"), nil
	}
	data, err := json.Marshal(warnings)
	if err != nil {
		return nil, fmt.Errorf("marshal warnings: %w", err)
	}
	return datatypes.JSON(data), nil
}

// WarningList decodes the stored warnings.
func (j *ExportJob) WarningList() []string {
	if len(j.Warnings) == 0 {
		return nil
	}
	var out []string
	if err := json.Unmarshal(j.Warnings, &out); err != nil {
		return nil
	}
	return out
}

// HasPendingExportJob reports whether the session has a pending job created
// after since. Older pending rows are treated as abandoned.
func HasPendingExportJob(ctx context.Context, db *gorm.DB, sessionID string, since time.Time) (bool, error) {
	var count int64
	err := db.WithContext(ctx).
		Model(&ExportJob{}).
		Where("session_id = ? AND status = ? AND created_at > ?", sessionID, JobPending, since).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("count pending export jobs: %w", err)
	}
	return count > 0, nil
}

// DeleteSessionExportJobs removes every job row of a session.
func DeleteSessionExportJobs(ctx context.Context, db *gorm.DB, sessionID string) (int64, error) {
	res := db.WithContext(ctx).Where("session_id = ?", sessionID).Delete(&ExportJob{})
	if res.Error != nil {
		return 0, fmt.Errorf("delete export jobs: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// ListExportJobsBefore returns up to limit jobs last updated before cutoff,
// oldest first.
func ListExportJobsBefore(ctx context.Context, db *gorm.DB, cutoff time.Time, limit int) ([]ExportJob, error) {
	var jobs []ExportJob
	err := db.WithContext(ctx).
		Where("updated_at < ?", cutoff).
		Order("updated_at ASC").
		Limit(limit).
		Find(&jobs).Error
	if err != nil {
		return nil, fmt.Errorf("list export jobs: %w", err)
	}
	return jobs, nil
}

func DeleteExportJob(ctx context.Context, db *gorm.DB, id string) error {
	res := db.WithContext(ctx).Where("id = ?", id).Delete(&ExportJob{})
	if res.Error != nil {
		return fmt.Errorf("delete export job: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrJobNotFound
	}
	return nil
}
