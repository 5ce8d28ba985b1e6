package database

import (
	"time"

	"gorm.io/datatypes"
)

// 导出任务状态。
const (
	JobPending   = "pending"
	JobCompleted = "completed"
	JobFailed    = "failed"
)

// ExportJob 记录一次异步导出。文档本身不落库，只保存产物位置与状态。
type ExportJob struct {
	ID            string         `gorm:"primaryKey;size:36" json:"id"`
	SessionID     string         `gorm:"index;size:64" json:"session_id"`
	CorrelationID string         `gorm:"size:64" json:"correlation_id"`
	Format        string         `gorm:"size:8" json:"format"`
	Status        string         `gorm:"size:16;index" json:"status"`
	ObjectKey     string         `gorm:"size:512" json:"-"`
	ThumbnailKey  string         `gorm:"size:512" json:"-"`
	Width         int            `json:"width,omitempty"`
	Height        int            `json:"height,omitempty"`
	Warnings      datatypes.JSON `gorm:"type:jsonb" json:"warnings,omitempty"`
	ErrorCode     int            `json:"error_code,omitempty"`
	ErrorMessage  string         `gorm:"size:1024" json:"error_message,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}
