package tasks

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"

	"liveResume/internal/resume"
)

// 任务类型常量，确保队列生产者与消费者一致。
const (
	TypeExportGenerate = "export:generate"
)

// ExportGeneratePayload 携带导出时刻的文档快照；worker 不回读会话。
type ExportGeneratePayload struct {
	JobID         string          `json:"job_id"`
	SessionID     string          `json:"session_id"`
	CorrelationID string          `json:"correlation_id"`
	Format        string          `json:"format"`
	Document      resume.Document `json:"document"`
}

// NewExportGenerateTask 构造一个新的导出任务，TaskID 与导出记录一一对应，重复入队会被 asynq 拒绝。
func NewExportGenerateTask(p ExportGeneratePayload, maxRetry int) (*asynq.Task, error) {
	payload, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeExportGenerate, payload,
		asynq.TaskID(ExportTaskID(p.JobID)),
		asynq.MaxRetry(maxRetry),
	), nil
}

// ExportTaskID is the queue task ID of an export job.
func ExportTaskID(jobID string) string {
	return fmt.Sprintf("export:%s", jobID)
}
