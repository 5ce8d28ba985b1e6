package tasks

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"liveResume/internal/resume"
)

func TestNewExportGenerateTask(t *testing.T) {
	doc := resume.Default()
	doc.Name = "Ada"

	task, err := NewExportGenerateTask(ExportGeneratePayload{
		JobID:         "job-1",
		SessionID:     "sess-1",
		CorrelationID: "corr-1",
		Format:        "pdf",
		Document:      doc,
	}, 2)
	require.NoError(t, err)
	assert.Equal(t, TypeExportGenerate, task.Type())

	var got ExportGeneratePayload
	require.NoError(t, json.Unmarshal(task.Payload(), &got))
	assert.Equal(t, "job-1", got.JobID)
	assert.Equal(t, "pdf", got.Format)
	assert.Equal(t, "Ada", got.Document.Name)
}

func TestExportTaskID(t *testing.T) {
	assert.Equal(t, "export:abc", ExportTaskID("abc"))
}
