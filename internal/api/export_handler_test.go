package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"liveResume/internal/database"
	"liveResume/internal/errcode"
	"liveResume/internal/export"
	"liveResume/internal/tasks"
)

func TestExportArtifact_NoRenderTarget(t *testing.T) {
	ts := newTestServer(t)
	id := ts.newSession(t)

	w := ts.do(t, http.MethodGet, "/v1/session/export/png", id, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Empty(t, w.Header().Get("Content-Disposition"))
	var e errBody
	decodeBody(t, w, &e)
	assert.Equal(t, errcode.NoRenderTarget, e.Code)
}

func TestExportArtifact_AttachmentPerFormat(t *testing.T) {
	ts := newTestServer(t, withTargets(func(string) export.Target { return pngTarget{} }))
	id := ts.newSession(t)

	for path, want := range map[string]struct{ filename, contentType string }{
		"png":  {"resume.png", "image/png"},
		"jpeg": {"resume.jpg", "image/jpeg"},
	} {
		w := ts.do(t, http.MethodGet, "/v1/session/export/"+path, id, nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, want.contentType, w.Header().Get("Content-Type"))
		assert.Equal(t, `attachment; filename="`+want.filename+`"`, w.Header().Get("Content-Disposition"))
		assert.Equal(t, "0", w.Header().Get(WarningsHeader))
		assert.NotEmpty(t, w.Body.Bytes())
	}
}

func TestExportArtifact_PDFWithoutComposerIsCaptureFailure(t *testing.T) {
	ts := newTestServer(t, withTargets(func(string) export.Target { return pngTarget{} }))
	id := ts.newSession(t)

	w := ts.do(t, http.MethodGet, "/v1/session/export/pdf", id, nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	var e errBody
	decodeBody(t, w, &e)
	assert.Equal(t, errcode.CaptureFailure, e.Code)
}

func TestExportArtifact_UnknownFormat(t *testing.T) {
	ts := newTestServer(t)
	id := ts.newSession(t)

	w := ts.do(t, http.MethodGet, "/v1/session/export/gif", id, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestEnqueueExport_LifecycleAndLinks(t *testing.T) {
	ts := newTestServer(t)
	id := ts.newSession(t)
	ts.do(t, http.MethodPatch, "/v1/session/document", id, `{"name":"Ada"}`)

	w := ts.do(t, http.MethodPost, "/v1/session/exports", id, `{"format":"PDF"}`)
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	var accepted struct {
		JobID  string `json:"job_id"`
		TaskID string `json:"task_id"`
	}
	decodeBody(t, w, &accepted)
	require.NotEmpty(t, accepted.JobID)

	require.Len(t, ts.queue.tasks, 1)
	task := ts.queue.tasks[0]
	assert.Equal(t, tasks.TypeExportGenerate, task.Type())
	var payload tasks.ExportGeneratePayload
	require.NoError(t, json.Unmarshal(task.Payload(), &payload))
	assert.Equal(t, accepted.JobID, payload.JobID)
	assert.Equal(t, id, payload.SessionID)
	assert.Equal(t, "pdf", payload.Format)
	assert.Equal(t, "Ada", payload.Document.Name)

	// 同一会话已有排队任务时拒绝。
	w = ts.do(t, http.MethodPost, "/v1/session/exports", id, `{"format":"png"}`)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = ts.do(t, http.MethodGet, "/v1/session/exports/"+accepted.JobID, id, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var job struct {
		Status string `json:"status"`
		Format string `json:"format"`
	}
	decodeBody(t, w, &job)
	assert.Equal(t, database.JobPending, job.Status)

	w = ts.do(t, http.MethodGet, "/v1/session/exports/"+accepted.JobID+"/link", id, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	key := "exports/" + id + "/" + accepted.JobID + ".pdf"
	ts.storage.objects[key] = []byte("%PDF-1.7 test")
	require.NoError(t, database.CompleteExportJob(context.Background(), ts.db, accepted.JobID, database.CompletionUpdate{
		ObjectKey: key,
		Warnings:  []string{"image replaced by placeholder: x"},
	}))

	w = ts.do(t, http.MethodGet, "/v1/session/exports/"+accepted.JobID, id, nil)
	var done struct {
		Status   string   `json:"status"`
		Warnings []string `json:"warnings"`
	}
	decodeBody(t, w, &done)
	assert.Equal(t, database.JobCompleted, done.Status)
	assert.Equal(t, []string{"image replaced by placeholder: x"}, done.Warnings)

	w = ts.do(t, http.MethodGet, "/v1/session/exports/"+accepted.JobID+"/link", id, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var link struct {
		URL       string `json:"url"`
		ExpiresIn int    `json:"expires_in"`
	}
	decodeBody(t, w, &link)
	assert.Contains(t, link.URL, key)
	assert.Contains(t, link.URL, "resume.pdf")
	assert.Equal(t, 300, link.ExpiresIn)

	w = ts.do(t, http.MethodGet, "/v1/session/exports/"+accepted.JobID+"/download", id, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `attachment; filename="resume.pdf"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "%PDF-1.7 test", w.Body.String())

	// 完成后可以再次导出。
	w = ts.do(t, http.MethodPost, "/v1/session/exports", id, `{"format":"png"}`)
	assert.Equal(t, http.StatusAccepted, w.Code)
}

func TestEnqueueExport_ConcurrentRequestsQueueOnce(t *testing.T) {
	ts := newTestServer(t)
	id := ts.newSession(t)
	// 放慢建单，让并发请求在检查与插入之间交错
	require.NoError(t, ts.db.Callback().Create().Before("gorm:create").
		Register("test:slow_insert", func(*gorm.DB) { time.Sleep(50 * time.Millisecond) }))

	const n = 4
	codes := make([]int, n)
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			codes[i] = ts.do(t, http.MethodPost, "/v1/session/exports", id, `{"format":"png"}`).Code
		}()
	}
	wg.Wait()

	accepted, conflicts := 0, 0
	for _, code := range codes {
		switch code {
		case http.StatusAccepted:
			accepted++
		case http.StatusConflict:
			conflicts++
		}
	}
	assert.Equal(t, 1, accepted, codes)
	assert.Equal(t, n-1, conflicts, codes)
	ts.queue.mu.Lock()
	defer ts.queue.mu.Unlock()
	assert.Len(t, ts.queue.tasks, 1)
}

func TestExportJobs_ScopedToSession(t *testing.T) {
	ts := newTestServer(t)
	owner := ts.newSession(t)
	other := ts.newSession(t)

	w := ts.do(t, http.MethodPost, "/v1/session/exports", owner, `{"format":"jpg"}`)
	require.Equal(t, http.StatusAccepted, w.Code)
	var accepted struct {
		JobID string `json:"job_id"`
	}
	decodeBody(t, w, &accepted)

	w = ts.do(t, http.MethodGet, "/v1/session/exports/"+accepted.JobID, other, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestEnqueueExport_FailedJobReportsCode(t *testing.T) {
	ts := newTestServer(t)
	id := ts.newSession(t)

	w := ts.do(t, http.MethodPost, "/v1/session/exports", id, `{"format":"png"}`)
	require.Equal(t, http.StatusAccepted, w.Code)
	var accepted struct {
		JobID string `json:"job_id"`
	}
	decodeBody(t, w, &accepted)
	require.NoError(t, database.FailExportJob(context.Background(), ts.db, accepted.JobID, errcode.CaptureFailure, "capture failed"))

	w = ts.do(t, http.MethodGet, "/v1/session/exports/"+accepted.JobID+"/download", id, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	var e errBody
	decodeBody(t, w, &e)
	assert.Equal(t, errcode.CaptureFailure, e.Code)
}

func TestEnqueueExport_QueueFailureMarksJobFailed(t *testing.T) {
	ts := newTestServer(t)
	ts.queue.err = errors.New("redis down")
	id := ts.newSession(t)

	w := ts.do(t, http.MethodPost, "/v1/session/exports", id, `{"format":"png"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	var jobs []database.ExportJob
	require.NoError(t, ts.db.Where("session_id = ?", id).Find(&jobs).Error)
	require.Len(t, jobs, 1)
	assert.Equal(t, database.JobFailed, jobs[0].Status)

	// 失败的任务不阻塞后续导出。
	ts.queue.err = nil
	w = ts.do(t, http.MethodPost, "/v1/session/exports", id, `{"format":"png"}`)
	assert.Equal(t, http.StatusAccepted, w.Code)
}

func TestEnqueueExport_BadFormat(t *testing.T) {
	ts := newTestServer(t)
	id := ts.newSession(t)

	w := ts.do(t, http.MethodPost, "/v1/session/exports", id, `{"format":"bmp"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = ts.do(t, http.MethodPost, "/v1/session/exports", id, `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, ts.queue.tasks)
}

func TestDownloadExport_PurgedArtifactIsGone(t *testing.T) {
	ts := newTestServer(t)
	id := ts.newSession(t)

	w := ts.do(t, http.MethodPost, "/v1/session/exports", id, `{"format":"png"}`)
	require.Equal(t, http.StatusAccepted, w.Code)
	var accepted struct {
		JobID string `json:"job_id"`
	}
	decodeBody(t, w, &accepted)
	require.NoError(t, database.CompleteExportJob(context.Background(), ts.db, accepted.JobID, database.CompletionUpdate{
		ObjectKey: "exports/" + id + "/" + accepted.JobID + ".png",
	}))

	w = ts.do(t, http.MethodGet, "/v1/session/exports/"+accepted.JobID+"/download", id, nil)
	assert.Equal(t, http.StatusGone, w.Code)
	var e errBody
	decodeBody(t, w, &e)
	assert.Equal(t, errcode.ResourceMissing, e.Code)
}
