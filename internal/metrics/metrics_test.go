package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGinMiddleware_LabelsUnmatchedRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(GinMiddleware())
	r.GET("/v1/document", func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, path := range []string{"/v1/document", "/nope/1", "/nope/2"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, 1.0, testutil.ToFloat64(requestTotal.WithLabelValues(http.MethodGet, "/v1/document", "200")))
	assert.Equal(t, 2.0, testutil.ToFloat64(requestTotal.WithLabelValues(http.MethodGet, "unmatched", "404")))
}

func TestGinMiddleware_ObservesResponseSize(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(GinMiddleware())
	r.GET("/v1/session/export/:format", func(c *gin.Context) {
		c.Data(http.StatusOK, "image/png", make([]byte, 4096))
	})
	r.DELETE("/v1/session", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	responseSize.Reset()

	for _, req := range []*http.Request{
		httptest.NewRequest(http.MethodGet, "/v1/session/export/png", nil),
		httptest.NewRequest(http.MethodGet, "/v1/session/export/jpeg", nil),
		httptest.NewRequest(http.MethodDelete, "/v1/session", nil),
	} {
		r.ServeHTTP(httptest.NewRecorder(), req)
	}

	// 空响应体不计入；两次导出共用路由模板一条序列。
	assert.Equal(t, 1, testutil.CollectAndCount(responseSize))
}

func TestAsynqMetricsMiddleware_CountsFailures(t *testing.T) {
	boom := errors.New("boom")
	h := AsynqMetricsMiddleware()(asynq.HandlerFunc(func(context.Context, *asynq.Task) error {
		return boom
	}))

	err := h.ProcessTask(context.Background(), asynq.NewTask("test:fail", nil))
	require.ErrorIs(t, err, boom)

	assert.Equal(t, 1.0, testutil.ToFloat64(taskFailedTotal.WithLabelValues("test:fail", "retry")))
	assert.Equal(t, 1.0, testutil.ToFloat64(taskProcessedTotal.WithLabelValues("test:fail")))
	assert.Equal(t, 0.0, testutil.ToFloat64(taskInProgress.WithLabelValues("test:fail")))
}

func TestAsynqMetricsMiddleware_SkipRetryReason(t *testing.T) {
	h := AsynqMetricsMiddleware()(asynq.HandlerFunc(func(context.Context, *asynq.Task) error {
		return fmt.Errorf("no render target: %w", asynq.SkipRetry)
	}))

	_ = h.ProcessTask(context.Background(), asynq.NewTask("test:skip", nil))
	assert.Equal(t, 1.0, testutil.ToFloat64(taskFailedTotal.WithLabelValues("test:skip", "skip_retry")))
	assert.Equal(t, 0.0, testutil.ToFloat64(taskFailedTotal.WithLabelValues("test:skip", "retry")))
}

func TestSetActiveSessions(t *testing.T) {
	SetActiveSessions(3)
	assert.Equal(t, 3.0, testutil.ToFloat64(sessionsActive))

	ObserveExport("png", "ok", 150*time.Millisecond)
	assert.Equal(t, 1, testutil.CollectAndCount(exportDuration))
}
