package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func loggedRouter(buf *bytes.Buffer) *gin.Engine {
	gin.SetMode(gin.TestMode)
	logger := slog.New(slog.NewJSONHandler(buf, nil))
	r := gin.New()
	r.Use(CorrelationIDMiddleware(), SlogLoggerMiddleware(logger))
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/v1/thing", func(c *gin.Context) {
		c.Set(slogLoggerKey, LoggerFromContext(c).With(slog.String("session_id", "sess-9")))
		c.Status(http.StatusNotFound)
	})
	return r
}

func TestCorrelationID(t *testing.T) {
	var buf bytes.Buffer
	r := loggedRouter(&buf)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(CorrelationHeader, "client-abc_1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "client-abc_1", w.Header().Get(CorrelationHeader))

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(CorrelationHeader, "bad id with spaces\n")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	_, err := uuid.Parse(w.Header().Get(CorrelationHeader))
	assert.NoError(t, err)

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(CorrelationHeader, strings.Repeat("x", 65))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.NotEqual(t, strings.Repeat("x", 65), w.Header().Get(CorrelationHeader))
}

func TestSlogLogger_QuietPathsAndLateFields(t *testing.T) {
	var buf bytes.Buffer
	r := loggedRouter(&buf)

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Empty(t, buf.String())

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/thing", nil))
	out := buf.String()
	assert.Contains(t, out, `"level":"WARN"`)
	assert.Contains(t, out, `"session_id":"sess-9"`)
	assert.Contains(t, out, `"path":"/v1/thing"`)
	assert.Contains(t, out, `"status":404`)
}
