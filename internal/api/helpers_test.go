package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"liveResume/internal/api/middleware"
	"liveResume/internal/database"
	"liveResume/internal/export"
	"liveResume/internal/render"
	"liveResume/internal/rewrite"
	"liveResume/internal/session"
	"liveResume/internal/storage"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// pngSurface renders a solid raster of its size.
type pngSurface struct{ w, h float64 }

func (s *pngSurface) Size() (float64, float64) { return s.w, s.h }
func (s *pngSurface) Close() error              { return nil }

func (s *pngSurface) Capture(_ context.Context, opts export.CaptureOptions) (export.Raster, error) {
	img := image.NewNRGBA(image.Rect(0, 0, int(s.w*opts.PixelRatio), int(s.h*opts.PixelRatio)))
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return export.Raster{}, err
	}
	return export.Raster{Data: buf.Bytes(), Encoding: export.EncodingPNG}, nil
}

type pngTarget struct{}

func (pngTarget) Mount(context.Context) (export.Surface, error) {
	return &pngSurface{w: 40, h: 20}, nil
}

// scriptedGenerator returns whatever the test set last.
type scriptedGenerator struct {
	mu   sync.Mutex
	text string
	err  error
	last rewrite.Request
}

func (g *scriptedGenerator) set(text string, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.text, g.err = text, err
}

func (g *scriptedGenerator) Generate(_ context.Context, req rewrite.Request) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.last = req
	return g.text, g.err
}

type fakeCounter struct {
	mu     sync.Mutex
	counts map[string]int64
	ttls   map[string]time.Duration
}

func newFakeCounter() *fakeCounter {
	return &fakeCounter{counts: map[string]int64{}, ttls: map[string]time.Duration{}}
}

func (f *fakeCounter) Incr(ctx context.Context, key string) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counts[key]++
	cmd := redis.NewIntCmd(ctx)
	cmd.SetVal(f.counts[key])
	return cmd
}

func (f *fakeCounter) Expire(ctx context.Context, key string, ttl time.Duration) *redis.BoolCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ttls[key] = ttl
	cmd := redis.NewBoolCmd(ctx)
	cmd.SetVal(true)
	return cmd
}

type fakeQueue struct {
	mu    sync.Mutex
	tasks []*asynq.Task
	err   error
}

func (q *fakeQueue) EnqueueContext(_ context.Context, task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return nil, q.err
	}
	q.tasks = append(q.tasks, task)
	return &asynq.TaskInfo{ID: fmt.Sprintf("task-%d", len(q.tasks)), Type: task.Type()}, nil
}

type fakeStorage struct {
	objects map[string][]byte
}

func (s *fakeStorage) GetObject(_ context.Context, key string) (io.ReadCloser, error) {
	data, ok := s.objects[key]
	if !ok {
		return nil, fmt.Errorf("get object %q: %w", key, storage.ErrObjectNotFound)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *fakeStorage) PresignedDownloadURL(_ context.Context, key, filename string, _ time.Duration) (string, error) {
	return "https://example.invalid/" + key + "?filename=" + filename, nil
}

type testServer struct {
	router    *gin.Engine
	registry  *session.Registry
	generator *scriptedGenerator
	counter   *fakeCounter
	db        *gorm.DB
	queue     *fakeQueue
	storage   *fakeStorage
}

type serverOption func(*session.Deps, *Dependencies)

func withTargets(fn session.TargetFunc) serverOption {
	return func(sd *session.Deps, _ *Dependencies) { sd.Targets = fn }
}

func withModel(g rewrite.Generator) serverOption {
	return func(_ *session.Deps, d *Dependencies) { d.Model = g }
}

func withSessionEnd(fn func(ctx context.Context, id string)) serverOption {
	return func(_ *session.Deps, d *Dependencies) { d.OnSessionEnd = fn }
}

func newTestServer(t *testing.T, opts ...serverOption) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.Migrate(db))

	ts := &testServer{
		generator: &scriptedGenerator{},
		counter:   newFakeCounter(),
		db:        db,
		queue:     &fakeQueue{},
		storage:   &fakeStorage{objects: map[string][]byte{}},
	}

	renderer := render.MustNew()
	sessionDeps := session.Deps{
		Renderer:  renderer,
		Generator: ts.generator,
		Logger:    discardLogger(),
	}
	deps := Dependencies{
		Renderer:          renderer,
		Logger:            discardLogger(),
		RewriteMaxPerHour: 3,
		RateCounter:       ts.counter,
		DB:                db,
		Queue:             ts.queue,
		Storage:           ts.storage,
		ExportRetry:       1,
	}
	for _, opt := range opts {
		opt(&sessionDeps, &deps)
	}

	ts.registry = session.NewRegistry(sessionDeps)
	deps.Registry = ts.registry

	ts.router = NewRouter(discardLogger(), "")
	RegisterRoutes(ts.router, deps)
	return ts
}

func (ts *testServer) do(t *testing.T, method, path, sessionID string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	switch v := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(v)
	default:
		data, err := json.Marshal(v)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if sessionID != "" {
		req.Header.Set(middleware.SessionHeader, sessionID)
	}
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func (ts *testServer) newSession(t *testing.T) string {
	t.Helper()
	w := ts.do(t, http.MethodPost, "/v1/session", "", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	id := w.Header().Get(middleware.SessionHeader)
	require.NotEmpty(t, id)
	return id
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

type docBody struct {
	SessionID string `json:"session_id"`
	Version   uint64 `json:"version"`
	Document  struct {
		Name            string   `json:"name"`
		Title           string   `json:"title"`
		Summary         string   `json:"summary"`
		Skills          []string `json:"skills"`
		AreasOfInterest []string `json:"areasOfInterest"`
		Layout          string   `json:"layout"`
	} `json:"document"`
}

type errBody struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
}
