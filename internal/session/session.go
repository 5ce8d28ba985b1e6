// Package session keeps one document store, rewriter and export pipeline
// per editing session, in memory only.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"liveResume/internal/export"
	"liveResume/internal/resume"
	"liveResume/internal/rewrite"
	"liveResume/internal/store"
)

// Renderer turns a document into the page that is previewed and exported.
type Renderer interface {
	Render(doc resume.Document) (string, error)
}

// TargetFunc mounts rendered HTML as an export target. A nil TargetFunc
// means no surface can be mounted.
type TargetFunc func(html string) export.Target

// Session 是单个编辑会话，所有写入经由 Store 串行化。
type Session struct {
	ID       string
	Store    *store.Store
	Rewriter *rewrite.Rewriter
	Pipeline *export.Pipeline

	renderer Renderer
	targets  TargetFunc
	logger   *slog.Logger
	created  time.Time
	lastSeen atomic.Int64
	// enqueueing guards the pending check and job creation of async exports.
	enqueueing atomic.Bool
}

// BeginEnqueue claims the session's async export slot for the duration of
// one enqueue request. ok is false while another request holds it; otherwise
// done must be called once the job is recorded (or abandoned).
func (s *Session) BeginEnqueue() (done func(), ok bool) {
	if !s.enqueueing.CompareAndSwap(false, true) {
		return nil, false
	}
	return func() { s.enqueueing.Store(false) }, true
}

// Render renders the current document.
func (s *Session) Render() (string, error) {
	return s.renderer.Render(s.Store.Read())
}

// Export renders the current document, mounts it and runs the pipeline.
func (s *Session) Export(ctx context.Context, format export.Format) (*export.Artifact, error) {
	if s.targets == nil {
		return nil, export.ErrNoRenderTarget
	}
	html, err := s.Render()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", export.ErrCaptureFailure, err)
	}
	return s.Pipeline.Export(ctx, s.targets(html), format)
}

// CreatedAt returns when the session was opened.
func (s *Session) CreatedAt() time.Time {
	return s.created
}

// LastSeen returns the time of the last access through the registry.
func (s *Session) LastSeen() time.Time {
	return time.Unix(0, s.lastSeen.Load())
}

func (s *Session) touch(now time.Time) {
	s.lastSeen.Store(now.UnixNano())
}
