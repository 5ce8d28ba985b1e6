package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"liveResume/internal/export"
	"liveResume/internal/metrics"
	"liveResume/internal/rewrite"
	"liveResume/internal/store"
)

// Deps are shared by every session of a registry.
type Deps struct {
	Renderer  Renderer
	Generator rewrite.Generator
	Composer  export.Composer
	Targets   TargetFunc
	Logger    *slog.Logger
}

// Registry maps session IDs to live sessions.
type Registry struct {
	deps Deps
	now  func() time.Time

	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewRegistry(deps Deps) *Registry {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Registry{
		deps:     deps,
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
}

// Create opens a session holding the default document.
func (r *Registry) Create() *Session {
	id := uuid.NewString()
	logger := r.deps.Logger.With(slog.String("session_id", id))
	st := store.New()

	s := &Session{
		ID:       id,
		Store:    st,
		Rewriter: rewrite.NewRewriter(st, r.deps.Generator, logger),
		Pipeline: export.NewPipeline(r.deps.Composer, logger),
		renderer: r.deps.Renderer,
		targets:  r.deps.Targets,
		logger:   logger,
		created:  r.now(),
	}
	s.touch(s.created)

	r.mu.Lock()
	r.sessions[id] = s
	metrics.SetActiveSessions(len(r.sessions))
	r.mu.Unlock()

	logger.Info("session created")
	return s
}

// Get returns the session and marks it as used.
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.RLock()
	s, ok := r.sessions[id]
	r.mu.RUnlock()
	if ok {
		s.touch(r.now())
	}
	return s, ok
}

// GetOrCreate returns the session for id, or a new one (with a new ID) when
// id is empty or unknown.
func (r *Registry) GetOrCreate(id string) (s *Session, created bool) {
	if id != "" {
		if s, ok := r.Get(id); ok {
			return s, false
		}
	}
	return r.Create(), true
}

// Delete ends a session. The document is dropped with it.
func (r *Registry) Delete(id string) bool {
	r.mu.Lock()
	_, ok := r.sessions[id]
	delete(r.sessions, id)
	metrics.SetActiveSessions(len(r.sessions))
	r.mu.Unlock()
	return ok
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Sweep deletes sessions idle for longer than idle and returns their IDs.
// Sessions with a rewrite or export in flight are kept.
func (r *Registry) Sweep(idle time.Duration) []string {
	cutoff := r.now().Add(-idle)

	r.mu.Lock()
	defer r.mu.Unlock()

	var removed []string
	for id, s := range r.sessions {
		if s.LastSeen().After(cutoff) {
			continue
		}
		if s.Rewriter.InFlight() || s.Pipeline.InFlight() {
			continue
		}
		delete(r.sessions, id)
		removed = append(removed, id)
	}
	metrics.SetActiveSessions(len(r.sessions))
	return removed
}

// RunJanitor sweeps every interval until ctx is done. onEvict, when set, is
// called for every removed session outside the registry lock.
func (r *Registry) RunJanitor(ctx context.Context, interval, idle time.Duration, onEvict func(id string)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed := r.Sweep(idle)
			if len(removed) == 0 {
				continue
			}
			r.deps.Logger.Info("idle sessions swept", slog.Int("count", len(removed)), slog.Int("remaining", r.Len()))
			if onEvict != nil {
				for _, id := range removed {
					onEvict(id)
				}
			}
		}
	}
}
