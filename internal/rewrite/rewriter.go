package rewrite

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"sync/atomic"

	"liveResume/internal/resume"
	"liveResume/internal/store"
)

// Outcome reports what a finished rewrite did to the document.
type Outcome int

const (
	Unchanged Outcome = iota
	Applied
)

func (o Outcome) String() string {
	if o == Applied {
		return "applied"
	}
	return "unchanged"
}

var errNoChange = errors.New("rewrite produced no change")

// Rewriter runs at most one rewrite at a time against a store.
type Rewriter struct {
	store     *store.Store
	generator Generator
	logger    *slog.Logger
	busy      atomic.Bool
}

func NewRewriter(st *store.Store, generator Generator, logger *slog.Logger) *Rewriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Rewriter{store: st, generator: generator, logger: logger}
}

// InFlight reports whether a rewrite is currently running.
func (r *Rewriter) InFlight() bool {
	return r.busy.Load()
}

// Rewrite snapshots the document, calls the generator and merges the result
// into the document as it is when the call completes. Edits made while the
// call is running survive on every field the response does not replace.
//
// A second call while one is running returns ErrRewriteInProgress and does
// nothing. On ErrRewriteRequest or ErrParseFailure the document is untouched.
func (r *Rewriter) Rewrite(ctx context.Context) (Outcome, error) {
	if !r.busy.CompareAndSwap(false, true) {
		return Unchanged, ErrRewriteInProgress
	}
	defer r.busy.Store(false)

	if r.generator == nil {
		return Unchanged, fmt.Errorf("%w: no generator configured", ErrRewriteRequest)
	}

	req := NewRequest(r.store.Read())
	text, err := r.generator.Generate(ctx, req)
	if err != nil {
		if !errors.Is(err, ErrRewriteRequest) {
			err = fmt.Errorf("%w: %v", ErrRewriteRequest, err)
		}
		r.logger.Warn("rewrite generation failed", slog.Any("error", err))
		return Unchanged, err
	}

	resp, err := ParseResponse(text)
	if err != nil {
		r.logger.Warn("rewrite response rejected", slog.Any("error", err))
		return Unchanged, err
	}

	err = r.store.Update(func(cur resume.Document) (resume.Document, error) {
		next := Apply(cur, resp)
		if reflect.DeepEqual(next, cur) {
			return cur, errNoChange
		}
		return next, nil
	})
	switch {
	case errors.Is(err, errNoChange):
		return Unchanged, nil
	case err != nil:
		return Unchanged, fmt.Errorf("apply rewrite: %w", err)
	}

	r.logger.Info("rewrite applied",
		slog.Bool("summary", resp.Summary != ""),
		slog.Int("experience_bullets", len(resp.ExperienceBullets)),
		slog.Int("skills", len(resp.Skills)),
	)
	return Applied, nil
}
