// Package store holds the canonical in-memory resume document of a session.
//
// The store is the single writer of the document. Every write is applied
// atomically under a mutex and is visible to the next Read; writes are
// ordered by arrival, so a background completion (for example a rewrite)
// that finishes after a user edit wins over it.
package store

import (
	"sync"

	"liveResume/internal/resume"
)

// Store 是单写者的文档存储，读写均为同步操作。
type Store struct {
	mu      sync.RWMutex
	doc     resume.Document
	version uint64

	subsMu sync.Mutex
	subs   map[int]chan resume.Document
	nextID int
}

// New creates a store holding the default document.
func New() *Store {
	return NewWithDocument(resume.Default())
}

// NewWithDocument creates a store seeded with doc.
func NewWithDocument(doc resume.Document) *Store {
	doc = doc.Clone()
	doc.Normalize()
	return &Store{
		doc:  doc,
		subs: make(map[int]chan resume.Document),
	}
}

// Read returns a deep copy of the current document.
func (s *Store) Read() resume.Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc.Clone()
}

// Snapshot returns the current document together with its version.
func (s *Store) Snapshot() (resume.Document, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc.Clone(), s.version
}

// Version returns the number of successful writes so far.
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Patch shallow-merges the present top-level keys of p into the document.
// On error nothing is applied.
func (s *Store) Patch(p resume.Patch) error {
	return s.Update(func(cur resume.Document) (resume.Document, error) {
		return p.Apply(cur)
	})
}

// Replace swaps in next wholesale.
func (s *Store) Replace(next resume.Document) error {
	next = next.Clone()
	next.Normalize()
	if err := next.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	s.doc = next
	s.version++
	snapshot := s.doc.Clone()
	s.mu.Unlock()

	s.publish(snapshot)
	return nil
}

// Update applies fn to the current document as one atomic read-modify-write.
// fn receives a private copy; if it returns an error the document is left
// untouched.
func (s *Store) Update(fn func(resume.Document) (resume.Document, error)) error {
	s.mu.Lock()
	next, err := fn(s.doc.Clone())
	if err != nil {
		s.mu.Unlock()
		return err
	}
	next = next.Clone()
	next.Normalize()
	if err := next.Validate(); err != nil {
		s.mu.Unlock()
		return err
	}
	s.doc = next
	s.version++
	snapshot := s.doc.Clone()
	s.mu.Unlock()

	s.publish(snapshot)
	return nil
}

// Subscribe returns a channel that receives the document after every write.
// The channel holds only the latest snapshot: a slow reader skips
// intermediate states but never misses the newest one. Call cancel to stop.
func (s *Store) Subscribe() (<-chan resume.Document, func()) {
	ch := make(chan resume.Document, 1)

	s.subsMu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = ch
	s.subsMu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.subsMu.Lock()
			delete(s.subs, id)
			s.subsMu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

func (s *Store) publish(doc resume.Document) {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()

	for _, ch := range s.subs {
		// 丢弃未被消费的旧快照，只保留最新值。
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- doc.Clone():
		default:
		}
	}
}
