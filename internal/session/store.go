// Package session holds the per-conversation dialogue context: the partial
// progress (customer identity, a month awaiting its year, the intent that
// month belongs to) that the engine accumulates across turns.
//
// The store is process-local and not persisted across restarts. Its one hard
// requirement is per-key atomicity: two concurrent messages for the same
// session must not interleave their read-modify-write of the pending slots,
// while messages for different sessions must never block each other. Each
// session therefore carries its own mutex; the outer map is only guarded for
// entry lookup and creation.
package session

import (
	"sync"
	"time"

	"github.com/jpereyra/contabot-backend/internal/nlp"
)

// Context is the mutable per-session state. The zero value is a valid,
// empty context.
//
// Invariant: PendingMonth and PendingIntent are set and cleared together;
// use SetPending/ClearPending rather than assigning the fields directly.
type Context struct {
	// CustomerRef is the raw reference (email or formatted CUIT) last seen
	// for this session, kept until an id has been resolved.
	CustomerRef string
	// CustomerID is the resolved customer identity (0 = unresolved).
	CustomerID int64
	// PendingMonth is a month extracted without a year, awaiting the year
	// in a follow-up turn (0 = none).
	PendingMonth time.Month
	// PendingIntent is the period-bound intent the pending month belongs to.
	PendingIntent nlp.Intent
}

// SetPending records a month awaiting its year together with the intent
// that should resume once the year arrives.
func (c *Context) SetPending(month time.Month, intent nlp.Intent) {
	c.PendingMonth = month
	c.PendingIntent = intent
}

// ClearPending removes both pending slots at once.
func (c *Context) ClearPending() {
	c.PendingMonth = 0
	c.PendingIntent = ""
}

// HasPendingMonth reports whether a month is waiting for its year.
func (c *Context) HasPendingMonth() bool { return c.PendingMonth != 0 }

type entry struct {
	mu  sync.Mutex
	ctx Context
}

// Store is a concurrency-safe map of session id to Context. Entries are
// created lazily on first touch and live for the process lifetime unless
// explicitly cleared.
type Store struct {
	mu      sync.RWMutex
	entries map[string]*entry
}

// NewStore returns an empty Store ready for use.
func NewStore() *Store {
	return &Store{entries: make(map[string]*entry)}
}

// entryFor returns the entry for id, creating it if absent.
func (s *Store) entryFor(id string) *entry {
	s.mu.RLock()
	e, ok := s.entries[id]
	s.mu.RUnlock()
	if ok {
		return e
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok = s.entries[id]; ok {
		return e
	}
	e = &entry{}
	s.entries[id] = e
	return e
}

// With runs fn with exclusive access to the session's Context. Mutations
// made by fn are retained unless fn returns an error, in which case the
// context is rolled back to its state before the call — a failed turn must
// not leave half-updated pending slots behind.
func (s *Store) With(id string, fn func(*Context) error) error {
	e := s.entryFor(id)
	e.mu.Lock()
	defer e.mu.Unlock()

	saved := e.ctx
	if err := fn(&e.ctx); err != nil {
		e.ctx = saved
		return err
	}
	return nil
}

// Snapshot returns a copy of the session's current Context (empty if the
// session was never touched).
func (s *Store) Snapshot(id string) Context {
	s.mu.RLock()
	e, ok := s.entries[id]
	s.mu.RUnlock()
	if !ok {
		return Context{}
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ctx
}

// Clear resets the session to an empty context.
func (s *Store) Clear(id string) {
	s.mu.RLock()
	e, ok := s.entries[id]
	s.mu.RUnlock()
	if !ok {
		return
	}
	e.mu.Lock()
	e.ctx = Context{}
	e.mu.Unlock()
}
