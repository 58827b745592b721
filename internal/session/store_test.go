package session

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jpereyra/contabot-backend/internal/nlp"
)

func TestStore_LazyCreationAndSnapshot(t *testing.T) {
	s := NewStore()

	ctx := s.Snapshot("s1")
	if ctx != (Context{}) {
		t.Fatalf("untouched session should be empty, got %+v", ctx)
	}

	err := s.With("s1", func(c *Context) error {
		c.CustomerRef = "20-12345678-9"
		c.CustomerID = 7
		return nil
	})
	if err != nil {
		t.Fatalf("With: %v", err)
	}

	got := s.Snapshot("s1")
	if got.CustomerRef != "20-12345678-9" || got.CustomerID != 7 {
		t.Fatalf("mutation lost: %+v", got)
	}
}

func TestStore_RollbackOnError(t *testing.T) {
	s := NewStore()
	_ = s.With("s1", func(c *Context) error {
		c.SetPending(time.December, nlp.IntentVATSummary)
		return nil
	})

	boom := errors.New("storage down")
	err := s.With("s1", func(c *Context) error {
		c.ClearPending()
		c.CustomerID = 99
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected error to propagate, got %v", err)
	}

	got := s.Snapshot("s1")
	if got.PendingMonth != time.December || got.PendingIntent != nlp.IntentVATSummary {
		t.Fatalf("failed turn must not corrupt pending slots: %+v", got)
	}
	if got.CustomerID != 0 {
		t.Fatalf("failed turn must roll back all mutations: %+v", got)
	}
}

func TestStore_PendingSlotsMoveTogether(t *testing.T) {
	var c Context
	c.SetPending(time.July, nlp.IntentSales)
	if !c.HasPendingMonth() || c.PendingIntent != nlp.IntentSales {
		t.Fatalf("SetPending: %+v", c)
	}
	c.ClearPending()
	if c.HasPendingMonth() || c.PendingIntent != "" {
		t.Fatalf("ClearPending: %+v", c)
	}
}

func TestStore_Clear(t *testing.T) {
	s := NewStore()
	_ = s.With("s1", func(c *Context) error { c.CustomerID = 1; return nil })
	s.Clear("s1")
	if got := s.Snapshot("s1"); got != (Context{}) {
		t.Fatalf("Clear left state behind: %+v", got)
	}
	// Clearing an unknown session is a no-op.
	s.Clear("nope")
}

func TestStore_ConcurrentSameKeySerialized(t *testing.T) {
	s := NewStore()
	const n = 200

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.With("shared", func(c *Context) error {
				c.CustomerID++
				return nil
			})
		}()
	}
	wg.Wait()

	if got := s.Snapshot("shared").CustomerID; got != n {
		t.Fatalf("lost updates: got %d want %d", got, n)
	}
}

func TestStore_DifferentKeysDoNotBlock(t *testing.T) {
	s := NewStore()
	release := make(chan struct{})
	started := make(chan struct{})

	go func() {
		_ = s.With("slow", func(c *Context) error {
			close(started)
			<-release
			return nil
		})
	}()

	<-started
	done := make(chan struct{})
	go func() {
		_ = s.With("fast", func(c *Context) error { return nil })
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("different session keys must not block each other")
	}
	close(release)
}
