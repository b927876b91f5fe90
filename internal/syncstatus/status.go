// Package syncstatus tracks how far the local outbox is behind the remote
// store, so that failed remote writes are visible instead of silent.
package syncstatus

import (
	"sync"
	"time"
)

type Status struct {
	Pending     int        `json:"pending"`
	Failures    int        `json:"failures"`
	LastError   string     `json:"last_error,omitempty"`
	LastErrorAt *time.Time `json:"last_error_at,omitempty"`
	LastSyncAt  *time.Time `json:"last_sync_at,omitempty"`
}

// InSync reports whether every local mutation has reached the remote store.
func (s Status) InSync() bool {
	return s.Pending == 0
}

type Tracker struct {
	mu     sync.Mutex
	status Status
	subs   map[int]chan Status
	nextID int
	now    func() time.Time
}

func New() *Tracker {
	return &Tracker{
		subs: make(map[int]chan Status),
		now:  time.Now,
	}
}

func (t *Tracker) Snapshot() Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}

func (t *Tracker) SetPending(n int) {
	t.update(func(s *Status) { s.Pending = n })
}

// RecordSuccess marks a drain that reached the remote store.
func (t *Tracker) RecordSuccess(pending int) {
	now := t.now().UTC()
	t.update(func(s *Status) {
		s.Pending = pending
		s.LastSyncAt = &now
		s.Failures = 0
		s.LastError = ""
		s.LastErrorAt = nil
	})
}

// RecordFailure marks a remote write that failed and stays queued.
func (t *Tracker) RecordFailure(pending int, err error) {
	now := t.now().UTC()
	t.update(func(s *Status) {
		s.Pending = pending
		s.Failures++
		s.LastError = err.Error()
		s.LastErrorAt = &now
	})
}

// Subscribe returns a channel that receives the status after every change.
// Slow subscribers miss intermediate updates, never the latest one.
func (t *Tracker) Subscribe() (<-chan Status, func()) {
	t.mu.Lock()
	defer t.mu.Unlock()

	id := t.nextID
	t.nextID++
	ch := make(chan Status, 1)
	ch <- t.status
	t.subs[id] = ch

	return ch, func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		if _, ok := t.subs[id]; ok {
			delete(t.subs, id)
			close(ch)
		}
	}
}

func (t *Tracker) update(fn func(*Status)) {
	t.mu.Lock()
	defer t.mu.Unlock()

	fn(&t.status)
	for _, ch := range t.subs {
		select {
		case <-ch:
		default:
		}
		ch <- t.status
	}
}
