package worker

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rationdesk/internal/localstore"
	"rationdesk/internal/model"
	"rationdesk/internal/service"
	"rationdesk/internal/syncstatus"
)

type fakeRemote struct {
	mu      sync.Mutex
	known   map[string]bool
	down    bool
	applied []string
}

func (f *fakeRemote) Update(_ context.Context, id string, _ model.Patch) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.down {
		return errors.New("dial tcp 10.0.0.5:5432: connection refused")
	}
	if !f.known[id] {
		return service.ErrNoRowsFound
	}
	f.applied = append(f.applied, id)
	return nil
}

func (f *fakeRemote) setDown(down bool) {
	f.mu.Lock()
	f.down = down
	f.mu.Unlock()
}

func (f *fakeRemote) appliedIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.applied...)
}

func newStore(t *testing.T) localstore.Store {
	t.Helper()
	s, err := localstore.OpenSQLite(filepath.Join(t.TempDir(), "local.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func enqueue(t *testing.T, s localstore.Store, id string, p model.Patch) {
	t.Helper()
	require.NoError(t, s.Enqueue(context.Background(), localstore.NewMutation(id, p)))
}

func TestDrainOnce(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	remote := &fakeRemote{known: map[string]bool{"a": true, "b": true}}
	status := syncstatus.New()
	w := NewSyncWorker(store, remote, status, Options{BatchSize: 2})

	enqueue(t, store, "a", model.AcceptPatch())
	enqueue(t, store, "2", model.AcceptPatch()) // sample order, unknown remotely
	enqueue(t, store, "b", model.RejectPatch())

	n, err := w.DrainOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, []string{"a", "b"}, remote.appliedIDs())

	pending, err := store.Pending(ctx)
	require.NoError(t, err)
	assert.Zero(t, pending)

	s := status.Snapshot()
	assert.True(t, s.InSync())
	assert.NotNil(t, s.LastSyncAt)
	assert.Zero(t, s.Failures)
}

func TestDrainOnceStopsAtFailure(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	remote := &fakeRemote{known: map[string]bool{"a": true}, down: true}
	status := syncstatus.New()
	w := NewSyncWorker(store, remote, status, Options{})

	enqueue(t, store, "a", model.AcceptPatch())
	enqueue(t, store, "a", model.DeliveryPatch(model.DeliveryDelivered))

	n, err := w.DrainOnce(ctx)
	assert.Error(t, err)
	assert.Zero(t, n)

	s := status.Snapshot()
	assert.Equal(t, 2, s.Pending)
	assert.Equal(t, 1, s.Failures)
	assert.Contains(t, s.LastError, "connection refused")

	batch, err := store.Peek(ctx, 10)
	require.NoError(t, err)
	require.Len(t, batch, 2)
	assert.Equal(t, 1, batch[0].Attempts)
	assert.Zero(t, batch[1].Attempts)

	remote.setDown(false)
	n, err = w.DrainOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"a", "a"}, remote.appliedIDs())
	assert.True(t, status.Snapshot().InSync())
}

func TestStartDrainsOnKick(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := newStore(t)
	remote := &fakeRemote{known: map[string]bool{"a": true}}
	status := syncstatus.New()
	w := NewSyncWorker(store, remote, status, Options{Interval: time.Hour})

	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	enqueue(t, store, "a", model.AcceptPatch())
	w.Kick()

	assert.Eventually(t, func() bool {
		return len(remote.appliedIDs()) == 1
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop")
	}
}
