package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"rationdesk/internal/localstore"
	"rationdesk/internal/model"
	"rationdesk/internal/service"
	"rationdesk/internal/syncstatus"
)

type Remote interface {
	Update(ctx context.Context, id string, p model.Patch) error
}

type Options struct {
	Interval  time.Duration
	BatchSize int
	Timeout   time.Duration // per remote call
}

// SyncWorker drains the local outbox into the remote order store.
type SyncWorker struct {
	store     localstore.Store
	remote    Remote
	status    *syncstatus.Tracker
	interval  time.Duration
	batchSize int
	timeout   time.Duration
	kick      chan struct{}
}

func NewSyncWorker(store localstore.Store, remote Remote, status *syncstatus.Tracker, opts Options) *SyncWorker {
	w := &SyncWorker{
		store:     store,
		remote:    remote,
		status:    status,
		interval:  10 * time.Second,
		batchSize: 20,
		timeout:   5 * time.Second,
		kick:      make(chan struct{}, 1),
	}
	if opts.Interval > 0 {
		w.interval = opts.Interval
	}
	if opts.BatchSize > 0 {
		w.batchSize = opts.BatchSize
	}
	if opts.Timeout > 0 {
		w.timeout = opts.Timeout
	}
	return w
}

// Kick asks the worker to drain now instead of at the next tick.
func (w *SyncWorker) Kick() {
	select {
	case w.kick <- struct{}{}:
	default:
	}
}

func (w *SyncWorker) Start(ctx context.Context) {
	slog.Info("starting sync worker", "interval", w.interval, "batch", w.batchSize)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("sync worker stopped")
			return
		case <-ticker.C:
		case <-w.kick:
		}
		if _, err := w.DrainOnce(ctx); err != nil && ctx.Err() == nil {
			slog.Warn("outbox drain stopped", "error", err)
		}
	}
}

// DrainOnce pushes queued mutations in order until the outbox is empty or a
// remote write fails. It returns how many mutations left the outbox.
func (w *SyncWorker) DrainOnce(ctx context.Context) (int, error) {
	var done int
	for {
		n, err := w.processBatch(ctx)
		done += n
		if err != nil {
			return done, err
		}
		if n < w.batchSize {
			break
		}
	}

	pending, err := w.store.Pending(ctx)
	if err != nil {
		return done, fmt.Errorf("count pending: %w", err)
	}
	if done > 0 {
		w.status.RecordSuccess(pending)
	} else {
		w.status.SetPending(pending)
	}
	return done, nil
}

func (w *SyncWorker) processBatch(ctx context.Context) (int, error) {
	batch, err := w.store.Peek(ctx, w.batchSize)
	if err != nil {
		return 0, fmt.Errorf("peek outbox: %w", err)
	}

	for i, m := range batch {
		rctx, cancel := context.WithTimeout(ctx, w.timeout)
		err := w.remote.Update(rctx, m.OrderID, m.Patch)
		cancel()

		switch {
		case err == nil:
			slog.Info("order synced", "order", m.OrderID, "mutation", m.ID)
		case errors.Is(err, service.ErrNoRowsFound):
			slog.Debug("order not in remote store", "order", m.OrderID, "mutation", m.ID)
		default:
			// Later entries may touch the same order; keep them behind this one.
			if ferr := w.store.Fail(ctx, m.ID, err.Error()); ferr != nil {
				slog.Error("failed to record sync failure", "mutation", m.ID, "error", ferr)
			}
			pending, perr := w.store.Pending(ctx)
			if perr != nil {
				pending = len(batch) - i
			}
			w.status.RecordFailure(pending, err)
			slog.Error("remote update failed", "order", m.OrderID, "attempts", m.Attempts+1, "error", err)
			return i, fmt.Errorf("update order %s: %w", m.OrderID, err)
		}

		if err := w.store.Ack(ctx, m.ID); err != nil {
			return i, fmt.Errorf("ack mutation: %w", err)
		}
	}

	return len(batch), nil
}
