// Package tracker implements the order lifecycle behind the submissions and
// delivery views.
//
// Every transition is applied locally first: the local store and the
// in-memory pending view change before the call returns, and the matching
// remote update is queued in the outbox for the sync worker. Callers never
// wait on the remote store for a write, and a failed remote write never fails
// the call.
package tracker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"rationdesk/internal/localstore"
	"rationdesk/internal/model"
)

var (
	ErrUnknownStatus         = errors.New("unknown status filter")
	ErrInvalidDeliveryStatus = errors.New("delivery status must be pending or delivered")
)

type Remote interface {
	ListByStatus(ctx context.Context, status model.OrderStatus) ([]model.Order, error)
}

// Kicker wakes the outbox drain after a mutation is queued.
type Kicker interface {
	Kick()
}

type Tracker struct {
	local   localstore.Store
	remote  Remote
	kicker  Kicker
	timeout time.Duration
	now     func() time.Time

	mu             sync.Mutex
	view           []model.Order
	dismissed      map[string]model.OrderStatus
	remoteAccepted []model.Order // last successful remote accepted listing
}

func New(local localstore.Store, remote Remote, kicker Kicker, remoteTimeout time.Duration) *Tracker {
	if remoteTimeout <= 0 {
		remoteTimeout = 5 * time.Second
	}
	return &Tracker{
		local:     local,
		remote:    remote,
		kicker:    kicker,
		timeout:   remoteTimeout,
		now:       time.Now,
		dismissed: make(map[string]model.OrderStatus),
	}
}

// ListOrders returns the orders shown for a status view.
//
// The pending view falls back to the built-in sample set when the remote
// read fails or comes back empty; the two cases are not told apart. The
// accepted view returns the local accepted collection followed by remote
// accepted orders not already held locally.
func (t *Tracker) ListOrders(ctx context.Context, status model.OrderStatus) ([]model.Order, error) {
	switch status {
	case model.OrderPending:
		return t.listPending(ctx), nil
	case model.OrderAccepted:
		return t.listAccepted(ctx)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownStatus, status)
}

func (t *Tracker) listPending(ctx context.Context) []model.Order {
	orders, err := t.fetch(ctx, model.OrderPending)
	if err != nil {
		slog.Warn("remote pending orders unavailable, using sample set", "error", err)
	}
	if len(orders) == 0 {
		orders = model.SampleOrders(t.now())
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	view := make([]model.Order, 0, len(orders))
	for _, o := range orders {
		if _, gone := t.dismissed[o.ID]; gone {
			continue
		}
		view = append(view, o)
	}
	t.view = view
	return append([]model.Order(nil), view...)
}

func (t *Tracker) listAccepted(ctx context.Context) ([]model.Order, error) {
	t.mu.Lock()
	local, err := t.readAccepted(ctx)
	t.mu.Unlock()
	if err != nil {
		return nil, err
	}

	remote, err := t.fetch(ctx, model.OrderAccepted)
	if err != nil {
		slog.Warn("remote accepted orders unavailable, using local store", "error", err)
		return local, nil
	}
	t.mu.Lock()
	t.remoteAccepted = remote
	t.mu.Unlock()

	held := make(map[string]struct{}, len(local))
	for _, o := range local {
		held[o.ID] = struct{}{}
	}
	out := local
	for _, o := range remote {
		if _, ok := held[o.ID]; ok {
			continue
		}
		out = append(out, o)
	}
	return out, nil
}

// fetch makes the single remote attempt for a view.
func (t *Tracker) fetch(ctx context.Context, status model.OrderStatus) ([]model.Order, error) {
	if t.remote == nil {
		return nil, errors.New("remote store not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.remote.ListByStatus(ctx, status)
}

// AcceptOrder moves a pending order to accepted with delivery pending.
func (t *Tracker) AcceptOrder(ctx context.Context, id string) error {
	t.mu.Lock()
	empty := len(t.view) == 0
	t.mu.Unlock()
	if empty {
		t.listPending(ctx)
	}

	t.mu.Lock()
	order, found := t.inView(id)
	if found {
		if err := t.upsertAccepted(ctx, order.Accepted()); err != nil {
			t.mu.Unlock()
			return err
		}
		t.dismiss(id, model.OrderAccepted)
	}
	t.mu.Unlock()

	if !found {
		slog.Info("accepted order not in pending view, updating remote only", "order", id)
	}
	return t.enqueue(ctx, id, model.AcceptPatch())
}

// RejectOrder drops a pending order from the view and marks it rejected
// remotely. Rejected orders are not kept in the local store.
func (t *Tracker) RejectOrder(ctx context.Context, id string) error {
	t.mu.Lock()
	t.dismiss(id, model.OrderRejected)
	t.mu.Unlock()

	return t.enqueue(ctx, id, model.RejectPatch())
}

// UpdateDeliveryStatus sets the delivery status of an accepted order. The
// status toggles freely between pending and delivered. An order known only
// to the remote store is copied into the local collection with the new
// status so the delivery view reflects it before the outbox drains.
func (t *Tracker) UpdateDeliveryStatus(ctx context.Context, id string, status model.DeliveryStatus) error {
	if !status.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidDeliveryStatus, status)
	}

	t.mu.Lock()
	found, err := t.applyDelivery(ctx, id, status)
	t.mu.Unlock()
	if err != nil {
		return err
	}

	if !found {
		if remote, ferr := t.fetch(ctx, model.OrderAccepted); ferr == nil {
			t.mu.Lock()
			t.remoteAccepted = remote
			found, err = t.applyDelivery(ctx, id, status)
			t.mu.Unlock()
			if err != nil {
				return err
			}
		}
		if !found {
			slog.Info("delivery update for unknown order, updating remote only", "order", id)
		}
	}

	return t.enqueue(ctx, id, model.DeliveryPatch(status))
}

func (t *Tracker) enqueue(ctx context.Context, id string, p model.Patch) error {
	m := localstore.NewMutation(id, p)
	if err := t.local.Enqueue(ctx, m); err != nil {
		return fmt.Errorf("queue remote update: %w", err)
	}
	if t.kicker != nil {
		t.kicker.Kick()
	}
	return nil
}

// inView, dismiss, applyDelivery, readAccepted, writeAccepted and
// upsertAccepted expect t.mu held.

func (t *Tracker) inView(id string) (model.Order, bool) {
	for _, o := range t.view {
		if o.ID == id {
			return o, true
		}
	}
	return model.Order{}, false
}

func (t *Tracker) dismiss(id string, status model.OrderStatus) {
	t.dismissed[id] = status
	view := t.view[:0]
	for _, o := range t.view {
		if o.ID != id {
			view = append(view, o)
		}
	}
	t.view = view
}

// applyDelivery rewrites the local record for id, or adopts the order from
// the last remote accepted listing. It reports whether a record was written.
func (t *Tracker) applyDelivery(ctx context.Context, id string, status model.DeliveryStatus) (bool, error) {
	orders, err := t.readAccepted(ctx)
	if err != nil {
		return false, err
	}
	for i := range orders {
		if orders[i].ID == id {
			orders[i].DeliveryStatus = status
			return true, t.writeAccepted(ctx, orders)
		}
	}

	for _, o := range t.remoteAccepted {
		if o.ID == id {
			o.DeliveryStatus = status
			return true, t.writeAccepted(ctx, append(orders, o))
		}
	}
	return false, nil
}

func (t *Tracker) readAccepted(ctx context.Context) ([]model.Order, error) {
	data, err := t.local.Get(ctx, localstore.KeyAcceptedOrders)
	if errors.Is(err, localstore.ErrNotFound) {
		return []model.Order{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read accepted orders: %w", err)
	}

	var orders []model.Order
	if err := json.Unmarshal(data, &orders); err != nil {
		return nil, fmt.Errorf("decode accepted orders: %w", err)
	}
	if orders == nil {
		orders = []model.Order{}
	}
	return orders, nil
}

func (t *Tracker) writeAccepted(ctx context.Context, orders []model.Order) error {
	data, err := json.Marshal(orders)
	if err != nil {
		return fmt.Errorf("encode accepted orders: %w", err)
	}
	if err := t.local.Put(ctx, localstore.KeyAcceptedOrders, data); err != nil {
		return fmt.Errorf("write accepted orders: %w", err)
	}
	return nil
}

// upsertAccepted keeps one local record per order id.
func (t *Tracker) upsertAccepted(ctx context.Context, order model.Order) error {
	orders, err := t.readAccepted(ctx)
	if err != nil {
		return err
	}
	for i := range orders {
		if orders[i].ID == order.ID {
			orders[i] = order
			return t.writeAccepted(ctx, orders)
		}
	}
	return t.writeAccepted(ctx, append(orders, order))
}
