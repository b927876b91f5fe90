// Package localstore is the durable per-device store that backs the
// dashboard when the remote database cannot be reached.
//
// It holds two things:
//   - a small key-value space (the accepted orders collection, the local
//     auth flag)
//   - an ordered outbox of order mutations waiting to reach the remote store
//
// The outbox is strictly FIFO: Peek always returns the oldest entries first,
// and entries leave it only through Ack.
package localstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"rationdesk/internal/model"
)

const (
	KeyAcceptedOrders  = "acceptedOrders"
	KeyIsAuthenticated = "isAuthenticated"
	KeyUserEmail       = "userEmail"
)

var ErrNotFound = errors.New("key not found")

// UserKey scopes a per-session key such as KeyIsAuthenticated to one account.
func UserKey(key, userID string) string {
	return key + ":" + userID
}

type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error

	Enqueue(ctx context.Context, m Mutation) error
	Peek(ctx context.Context, limit int) ([]Mutation, error)
	Ack(ctx context.Context, id string) error
	Fail(ctx context.Context, id string, reason string) error
	Pending(ctx context.Context) (int, error)

	Close() error
}

// Mutation is one partial order update waiting for the remote store.
type Mutation struct {
	ID        string      `json:"id"`
	OrderID   string      `json:"order_id"`
	Patch     model.Patch `json:"patch"`
	CreatedAt time.Time   `json:"created_at"`
	Attempts  int         `json:"attempts"`
	LastError string      `json:"last_error,omitempty"`
}

func NewMutation(orderID string, p model.Patch) Mutation {
	return Mutation{
		ID:        uuid.NewString(),
		OrderID:   orderID,
		Patch:     p,
		CreatedAt: time.Now().UTC(),
	}
}

type Options struct {
	Backend       string
	Path          string
	RedisAddr     string
	RedisPassword string
}

// Open returns the backend named in opts.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Backend {
	case "", "sqlite":
		return OpenSQLite(opts.Path)
	case "redis":
		return OpenRedis(ctx, opts.RedisAddr, opts.RedisPassword)
	}
	return nil, fmt.Errorf("unknown local store backend %q", opts.Backend)
}
