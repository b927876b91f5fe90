package localstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	redisPrefix     = "rationdesk:"
	redisOutbox     = redisPrefix + "outbox"
	redisOutboxData = redisPrefix + "outbox:entries"
)

// Redis keeps the local store in a Redis instance next to the dashboard.
// The outbox is a list of mutation ids plus a hash of id to entry.
type Redis struct {
	client *redis.Client
}

func OpenRedis(ctx context.Context, addr, password string) (*Redis, error) {
	if addr == "" {
		return nil, errors.New("redis address not configured")
	}

	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           0,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &Redis{client: client}, nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}

func kvKey(key string) string {
	return redisPrefix + "kv:" + key
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := r.client.Get(ctx, kvKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	return value, nil
}

func (r *Redis) Put(ctx context.Context, key string, value []byte) error {
	if err := r.client.Set(ctx, kvKey(key), value, 0).Err(); err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}

func (r *Redis) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, kvKey(key)).Err(); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

func (r *Redis) Enqueue(ctx context.Context, m Mutation) error {
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal mutation: %w", err)
	}
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, redisOutboxData, m.ID, data)
		pipe.RPush(ctx, redisOutbox, m.ID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("enqueue mutation: %w", err)
	}
	return nil
}

func (r *Redis) Peek(ctx context.Context, limit int) ([]Mutation, error) {
	if limit <= 0 {
		return nil, nil
	}
	ids, err := r.client.LRange(ctx, redisOutbox, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("read outbox: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	values, err := r.client.HMGet(ctx, redisOutboxData, ids...).Result()
	if err != nil {
		return nil, fmt.Errorf("read outbox entries: %w", err)
	}

	out := make([]Mutation, 0, len(values))
	for i, v := range values {
		s, ok := v.(string)
		if !ok {
			// id without entry: left behind by an interrupted Ack
			if err := r.client.LRem(ctx, redisOutbox, 1, ids[i]).Err(); err != nil {
				slog.Warn("failed to drop orphaned outbox id", "mutation", ids[i], "error", err)
			}
			continue
		}
		var m Mutation
		if err := json.Unmarshal([]byte(s), &m); err != nil {
			return nil, fmt.Errorf("decode mutation %s: %w", ids[i], err)
		}
		out = append(out, m)
	}
	return out, nil
}

func (r *Redis) Ack(ctx context.Context, id string) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LRem(ctx, redisOutbox, 1, id)
		pipe.HDel(ctx, redisOutboxData, id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("ack %s: %w", id, err)
	}
	return nil
}

func (r *Redis) Fail(ctx context.Context, id, reason string) error {
	data, err := r.client.HGet(ctx, redisOutboxData, id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read mutation %s: %w", id, err)
	}

	var m Mutation
	if err := json.Unmarshal(data, &m); err != nil {
		return fmt.Errorf("decode mutation %s: %w", id, err)
	}
	m.Attempts++
	m.LastError = reason

	if data, err = json.Marshal(m); err != nil {
		return fmt.Errorf("marshal mutation: %w", err)
	}
	if err := r.client.HSet(ctx, redisOutboxData, id, data).Err(); err != nil {
		return fmt.Errorf("fail %s: %w", id, err)
	}
	return nil
}

func (r *Redis) Pending(ctx context.Context) (int, error) {
	n, err := r.client.LLen(ctx, redisOutbox).Result()
	if err != nil {
		return 0, fmt.Errorf("count outbox: %w", err)
	}
	return int(n), nil
}
