package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

type publisher interface {
	Publish(ctx context.Context, channel string, message any) *goredis.IntCmd
	Close() error
}

// RedisEmitter publishes events on a pub/sub channel for live clients.
type RedisEmitter struct {
	rdb     publisher
	channel string
}

// NewRedisEmitter connects to addr and verifies the connection.
func NewRedisEmitter(ctx context.Context, addr, channel string) (*RedisEmitter, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &RedisEmitter{rdb: rdb, channel: channel}, nil
}

func (r *RedisEmitter) Emit(ctx context.Context, e Event) error {
	if r == nil || r.rdb == nil {
		return fmt.Errorf("redis emitter not initialized")
	}
	raw, err := json.Marshal(e)
	if err != nil {
		return err
	}
	if err := r.rdb.Publish(ctx, r.channel, raw).Err(); err != nil {
		return fmt.Errorf("redis publish %s: %w", e.ID, err)
	}
	return nil
}

func (r *RedisEmitter) Close() error {
	if r == nil || r.rdb == nil {
		return nil
	}
	return r.rdb.Close()
}
