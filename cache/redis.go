package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	goredis "github.com/go-redis/redis/v8"

	"github.com/vnquant/watchtower/indicators"
	"github.com/vnquant/watchtower/signal"
)

// RedisConfig configures the Redis store.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// Redis stores latest-state entries in Redis with a TTL.
type Redis struct {
	client *goredis.Client
	ttl    time.Duration
}

// NewRedis connects and pings the server.
func NewRedis(cfg RedisConfig) (*Redis, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &Redis{client: client, ttl: ttl}, nil
}

func snapshotKey(symbol string) string { return "snap:latest:" + symbol }
func signalKey(symbol string) string   { return "signal:latest:" + symbol }

func (r *Redis) PutSnapshot(ctx context.Context, snap indicators.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	return r.client.Set(ctx, snapshotKey(snap.Symbol), data, r.ttl).Err()
}

func (r *Redis) GetSnapshot(ctx context.Context, symbol string) (indicators.Snapshot, bool, error) {
	var snap indicators.Snapshot
	data, err := r.client.Get(ctx, snapshotKey(symbol)).Result()
	if err != nil {
		if err == goredis.Nil {
			return snap, false, nil
		}
		return snap, false, fmt.Errorf("redis get snapshot %s: %w", symbol, err)
	}
	if err := json.Unmarshal([]byte(data), &snap); err != nil {
		return snap, false, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	return snap, true, nil
}

func (r *Redis) PutSignal(ctx context.Context, sig signal.Signal) error {
	data, err := json.Marshal(sig)
	if err != nil {
		return fmt.Errorf("marshal signal: %w", err)
	}
	return r.client.Set(ctx, signalKey(sig.Symbol), data, r.ttl).Err()
}

func (r *Redis) GetSignal(ctx context.Context, symbol string) (signal.Signal, bool, error) {
	var sig signal.Signal
	data, err := r.client.Get(ctx, signalKey(symbol)).Result()
	if err != nil {
		if err == goredis.Nil {
			return sig, false, nil
		}
		return sig, false, fmt.Errorf("redis get signal %s: %w", symbol, err)
	}
	if err := json.Unmarshal([]byte(data), &sig); err != nil {
		return sig, false, fmt.Errorf("unmarshal signal: %w", err)
	}
	return sig, true, nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}
