package cache

import (
	"context"
	"encoding/json"
	"time"

	"log/slog"

	redis "github.com/redis/go-redis/v9"

	"github.com/contactshub/api/internal/domain"
)

// UserCache shadows the user table in Redis, keyed by email. It is a
// read accelerator, never an authority: the database wins on any
// disagreement once an entry expires or is invalidated.
type UserCache struct {
	client  *redis.Client
	logger  *slog.Logger
	prefix  string
	timeout time.Duration
}

// NewUserCache connects to Redis and verifies reachability.
func NewUserCache(addr, password string, db int, logger *slog.Logger) (*UserCache, error) {
	opts := &redis.Options{Addr: addr, Password: password, DB: db}
	client := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}
	return &UserCache{
		client:  client,
		logger:  logger,
		prefix:  "contacts:user:",
		timeout: 250 * time.Millisecond,
	}, nil
}

// Get returns the cached snapshot for the email, or ok=false on a
// miss. Backend errors and undecodable payloads degrade to a miss so
// a cache outage never fails the request.
func (c *UserCache) Get(ctx context.Context, email string) (*domain.UserSnapshot, bool) {
	opCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	raw, err := c.client.Get(opCtx, c.prefix+email).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logRedisError("get", err)
		}
		return nil, false
	}
	var snapshot domain.UserSnapshot
	if err := json.Unmarshal(raw, &snapshot); err != nil {
		c.logRedisError("decode", err)
		return nil, false
	}
	return &snapshot, true
}

// Put stores the snapshot with a ttl, overwriting any previous entry.
// Last writer wins; errors are logged and swallowed.
func (c *UserCache) Put(ctx context.Context, email string, snapshot *domain.UserSnapshot, ttl time.Duration) {
	raw, err := json.Marshal(snapshot)
	if err != nil {
		c.logRedisError("encode", err)
		return
	}
	opCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	if err := c.client.Set(opCtx, c.prefix+email, raw, ttl).Err(); err != nil {
		c.logRedisError("set", err)
	}
}

// Invalidate deletes the entry so a stale snapshot cannot outlive a
// credential rotation. Errors are logged and swallowed.
func (c *UserCache) Invalidate(ctx context.Context, email string) {
	opCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	if err := c.client.Del(opCtx, c.prefix+email).Err(); err != nil {
		c.logRedisError("del", err)
	}
}

// Ping reports backend reachability for health checks.
func (c *UserCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close releases the Redis connection.
func (c *UserCache) Close() {
	if c.client != nil {
		_ = c.client.Close()
	}
}

func (c *UserCache) logRedisError(op string, err error) {
	if c.logger == nil {
		return
	}
	c.logger.Error("user cache error", "op", op, "error", err)
}
