// Package redislock implements ports.OrderLocker on Redis so that several
// service instances serialize their critical sections per order.
//
// A lock is a key set with NX and a TTL whose value is a random token. Only
// the holder of the token may delete the key; the check and the delete run
// atomically in a Lua script. The TTL bounds how long a crashed instance can
// keep an order locked.
package redislock

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"fulfillment/internal/core/ports"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var _ ports.OrderLocker = (*Locker)(nil)

const (
	DefaultTTL           = 5 * time.Second
	DefaultRetryInterval = 25 * time.Millisecond
	DefaultKeyPrefix     = "fulfillment:lock:order:"

	releaseTimeout = 2 * time.Second
)

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Options tune the locker. Zero values select the defaults.
type Options struct {
	TTL           time.Duration
	RetryInterval time.Duration
	KeyPrefix     string
}

type Locker struct {
	client *redis.Client
	opts   Options
	logger *slog.Logger
}

func New(client *redis.Client, opts Options, logger *slog.Logger) *Locker {
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.RetryInterval <= 0 {
		opts.RetryInterval = DefaultRetryInterval
	}
	if opts.KeyPrefix == "" {
		opts.KeyPrefix = DefaultKeyPrefix
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Locker{client: client, opts: opts, logger: logger.With("component", "redis_locker")}
}

// Lock polls SET NX until it succeeds or ctx is done.
func (l *Locker) Lock(ctx context.Context, orderID string) (ports.UnlockFunc, error) {
	key := l.opts.KeyPrefix + orderID
	token := uuid.NewString()

	for {
		ok, err := l.client.SetNX(ctx, key, token, l.opts.TTL).Result()
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("acquire lock for order %s: %w", orderID, err)
		}
		if ok {
			return l.unlockFunc(key, token), nil
		}

		timer := time.NewTimer(l.opts.RetryInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

func (l *Locker) unlockFunc(key, token string) ports.UnlockFunc {
	var once sync.Once
	return func() {
		once.Do(func() {
			ctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
			defer cancel()

			released, err := releaseScript.Run(ctx, l.client, []string{key}, token).Int()
			switch {
			case err != nil:
				l.logger.Error("Failed to release order lock", "key", key, "error", err)
			case released == 0:
				l.logger.Warn("Order lock expired before release", "key", key, "ttl", l.opts.TTL)
			}
		})
	}
}
