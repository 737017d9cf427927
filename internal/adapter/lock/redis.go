package lock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/simaogato/ledger-backend/internal/domain"
)

const keyPrefix = "ledger:account-lock:"

// RedisOptions configures RedLock acquisition for each account
type RedisOptions struct {
	// Expiry is how long a lock survives a crashed holder
	Expiry time.Duration
	// Tries is the number of acquisition attempts per account
	Tries int
	// RetryDelay is the pause between attempts
	RetryDelay time.Duration
}

// DefaultRedisOptions waits roughly DefaultTimeout for each account
func DefaultRedisOptions() RedisOptions {
	return RedisOptions{
		Expiry:     10 * time.Second,
		Tries:      100,
		RetryDelay: 50 * time.Millisecond,
	}
}

// RedisLocker grants account locks shared by every ledger process using the
// same Redis deployment.
type RedisLocker struct {
	rs     *redsync.Redsync
	opts   RedisOptions
	logger *zap.Logger
}

// NewRedisLocker creates a RedisLocker on top of a go-redis client
func NewRedisLocker(client redis.UniversalClient, opts RedisOptions, logger *zap.Logger) *RedisLocker {
	defaults := DefaultRedisOptions()
	if opts.Expiry <= 0 {
		opts.Expiry = defaults.Expiry
	}
	if opts.Tries <= 0 {
		opts.Tries = defaults.Tries
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = defaults.RetryDelay
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &RedisLocker{
		rs:     redsync.New(goredis.NewPool(client)),
		opts:   opts,
		logger: logger,
	}
}

// Key returns the Redis key guarding an account
func Key(id domain.AccountID) string {
	return keyPrefix + id.String()
}

// Lock acquires every account in ascending order
func (l *RedisLocker) Lock(ctx context.Context, ids ...domain.AccountID) (func(), error) {
	ordered := domain.LockOrder(ids...)
	held := make([]*redsync.Mutex, 0, len(ordered))

	for _, id := range ordered {
		mutex := l.rs.NewMutex(Key(id),
			redsync.WithExpiry(l.opts.Expiry),
			redsync.WithTries(l.opts.Tries),
			redsync.WithRetryDelay(l.opts.RetryDelay),
		)
		if err := mutex.LockContext(ctx); err != nil {
			l.unlockAll(ctx, held)
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			return nil, fmt.Errorf("%w: account %s: %w", domain.ErrLockTimeout, id, err)
		}
		held = append(held, mutex)
	}

	var once sync.Once
	return func() {
		once.Do(func() { l.unlockAll(ctx, held) })
	}, nil
}

// unlockAll releases in reverse order. It ignores caller cancellation so a
// cancelled request still frees its accounts before Expiry.
func (l *RedisLocker) unlockAll(ctx context.Context, held []*redsync.Mutex) {
	unlockCtx := context.WithoutCancel(ctx)
	for i := len(held) - 1; i >= 0; i-- {
		if ok, err := held[i].UnlockContext(unlockCtx); err != nil || !ok {
			l.logger.Warn("failed to release account lock",
				zap.String("key", held[i].Name()),
				zap.Bool("released", ok),
				zap.Error(err),
			)
		}
	}
}
