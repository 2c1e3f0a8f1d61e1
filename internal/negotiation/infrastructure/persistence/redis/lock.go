// Package redis implements the C5 aggregate lock: each negotiation is a
// single lock domain, mutations acquire it and reads do not, grounded on
// internal/matching/infrastructure/persistence/redis/dedup_repository.go's
// prefix+SETNX shape, generalized to a releasable lock with a short
// spin-wait retry instead of a one-shot suppression check.
package redis

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/rnrl/tradecore/internal/negotiation/application"
)

const (
	lockTTL        = 10 * time.Second
	maxAcquireWait = 2 * time.Second
	retryBase      = 20 * time.Millisecond
)

type aggregateLock struct {
	client goredis.UniversalClient
	prefix string
}

func NewAggregateLock(client goredis.UniversalClient) application.AggregateLock {
	return &aggregateLock{client: client, prefix: "negotiation:lock:"}
}

// Acquire spin-waits (bounded by maxAcquireWait) for the SETNX lock on the
// negotiation id, returning a release func that deletes the key. A fencing
// token guards against releasing a lock acquired by someone else after our
// TTL expired under us.
func (l *aggregateLock) Acquire(ctx context.Context, negotiationID string) (func(), error) {
	key := l.prefix + negotiationID
	token := fmt.Sprintf("%d-%d", time.Now().UnixNano(), rand.Int63())

	deadline := time.Now().Add(maxAcquireWait)
	attempt := 0
	for {
		ok, err := l.client.SetNX(ctx, key, token, lockTTL).Result()
		if err != nil {
			return nil, fmt.Errorf("negotiation lock SETNX: %w", err)
		}
		if ok {
			release := func() {
				cur, err := l.client.Get(ctx, key).Result()
				if err == nil && cur == token {
					l.client.Del(ctx, key)
				}
			}
			return release, nil
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("negotiation %s: lock contended, timed out after %s", negotiationID, maxAcquireWait)
		}
		attempt++
		backoff := retryBase * time.Duration(attempt)
		jitter := time.Duration(rand.Int63n(int64(retryBase)))
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff + jitter):
		}
	}
}
