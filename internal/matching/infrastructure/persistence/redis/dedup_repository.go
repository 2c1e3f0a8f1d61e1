// Package redis implements the matching engine's dedup suppression store,
// grounded on internal/risk/infrastructure/persistence/redis/risk_repository.go's
// prefix+ttl `redis.UniversalClient` shape, swapping Get/Set for a single
// atomic SETNX so concurrent matching workers never double-emit the same
// pair within the suppression window.
package redis

import (
	"context"
	"fmt"
	"strconv"

	goredis "github.com/redis/go-redis/v9"

	"github.com/rnrl/tradecore/internal/matching/domain"
)

type dedupStore struct {
	client goredis.UniversalClient
	prefix string
}

func NewDedupStore(client goredis.UniversalClient) domain.DedupStore {
	return &dedupStore{client: client, prefix: "match:dedup:"}
}

func (s *dedupStore) SeenRecently(ctx context.Context, key uint64) (bool, error) {
	redisKey := s.prefix + strconv.FormatUint(key, 10)
	ok, err := s.client.SetNX(ctx, redisKey, 1, domain.SuppressionWindow).Result()
	if err != nil {
		return false, fmt.Errorf("dedup SETNX: %w", err)
	}
	// SetNX returns true when the key was newly set, i.e. NOT seen before.
	return !ok, nil
}
