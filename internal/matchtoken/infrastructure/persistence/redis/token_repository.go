// Package redis is the sole persistence layer for match tokens: a
// short-lived (24h default) handle, so a durable MySQL table is unnecessary
// overhead. Shape grounded on
// internal/risk/infrastructure/persistence/redis/risk_repository.go's
// prefix/ttl/JSON read-through repository.
package redis

import (
	"context"
	"encoding/json"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/rnrl/tradecore/internal/matchtoken/domain"
)

type tokenRepository struct {
	client goredis.UniversalClient
	prefix string
}

func NewTokenRepository(client goredis.UniversalClient) domain.Repository {
	return &tokenRepository{client: client, prefix: "matchtoken:"}
}

func (r *tokenRepository) idKey(tokenID string) string     { return r.prefix + "id:" + tokenID }
func (r *tokenRepository) handleKey(handle string) string  { return r.prefix + "handle:" + handle }

// Save writes the token under its id key and both handle keys, each with a
// TTL matching the token's remaining lifetime — so an expired token simply
// stops resolving rather than needing an explicit sweep.
func (r *tokenRepository) Save(ctx context.Context, t *domain.Token) error {
	data, err := json.Marshal(t)
	if err != nil {
		return err
	}
	ttl := time.Until(t.ExpiresAt)
	if ttl <= 0 {
		ttl = time.Minute
	}
	pipe := r.client.Pipeline()
	pipe.Set(ctx, r.idKey(t.TokenID), data, ttl)
	pipe.Set(ctx, r.handleKey(t.BuyerHandle), data, ttl)
	pipe.Set(ctx, r.handleKey(t.SellerHandle), data, ttl)
	_, err = pipe.Exec(ctx)
	return err
}

func (r *tokenRepository) GetByID(ctx context.Context, tokenID string) (*domain.Token, error) {
	return r.get(ctx, r.idKey(tokenID))
}

func (r *tokenRepository) GetByHandle(ctx context.Context, handle string) (*domain.Token, error) {
	return r.get(ctx, r.handleKey(handle))
}

func (r *tokenRepository) get(ctx context.Context, key string) (*domain.Token, error) {
	data, err := r.client.Get(ctx, key).Bytes()
	if err == goredis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var t domain.Token
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, err
	}
	return &t, nil
}
