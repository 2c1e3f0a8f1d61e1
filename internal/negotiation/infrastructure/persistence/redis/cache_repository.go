// Package redis also provides a read-through cache decorator over the
// negotiation repository, shape grounded on
// internal/risk/infrastructure/persistence/redis/risk_repository.go's
// prefix/ttl/JSON pattern, applied here as a cache-aside wrapper (rather
// than the sole store, as matchtoken uses it) since negotiations remain
// durable in MySQL and the cache only spares a GET /negotiations/{id}
// poll or a chat-log refresh the MySQL round-trip.
package redis

import (
	"context"
	"encoding/json"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/rnrl/tradecore/internal/negotiation/domain"
)

const negotiationCacheTTL = 10 * time.Second

// CachingRepository wraps a durable domain.Repository, caching Get and
// ListMessages reads — the two calls negotiation_query.go polls on behalf
// of clients — and invalidating on the corresponding writes. Every other
// method passes straight through uncached: GetByMatchToken and the offer
// calls are low-frequency compared to status/message polling.
type CachingRepository struct {
	domain.Repository
	client goredis.UniversalClient
	prefix string
}

func NewCachingRepository(repo domain.Repository, client goredis.UniversalClient) *CachingRepository {
	return &CachingRepository{Repository: repo, client: client, prefix: "negotiation:cache:"}
}

func (r *CachingRepository) negKey(negotiationID string) string {
	return r.prefix + "neg:" + negotiationID
}

func (r *CachingRepository) messagesKey(negotiationID string) string {
	return r.prefix + "messages:" + negotiationID
}

func (r *CachingRepository) Get(ctx context.Context, negotiationID string) (*domain.Negotiation, error) {
	key := r.negKey(negotiationID)
	if data, err := r.client.Get(ctx, key).Bytes(); err == nil {
		var neg domain.Negotiation
		if json.Unmarshal(data, &neg) == nil {
			return &neg, nil
		}
	}
	neg, err := r.Repository.Get(ctx, negotiationID)
	if err != nil || neg == nil {
		return neg, err
	}
	if data, err := json.Marshal(neg); err == nil {
		r.client.Set(ctx, key, data, negotiationCacheTTL)
	}
	return neg, nil
}

func (r *CachingRepository) ListMessages(ctx context.Context, negotiationID string) ([]*domain.Message, error) {
	key := r.messagesKey(negotiationID)
	if data, err := r.client.Get(ctx, key).Bytes(); err == nil {
		var msgs []*domain.Message
		if json.Unmarshal(data, &msgs) == nil {
			return msgs, nil
		}
	}
	msgs, err := r.Repository.ListMessages(ctx, negotiationID)
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(msgs); err == nil {
		r.client.Set(ctx, key, data, negotiationCacheTTL)
	}
	return msgs, nil
}

// Save invalidates the cached negotiation so the next Get reflects the new
// status/round rather than waiting out the TTL.
func (r *CachingRepository) Save(ctx context.Context, n *domain.Negotiation) error {
	if err := r.Repository.Save(ctx, n); err != nil {
		return err
	}
	r.client.Del(ctx, r.negKey(n.NegotiationID))
	return nil
}

// SaveMessage invalidates the cached message list so a poller sees the new
// message immediately rather than on TTL expiry.
func (r *CachingRepository) SaveMessage(ctx context.Context, m *domain.Message) error {
	if err := r.Repository.SaveMessage(ctx, m); err != nil {
		return err
	}
	r.client.Del(ctx, r.messagesKey(m.NegotiationID))
	return nil
}
