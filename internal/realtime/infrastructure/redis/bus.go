// Package redis implements the C7 cross-instance Bus, grounded on
// wyfcoding-financialTrading's cmd/marketdata/main.go distributedBroadcaster:
// a single global pub/sub channel carrying a JSON envelope, with every
// instance both publishing onto it and subscribing to re-dispatch locally.
package redis

import (
	"context"
	"encoding/json"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/rnrl/tradecore/internal/realtime/application"
	"github.com/rnrl/tradecore/internal/realtime/domain"
)

const channel = "tradecore.realtime.broadcast"

type bus struct {
	client goredis.UniversalClient
}

func NewBus(client goredis.UniversalClient) application.Bus {
	return &bus{client: client}
}

func (b *bus) Publish(ctx context.Context, env domain.Envelope) error {
	payload, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}
	if err := b.client.Publish(ctx, channel, payload).Err(); err != nil {
		return fmt.Errorf("publish envelope: %w", err)
	}
	return nil
}

// Subscribe blocks, feeding every envelope received from other instances
// into onRemote, until ctx is cancelled.
func (b *bus) Subscribe(ctx context.Context, onRemote func(domain.Envelope)) error {
	sub := b.client.Subscribe(ctx, channel)
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var env domain.Envelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				continue
			}
			onRemote(env)
		}
	}
}
