package domain

import (
	"context"
	"fmt"
	"hash/fnv"
	"time"

	"github.com/shopspring/decimal"
)

// SuppressionWindow is the recently-seen window before a dedup key is
// allowed to re-emit.
const SuppressionWindow = 15 * time.Minute

// DedupKey computes hash(requirementId, availabilityId, roundedPrice,
// roundedQty, roundedQualityDigest) so a candidate pair whose material terms
// haven't moved doesn't re-emit within the suppression window.
func DedupKey(requirementID, availabilityID string, price, qty decimal.Decimal, qualityDigest string) uint64 {
	h := fnv.New64a()
	fmt.Fprintf(h, "%s|%s|%s|%s|%s",
		requirementID, availabilityID,
		price.Round(2).String(), qty.Round(2).String(), qualityDigest)
	return h.Sum64()
}

// DedupStore is the backing cache for recently-emitted dedup keys; the
// concrete adapter is a Redis SETNX-with-TTL implementation grounded on
// internal/risk/infrastructure/persistence/redis's prefix/ttl pattern.
type DedupStore interface {
	// SeenRecently returns true and does not mark the key if it was already
	// recorded within the suppression window; otherwise it records the key
	// and returns false.
	SeenRecently(ctx context.Context, key uint64) (bool, error)
}
