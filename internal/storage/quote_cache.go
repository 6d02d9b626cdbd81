package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/portfolio-engine/internal/logging"
)

// quoteKey prefixes cached quote entries.
func quoteKey(assetID string) string { return fmt.Sprintf("quote:%s", assetID) }

// QuoteCache reads and writes the latest cached market price per asset in
// Redis. The cache is populated by the market-data sync path; the ranking
// aggregation is its main reader.
type QuoteCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewQuoteCache creates a quote cache. A zero ttl means entries never expire.
func NewQuoteCache(client *redis.Client, ttl time.Duration) *QuoteCache {
	return &QuoteCache{client: client, ttl: ttl}
}

// Set stores the latest price for an asset.
func (c *QuoteCache) Set(ctx context.Context, assetID string, price decimal.Decimal) error {
	if err := c.client.Set(ctx, quoteKey(assetID), price.String(), c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache quote for %s: %w", assetID, err)
	}
	return nil
}

// GetMany fetches the latest prices for all given assets in one MGET,
// avoiding a lookup per holding. Assets without a cached quote are absent
// from the result; callers treat them as zero-priced and log the gap.
func (c *QuoteCache) GetMany(ctx context.Context, assetIDs []string) (map[string]decimal.Decimal, error) {
	if len(assetIDs) == 0 {
		return map[string]decimal.Decimal{}, nil
	}

	keys := make([]string, len(assetIDs))
	for i, id := range assetIDs {
		keys[i] = quoteKey(id)
	}

	values, err := c.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to bulk-fetch quotes: %w", err)
	}

	logger := logging.FromContext(ctx)
	quotes := make(map[string]decimal.Decimal, len(assetIDs))
	for i, v := range values {
		if v == nil {
			continue
		}
		s, ok := v.(string)
		if !ok {
			continue
		}
		price, err := decimal.NewFromString(s)
		if err != nil {
			logger.WithFields(map[string]any{
				"assetId": assetIDs[i],
				"value":   s,
			}).Warn("malformed cached quote, skipping")
			continue
		}
		quotes[assetIDs[i]] = price
	}
	return quotes, nil
}
