package redis

import (
	"context"

	"github.com/redis/go-redis/v9"

	"github.com/fadedwholesale/wholesale-service/internal/infrastructure/bloom"
	"github.com/fadedwholesale/wholesale-service/internal/infrastructure/monitoring"
	pkgBloom "github.com/fadedwholesale/wholesale-service/internal/pkg/bloom"
)

const stockFilterKey = "bloom:out_of_stock"

// StockFilter layers a local in-process bloom filter over the shared Redis
// one. The local filter answers without a round trip; a miss falls through to
// Redis so sell-outs observed by other instances are still caught.
type StockFilter struct {
	local  *pkgBloom.BloomFilter
	shared *bloom.RedisBloomFilter
}

func NewStockFilter(client *redis.Client, expectedProducts uint64, falsePositiveRate float64) *StockFilter {
	m, k := bloom.GetOptimalParameters(expectedProducts, falsePositiveRate)

	return &StockFilter{
		local:  pkgBloom.NewBloomFilterWithExpectedItems(uint(expectedProducts), falsePositiveRate),
		shared: bloom.NewRedisBloomFilter(client, stockFilterKey, m, k),
	}
}

func (f *StockFilter) MarkOutOfStock(ctx context.Context, productID string) error {
	f.local.Add(productID)
	return f.shared.Add(ctx, productID)
}

func (f *StockFilter) LikelyOutOfStock(ctx context.Context, productID string) (bool, error) {
	if f.local.Contains(productID) {
		monitoring.RecordStockFilterHit()
		return true, nil
	}

	found, err := f.shared.Contains(ctx, productID)
	if err != nil {
		return false, err
	}
	if found {
		f.local.Add(productID)
		monitoring.RecordStockFilterHit()
	}

	return found, nil
}

// Reset clears both filters. Called by the catalog refresh job so restocked
// products stop tripping the fast path.
func (f *StockFilter) Reset(ctx context.Context) error {
	f.local.Clear()
	return f.shared.Clear(ctx)
}
