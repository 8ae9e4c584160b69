package token

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	lru "github.com/hashicorp/golang-lru"
)

// DecimalsCache memoizes decimals probes. The value is immutable for a
// deployed token, so entries never expire.
type DecimalsCache struct {
	source Source
	cache  *lru.Cache
}

// NewDecimalsCache creates a cache over the given token source.
func NewDecimalsCache(source Source, size int) (*DecimalsCache, error) {
	cache, err := lru.New(size)
	if err != nil {
		return nil, fmt.Errorf("failed to create decimals cache: %w", err)
	}

	return &DecimalsCache{
		source: source,
		cache:  cache,
	}, nil
}

// Decimals returns the decimal precision of the given token, probing the
// chain on a cache miss. Failed probes are not cached.
func (c *DecimalsCache) Decimals(ctx context.Context, addr common.Address) (uint8, error) {
	if v, ok := c.cache.Get(addr); ok {
		return v.(uint8), nil
	}

	decimals, err := c.source.Token(addr).Decimals(ctx)
	if err != nil {
		return 0, err
	}

	c.cache.Add(addr, decimals)
	return decimals, nil
}
