package rates

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sisu-network/lib/log"
	"go.uber.org/atomic"

	"github.com/sisu-network/dfees/config"
	"github.com/sisu-network/dfees/types"
	"github.com/sisu-network/dfees/utils"
)

// rateEntry holds one cached rate. An entry older than the TTL is treated as
// absent.
type rateEntry struct {
	rate       types.Rate
	updateTime int64 // millis
}

// pendingFetch exists only while a fetch for its currency is in flight.
// Concurrent callers wait on done and read the shared result; the map entry
// is removed exactly once whether the fetch succeeds or fails.
type pendingFetch struct {
	done chan struct{}
	rate types.Rate
	err  error
}

// Stats is a snapshot of cache counters.
type Stats struct {
	Hits      uint64
	Misses    uint64
	Fetches   uint64
	Coalesced uint64
	Fallbacks uint64
}

// Cache is a TTL cache of USD-per-unit rates with in-flight request
// de-duplication. Construct per configuration, no package-level singleton.
type Cache struct {
	fetcher   Fetcher
	ttl       time.Duration
	floors    map[string]decimal.Decimal
	fallbacks map[string]decimal.Decimal

	mu      sync.Mutex
	entries map[string]*rateEntry
	pending map[string]*pendingFetch

	now func() time.Time

	hits         atomic.Uint64
	misses       atomic.Uint64
	fetches      atomic.Uint64
	coalesced    atomic.Uint64
	fallbackHits atomic.Uint64
}

func NewCache(cfg config.Dfees, fetcher Fetcher) (*Cache, error) {
	floors, err := utils.ParseDecimalMap(cfg.RateFloors)
	if err != nil {
		return nil, fmt.Errorf("rate floors: %w", err)
	}

	fallbacks, err := utils.ParseDecimalMap(cfg.FallbackRates)
	if err != nil {
		return nil, fmt.Errorf("fallback rates: %w", err)
	}

	ttl := time.Duration(cfg.RateTtlMs) * time.Millisecond
	if ttl <= 0 {
		ttl = time.Duration(config.DefaultRateTtl) * time.Millisecond
	}

	return &Cache{
		fetcher:   fetcher,
		ttl:       ttl,
		floors:    floors,
		fallbacks: fallbacks,
		entries:   make(map[string]*rateEntry),
		pending:   make(map[string]*pendingFetch),
		now:       time.Now,
	}, nil
}

// GetRate returns the USD-per-unit rate of a currency. A fresh cached value
// is returned as-is; a pending fetch for the same currency is joined rather
// than duplicated; otherwise this caller initiates the fetch. Fetch failures
// fall back to the configured per-currency rate, and the minimum floor
// applies to live and fallback values alike.
func (c *Cache) GetRate(ctx context.Context, currencyId string) (types.Rate, error) {
	nowMs := c.now().UnixMilli()

	c.mu.Lock()
	c.sweepLocked(nowMs)

	if entry, ok := c.entries[currencyId]; ok {
		rate := entry.rate
		c.mu.Unlock()
		c.hits.Inc()

		return rate, nil
	}

	if p, ok := c.pending[currencyId]; ok {
		c.mu.Unlock()
		c.coalesced.Inc()

		// No cancellation: the initiating fetch runs to completion and
		// closes done in both outcomes. Transport owns timeouts.
		<-p.done

		return p.rate, p.err
	}

	p := &pendingFetch{done: make(chan struct{})}
	c.pending[currencyId] = p
	c.mu.Unlock()

	c.misses.Inc()
	p.rate, p.err = c.fetch(ctx, currencyId)

	c.mu.Lock()
	delete(c.pending, currencyId)
	if p.err == nil {
		c.entries[currencyId] = &rateEntry{
			rate:       p.rate,
			updateTime: c.now().UnixMilli(),
		}
	}
	c.mu.Unlock()

	close(p.done)

	return p.rate, p.err
}

func (c *Cache) fetch(ctx context.Context, currencyId string) (types.Rate, error) {
	c.fetches.Inc()

	var rate types.Rate

	value, err := c.fetcher.FetchRate(ctx, currencyId)
	if err != nil {
		fallback, ok := c.fallbacks[currencyId]
		if !ok {
			return types.Rate{}, fmt.Errorf("rate fetch for %s failed and no fallback is configured: %w",
				currencyId, err)
		}

		log.Warnf("Rate fetch for %s failed, using fallback %s, err = %s", currencyId, fallback, err)
		c.fallbackHits.Inc()
		rate = types.Rate{Value: fallback, Source: types.RateSourceFallback}
	} else {
		rate = types.Rate{Value: value, Source: types.RateSourceLive}
	}

	// The floor applies to live and fallback values alike.
	if floor, ok := c.floors[currencyId]; ok && rate.Value.LessThan(floor) {
		rate.Value = floor
		rate.Floored = true
	}

	return rate, nil
}

// sweepLocked drops expired entries opportunistically on each access; there
// is no separate timer goroutine.
func (c *Cache) sweepLocked(nowMs int64) {
	for id, entry := range c.entries {
		if entry.updateTime+c.ttl.Milliseconds() <= nowMs {
			delete(c.entries, id)
		}
	}
}

// Clear drops all cached entries. In-flight fetches are unaffected.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*rateEntry)
}

func (c *Cache) Stats() Stats {
	return Stats{
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Fetches:   c.fetches.Load(),
		Coalesced: c.coalesced.Load(),
		Fallbacks: c.fallbackHits.Load(),
	}
}
