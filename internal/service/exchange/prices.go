package exchange

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	domrepo "SignalDesk/internal/domain/repository"
	"SignalDesk/internal/service/cache"
)

// LivePrices answers price lookups from three layers: the in-memory ticker
// feed, the shared byte cache, then the REST API. Stream updates land via
// Update, everything else is read-through.
type LivePrices struct {
	rest     *Client
	cache    cache.BytesCache
	cacheTTL time.Duration
	maxAge   time.Duration

	mu     sync.RWMutex
	latest map[string]pricePoint
}

type pricePoint struct {
	price float64
	at    time.Time
}

func NewLivePrices(rest *Client, c cache.BytesCache, cacheTTL, maxAge time.Duration) *LivePrices {
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Second
	}
	if maxAge <= 0 {
		maxAge = 30 * time.Second
	}
	return &LivePrices{
		rest:     rest,
		cache:    c,
		cacheTTL: cacheTTL,
		maxAge:   maxAge,
		latest:   make(map[string]pricePoint),
	}
}

// Update records a price observed on the live stream.
func (p *LivePrices) Update(symbol string, price float64, at time.Time) {
	p.mu.Lock()
	p.latest[symbol] = pricePoint{price: price, at: at}
	p.mu.Unlock()

	if p.cache != nil {
		_ = p.cache.SetBytes(priceKey(symbol), []byte(strconv.FormatFloat(price, 'f', -1, 64)), p.cacheTTL)
	}
}

// CurrentPrice implements PriceSource.
func (p *LivePrices) CurrentPrice(ctx context.Context, symbol string) (float64, error) {
	p.mu.RLock()
	point, ok := p.latest[symbol]
	p.mu.RUnlock()
	if ok && time.Since(point.at) <= p.maxAge {
		return point.price, nil
	}

	if p.cache != nil {
		if b, hit, err := p.cache.GetBytes(priceKey(symbol)); err == nil && hit {
			if v, err := strconv.ParseFloat(string(b), 64); err == nil {
				return v, nil
			}
		}
	}

	if p.rest == nil {
		return 0, fmt.Errorf("no price for %s", symbol)
	}
	price, err := p.rest.CurrentPrice(ctx, symbol)
	if err != nil {
		return 0, err
	}
	p.Update(symbol, price, time.Now())
	return price, nil
}

func priceKey(symbol string) string { return "price:" + symbol }

var _ domrepo.PriceSource = (*LivePrices)(nil)
