package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"token-swap/pkg/types"
)

// FetchPrices returns the cached price records while the cache is valid.
// Otherwise it performs one remote request and caches the result. On failure
// a *FetchError is returned and the cache is left untouched.
func (g *Gateway) FetchPrices(ctx context.Context) ([]types.PriceRecord, error) {
	g.mu.Lock()
	if g.priceCacheValidLocked() {
		records := clonePrices(g.prices)
		g.mu.Unlock()
		g.metrics.priceCache.WithLabelValues("hit").Inc()
		g.log.Debug("serving cached prices", zap.Int("records", len(records)))
		return records, nil
	}
	generation := g.generation
	g.mu.Unlock()
	g.metrics.priceCache.WithLabelValues("miss").Inc()

	// concurrent callers within one generation share a single request. The
	// request outlives any one caller; each caller waits on its own context.
	key := "prices/" + strconv.FormatUint(generation, 10)
	shared := context.WithoutCancel(ctx)
	ch := g.flights.DoChan(key, func() (interface{}, error) {
		return g.fetchRemotePrices(shared, generation)
	})

	select {
	case <-ctx.Done():
		return nil, &FetchError{URL: g.pricesURL, Err: ctx.Err()}
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return clonePrices(res.Val.([]types.PriceRecord)), nil
	}
}

func (g *Gateway) fetchRemotePrices(ctx context.Context, generation uint64) ([]types.PriceRecord, error) {
	records, err := g.requestPrices(ctx)
	if err != nil {
		g.metrics.priceFetch.WithLabelValues("error").Inc()
		g.log.Error("failed to fetch token prices", zap.String("url", g.pricesURL), zap.Error(err))
		return nil, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if generation != g.generation {
		// invalidated while the request was outstanding
		g.metrics.priceFetch.WithLabelValues("discarded").Inc()
		g.log.Debug("discarding stale price response",
			zap.Uint64("issued_generation", generation),
			zap.Uint64("current_generation", g.generation))
		return records, nil
	}

	g.prices = records
	g.fetchedAt = g.now()
	g.hasPrices = true
	g.metrics.priceFetch.WithLabelValues("success").Inc()
	g.log.Debug("price cache refreshed", zap.Int("records", len(records)))

	return records, nil
}

func (g *Gateway) requestPrices(ctx context.Context) ([]types.PriceRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.pricesURL, nil)
	if err != nil {
		return nil, &FetchError{URL: g.pricesURL, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, &FetchError{URL: g.pricesURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &FetchError{
			URL:        g.pricesURL,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("HTTP error! status: %d", resp.StatusCode),
		}
	}

	var raw []types.PriceRecord
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, &FetchError{URL: g.pricesURL, Err: fmt.Errorf("failed to decode price feed: %w", err)}
	}

	records := make([]types.PriceRecord, 0, len(raw))
	for _, r := range raw {
		if r.Currency == "" || r.Price < 0 {
			g.log.Debug("skipping malformed price record",
				zap.String("currency", r.Currency),
				zap.Float64("price", r.Price))
			continue
		}
		records = append(records, r)
	}

	return records, nil
}

func clonePrices(records []types.PriceRecord) []types.PriceRecord {
	out := make([]types.PriceRecord, len(records))
	copy(out, records)
	return out
}
