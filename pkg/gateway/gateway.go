// Package gateway wraps the bulk price feed and the per-token icon source
// with in-memory caching.
//
// A Gateway owns two caches. The price cache holds the last successful bulk
// fetch and expires after a TTL. The icon cache remembers every resolved
// probe (present or absent) until Invalidate is called. Both are guarded by
// a single mutex and tagged with a generation counter: a remote call that was
// issued before an Invalidate never writes its result back.
package gateway

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"token-swap/pkg/logger"
	"token-swap/pkg/types"
)

const (
	DefaultTTL         = 5 * time.Minute
	DefaultConcurrency = 16
	DefaultTimeout     = 15 * time.Second
)

// Gateway is the single owner of the price and icon caches
type Gateway struct {
	pricesURL    string
	iconsBaseURL string
	probeMethod  string
	ttl          time.Duration
	concurrency  int

	httpClient *http.Client
	log        *zap.Logger
	now        func() time.Time
	metrics    *metrics

	mu         sync.Mutex
	generation uint64
	prices     []types.PriceRecord
	fetchedAt  time.Time
	hasPrices  bool
	icons      map[string]string // token id -> icon URL, "" means confirmed absent

	flights singleflight.Group
}

// Option configures a Gateway
type Option func(*Gateway)

// WithTTL sets how long fetched prices stay valid
func WithTTL(ttl time.Duration) Option {
	return func(g *Gateway) {
		if ttl > 0 {
			g.ttl = ttl
		}
	}
}

// WithHTTPClient replaces the client used for both remote sources
func WithHTTPClient(client *http.Client) Option {
	return func(g *Gateway) {
		if client != nil {
			g.httpClient = client
		}
	}
}

// WithLogger sets the logger
func WithLogger(log *zap.Logger) Option {
	return func(g *Gateway) {
		g.log = logger.OrNop(log)
	}
}

// WithClock overrides the time source used for TTL decisions
func WithClock(now func() time.Time) Option {
	return func(g *Gateway) {
		if now != nil {
			g.now = now
		}
	}
}

// WithProbeMethod selects GET or HEAD for icon probes
func WithProbeMethod(method string) Option {
	return func(g *Gateway) {
		method = strings.ToUpper(method)
		if method == http.MethodGet || method == http.MethodHead {
			g.probeMethod = method
		}
	}
}

// WithConcurrency bounds the number of icon probes outstanding at once
func WithConcurrency(n int) Option {
	return func(g *Gateway) {
		if n > 0 {
			g.concurrency = n
		}
	}
}

// New creates a Gateway for the given price feed and icon base URL
func New(pricesURL, iconsBaseURL string, opts ...Option) *Gateway {
	g := &Gateway{
		pricesURL:    pricesURL,
		iconsBaseURL: strings.TrimRight(iconsBaseURL, "/"),
		probeMethod:  http.MethodGet,
		ttl:          DefaultTTL,
		concurrency:  DefaultConcurrency,
		httpClient:   &http.Client{Timeout: DefaultTimeout},
		log:          zap.NewNop(),
		now:          time.Now,
		icons:        make(map[string]string),
	}

	for _, opt := range opts {
		opt(g)
	}

	g.metrics = newMetrics()
	return g
}

// TTL returns the configured price cache lifetime
func (g *Gateway) TTL() time.Duration {
	return g.ttl
}

// Invalidate clears both caches. In-flight fetches issued before the call
// will not populate the caches when they complete.
func (g *Gateway) Invalidate() {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.generation++
	g.prices = nil
	g.fetchedAt = time.Time{}
	g.hasPrices = false
	g.icons = make(map[string]string)

	g.log.Debug("gateway caches invalidated", zap.Uint64("generation", g.generation))
}

// priceCacheValidLocked reports whether cached prices may be served; g.mu must be held
func (g *Gateway) priceCacheValidLocked() bool {
	return g.hasPrices && g.now().Sub(g.fetchedAt) < g.ttl
}
