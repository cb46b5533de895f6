package catalog

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"token-swap/pkg/logger"
	"token-swap/pkg/types"
)

// Source is the gateway surface needed to build a catalog
type Source interface {
	IconResolver
	FetchPrices(ctx context.Context) ([]types.PriceRecord, error)
	Invalidate()
}

// Loader builds catalogs from a Source and keeps the last good snapshot.
// A failed load leaves the previous snapshot in place.
type Loader struct {
	source Source
	log    *zap.Logger

	mu       sync.RWMutex
	tokens   []types.Token
	loadedAt time.Time
	lastErr  error
}

// NewLoader creates a catalog loader
func NewLoader(source Source, log *zap.Logger) *Loader {
	return &Loader{
		source: source,
		log:    logger.OrNop(log),
	}
}

// Load fetches prices (possibly from cache) and rebuilds the catalog. On
// error the returned slice is the previous snapshot, which may be nil.
func (l *Loader) Load(ctx context.Context) ([]types.Token, error) {
	records, err := l.source.FetchPrices(ctx)
	if err != nil {
		l.mu.Lock()
		l.lastErr = err
		prior := l.tokens
		l.mu.Unlock()

		l.log.Error("failed to load token catalog", zap.Error(err), zap.Int("retained_tokens", len(prior)))
		return prior, fmt.Errorf("failed to fetch token prices, please try again later: %w", err)
	}

	tokens := Build(ctx, records, l.source)

	l.mu.Lock()
	l.tokens = tokens
	l.loadedAt = time.Now()
	l.lastErr = nil
	l.mu.Unlock()

	l.log.Debug("token catalog built",
		zap.Int("records", len(records)),
		zap.Int("tokens", len(tokens)))

	return tokens, nil
}

// Refresh drops every cached price and icon, then loads again
func (l *Loader) Refresh(ctx context.Context) ([]types.Token, error) {
	l.source.Invalidate()
	return l.Load(ctx)
}

// Tokens returns the current snapshot
func (l *Loader) Tokens() []types.Token {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.tokens
}

// Err returns the error of the most recent load, if it failed
func (l *Loader) Err() error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.lastErr
}

// LoadedAt returns when the current snapshot was built
func (l *Loader) LoadedAt() time.Time {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.loadedAt
}
