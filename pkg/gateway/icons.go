package gateway

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"
)

type iconResult struct {
	id  string
	url string
}

// IconURL returns the remote location probed for a token's icon
func (g *Gateway) IconURL(tokenID string) string {
	return fmt.Sprintf("%s/%s.svg", g.iconsBaseURL, url.PathEscape(tokenID))
}

// ResolveIcon returns the icon URL for tokenID, or "" when the token has no
// icon. Results are cached whether present or absent. Probe failures are
// logged and treated as absent; they are never returned to the caller.
func (g *Gateway) ResolveIcon(ctx context.Context, tokenID string) string {
	g.mu.Lock()
	if iconURL, ok := g.icons[tokenID]; ok {
		g.mu.Unlock()
		g.metrics.iconCache.WithLabelValues("hit").Inc()
		return iconURL
	}
	generation := g.generation
	g.mu.Unlock()
	g.metrics.iconCache.WithLabelValues("miss").Inc()

	key := "icon/" + strconv.FormatUint(generation, 10) + "/" + tokenID
	shared := context.WithoutCancel(ctx)
	ch := g.flights.DoChan(key, func() (interface{}, error) {
		iconURL, definitive := g.probeIcon(shared, tokenID)

		g.mu.Lock()
		if definitive && generation == g.generation {
			g.icons[tokenID] = iconURL
		}
		g.mu.Unlock()

		return iconURL, nil
	})

	select {
	case <-ctx.Done():
		return ""
	case res := <-ch:
		return res.Val.(string)
	}
}

// ResolveIconsBatch resolves every id concurrently and returns exactly one
// entry per distinct input id. A failing probe only affects its own entry.
func (g *Gateway) ResolveIconsBatch(ctx context.Context, tokenIDs []string) map[string]string {
	out := make(map[string]string, len(tokenIDs))
	seen := make(map[string]struct{}, len(tokenIDs))

	p := pool.NewWithResults[iconResult]().WithMaxGoroutines(g.concurrency)
	for _, id := range tokenIDs {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		id := id
		p.Go(func() (res iconResult) {
			res.id = id
			defer func() {
				if r := recover(); r != nil {
					g.log.Warn("icon probe panicked", zap.String("token", id), zap.Any("panic", r))
					res.url = ""
				}
			}()
			res.url = g.ResolveIcon(ctx, id)
			return res
		})
	}
	g.metrics.probeLength.Observe(float64(len(seen)))

	for _, res := range p.Wait() {
		out[res.id] = res.url
	}
	for id := range seen {
		if _, ok := out[id]; !ok {
			out[id] = ""
		}
	}

	return out
}

// probeIcon checks the remote icon. definitive is false when the probe was
// cut short by a cancelled or expired context; such results are not cached.
func (g *Gateway) probeIcon(ctx context.Context, tokenID string) (iconURL string, definitive bool) {
	iconURL = g.IconURL(tokenID)

	req, err := http.NewRequestWithContext(ctx, g.probeMethod, iconURL, nil)
	if err != nil {
		g.metrics.iconProbe.WithLabelValues("error").Inc()
		g.log.Warn("failed to build icon request", zap.String("token", tokenID), zap.Error(err))
		return "", true
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		g.metrics.iconProbe.WithLabelValues("error").Inc()
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			g.log.Debug("icon probe interrupted", zap.String("token", tokenID), zap.Error(err))
			return "", false
		}
		g.log.Warn("failed to check icon", zap.String("token", tokenID), zap.Error(err))
		return "", true
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	ok := resp.StatusCode >= 200 && resp.StatusCode < 300
	if ok && strings.Contains(resp.Header.Get("Content-Type"), "image") {
		g.metrics.iconProbe.WithLabelValues("present").Inc()
		return iconURL, true
	}

	g.metrics.iconProbe.WithLabelValues("absent").Inc()
	g.log.Debug("no icon for token",
		zap.String("token", tokenID),
		zap.Int("status", resp.StatusCode),
		zap.String("content_type", resp.Header.Get("Content-Type")))
	return "", true
}
