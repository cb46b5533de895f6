package gateway

import (
	"github.com/prometheus/client_golang/prometheus"
)

type metrics struct {
	registry    *prometheus.Registry
	priceCache  *prometheus.CounterVec
	priceFetch  *prometheus.CounterVec
	iconCache   *prometheus.CounterVec
	iconProbe   *prometheus.CounterVec
	probeLength prometheus.Histogram
}

func newMetrics() *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		priceCache: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "token_swap",
				Subsystem: "gateway",
				Name:      "price_cache_lookups_total",
				Help:      "Price cache lookups by result.",
			},
			[]string{"result"},
		),
		priceFetch: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "token_swap",
				Subsystem: "gateway",
				Name:      "price_fetches_total",
				Help:      "Remote price feed requests by outcome.",
			},
			[]string{"outcome"},
		),
		iconCache: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "token_swap",
				Subsystem: "gateway",
				Name:      "icon_cache_lookups_total",
				Help:      "Icon cache lookups by result.",
			},
			[]string{"result"},
		),
		iconProbe: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "token_swap",
				Subsystem: "gateway",
				Name:      "icon_probes_total",
				Help:      "Remote icon probes by outcome.",
			},
			[]string{"outcome"},
		),
		probeLength: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "token_swap",
				Subsystem: "gateway",
				Name:      "icon_batch_size",
				Help:      "Number of distinct ids per icon batch.",
				Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
			},
		),
	}

	m.registry.MustRegister(m.priceCache, m.priceFetch, m.iconCache, m.iconProbe, m.probeLength)
	return m
}

// Registry exposes the gateway's collectors, e.g. for a promhttp handler
// or for printing cache statistics.
func (g *Gateway) Registry() *prometheus.Registry {
	return g.metrics.registry
}
