package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Service bundles the engine's business metrics on a dedicated registry so an
// embedding host can expose them without inheriting the default registry.
type Service struct {
	registry *prometheus.Registry

	// SignaturesTotal 记录每条链产生的签名总量
	SignaturesTotal *prometheus.CounterVec

	// BroadcastsTotal 记录广播结果 (accepted / rejected / failed)
	BroadcastsTotal *prometheus.CounterVec

	// EndpointFailovers counts how often a request had to advance to the next
	// endpoint of a chain's ordered endpoint list.
	EndpointFailovers *prometheus.CounterVec

	AddressCacheHits   prometheus.Counter
	AddressCacheMisses prometheus.Counter

	// SwapRouteHops observes the hop count of the routes the router selected.
	SwapRouteHops prometheus.Histogram
}

func New() *Service {
	s := &Service{
		registry: prometheus.NewRegistry(),
		SignaturesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wallet_engine_signatures_total",
				Help: "Total number of signatures produced, by chain.",
			},
			[]string{"chain"},
		),
		BroadcastsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wallet_engine_broadcasts_total",
				Help: "Total number of transaction broadcasts, by chain and outcome.",
			},
			[]string{"chain", "outcome"},
		),
		EndpointFailovers: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wallet_engine_endpoint_failovers_total",
				Help: "Total number of failovers to a subsequent endpoint, by chain.",
			},
			[]string{"chain"},
		),
		AddressCacheHits: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "wallet_engine_address_cache_hits_total",
				Help: "Total number of derived-address cache hits.",
			},
		),
		AddressCacheMisses: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "wallet_engine_address_cache_misses_total",
				Help: "Total number of derived-address cache misses.",
			},
		),
		SwapRouteHops: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "wallet_engine_swap_route_hops",
				Help:    "Hop count of selected swap routes.",
				Buckets: []float64{1, 2, 3, 4, 5},
			},
		),
	}

	s.registry.MustRegister(
		s.SignaturesTotal,
		s.BroadcastsTotal,
		s.EndpointFailovers,
		s.AddressCacheHits,
		s.AddressCacheMisses,
		s.SwapRouteHops,
	)

	return s
}

// Registry returns the dedicated prometheus registry holding all engine metrics.
func (s *Service) Registry() *prometheus.Registry {
	return s.registry
}
