package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"

	"github.com/boddenberg/br-lookup-go/internal/domain"
)

// Resolution outcomes used as the "outcome" label.
const (
	OutcomeResolved = "resolved"
	OutcomeNotFound = "not_found"
	OutcomeInvalid  = "invalid"
)

// Metrics holds all Prometheus metrics for the engine.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	resolutionDuration *prometheus.HistogramVec
	resolutionsTotal   *prometheus.CounterVec
	providerFailures   *prometheus.CounterVec
	providerDuration   *prometheus.HistogramVec
	cacheHits          *prometheus.CounterVec
	cacheMisses        *prometheus.CounterVec
	carrierEvidence    *prometheus.CounterVec
	requestsTotal      *prometheus.CounterVec
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// application metrics in it. Using a private registry avoids "duplicate
// collector" panics when NewMetrics is called more than once (e.g. in tests).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		resolutionDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "brlookup_resolution_duration_seconds",
				Help:    "Duration of resolutions by identifier kind.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"kind"},
		),
		resolutionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "brlookup_resolutions_total",
				Help: "Total resolutions by kind and outcome.",
			},
			[]string{"kind", "outcome"},
		),
		providerFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "brlookup_provider_failures_total",
				Help: "Total failed provider attempts by provider and failure kind.",
			},
			[]string{"provider", "failure"},
		),
		providerDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "brlookup_provider_duration_seconds",
				Help:    "Duration of provider calls.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"provider"},
		),
		cacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "brlookup_cache_hits_total",
				Help: "Total cache hits.",
			},
			[]string{"kind"},
		),
		cacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "brlookup_cache_misses_total",
				Help: "Total cache misses.",
			},
			[]string{"kind"},
		),
		carrierEvidence: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "brlookup_carrier_evidence_total",
				Help: "Carrier resolutions by the cascade tier that produced them.",
			},
			[]string{"evidence"},
		),
		requestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "brlookup_http_requests_total",
				Help: "Total HTTP requests processed.",
			},
			[]string{"status"},
		),
	}
}

// RecordResolution records the duration and outcome of one resolution.
func (m *Metrics) RecordResolution(kind domain.Kind, outcome string, d time.Duration) {
	m.resolutionDuration.WithLabelValues(string(kind)).Observe(d.Seconds())
	m.resolutionsTotal.WithLabelValues(string(kind), outcome).Inc()
}

// IncrProviderFailure increments the failure counter for one provider attempt.
func (m *Metrics) IncrProviderFailure(provider string, kind domain.FailureKind) {
	m.providerFailures.WithLabelValues(provider, string(kind)).Inc()
}

// RecordProviderDuration records the latency of one provider call.
func (m *Metrics) RecordProviderDuration(provider string, d time.Duration) {
	m.providerDuration.WithLabelValues(provider).Observe(d.Seconds())
}

// IncrCacheHit increments the cache hit counter.
func (m *Metrics) IncrCacheHit(kind domain.Kind) {
	m.cacheHits.WithLabelValues(string(kind)).Inc()
}

// IncrCacheMiss increments the cache miss counter.
func (m *Metrics) IncrCacheMiss(kind domain.Kind) {
	m.cacheMisses.WithLabelValues(string(kind)).Inc()
}

// IncrCarrierEvidence counts a carrier record by its evidence source.
func (m *Metrics) IncrCarrierEvidence(src domain.EvidenceSource) {
	m.carrierEvidence.WithLabelValues(string(src)).Inc()
}

// IncrRequest increments the request counter with a status label.
func (m *Metrics) IncrRequest(status string) {
	m.requestsTotal.WithLabelValues(status).Inc()
}

// GetEngineSnapshot returns a snapshot of engine metrics suitable for the
// GET /v1/metrics/engine endpoint.
func (m *Metrics) GetEngineSnapshot() *domain.EngineMetrics {
	// Prometheus counters expose cumulative values.
	outcomes := sumByLabel(m.resolutionsTotal, "outcome")
	hits := sumAll(m.cacheHits)
	misses := sumAll(m.cacheMisses)

	hitRate := float64(0)
	if hits+misses > 0 {
		hitRate = hits / (hits + misses)
	}

	failures := make(map[string]int64)
	for provider, v := range sumByLabel(m.providerFailures, "provider") {
		failures[provider] = int64(v)
	}
	evidence := make(map[string]int64)
	for src, v := range sumByLabel(m.carrierEvidence, "evidence") {
		evidence[src] = int64(v)
	}

	return &domain.EngineMetrics{
		Resolutions:      int64(outcomes[OutcomeResolved]),
		NotFound:         int64(outcomes[OutcomeNotFound]),
		Invalid:          int64(outcomes[OutcomeInvalid]),
		CacheHitRate:     hitRate,
		ProviderFailures: failures,
		CarrierEvidence:  evidence,
	}
}

// collect writes out every child counter of cv.
func collect(cv *prometheus.CounterVec) []*dto.Metric {
	ch := make(chan prometheus.Metric)
	go func() {
		cv.Collect(ch)
		close(ch)
	}()

	var out []*dto.Metric
	for metric := range ch {
		m := &dto.Metric{}
		if err := metric.Write(m); err != nil {
			continue
		}
		out = append(out, m)
	}
	return out
}

// sumByLabel adds counter values grouped by the value of one label.
func sumByLabel(cv *prometheus.CounterVec, label string) map[string]float64 {
	out := make(map[string]float64)
	for _, m := range collect(cv) {
		if m.Counter == nil || m.Counter.Value == nil {
			continue
		}
		for _, lp := range m.GetLabel() {
			if lp.GetName() == label {
				out[lp.GetValue()] += m.Counter.GetValue()
			}
		}
	}
	return out
}

func sumAll(cv *prometheus.CounterVec) float64 {
	total := float64(0)
	for _, m := range collect(cv) {
		total += m.GetCounter().GetValue()
	}
	return total
}
