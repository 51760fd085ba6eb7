package observability_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/boddenberg/br-lookup-go/internal/domain"
	"github.com/boddenberg/br-lookup-go/internal/infra/observability"
)

func TestMetrics_EngineSnapshot(t *testing.T) {
	m := observability.NewMetrics()

	m.RecordResolution(domain.KindCEP, observability.OutcomeResolved, 10*time.Millisecond)
	m.RecordResolution(domain.KindCNPJ, observability.OutcomeResolved, 10*time.Millisecond)
	m.RecordResolution(domain.KindCNPJ, observability.OutcomeNotFound, 10*time.Millisecond)
	m.RecordResolution(domain.KindCPF, observability.OutcomeInvalid, 0)

	m.IncrCacheHit(domain.KindCEP)
	m.IncrCacheMiss(domain.KindCEP)
	m.IncrCacheMiss(domain.KindDDD)
	m.IncrCacheHit(domain.KindDDD)

	m.IncrProviderFailure("viacep", domain.FailureTimeout)
	m.IncrProviderFailure("viacep", domain.FailureNotFound)
	m.IncrProviderFailure("receitaws", domain.FailureTransport)

	m.IncrCarrierEvidence(domain.EvidenceDigitHeuristic)

	snap := m.GetEngineSnapshot()
	if snap.Resolutions != 2 {
		t.Errorf("expected 2 resolutions, got %d", snap.Resolutions)
	}
	if snap.NotFound != 1 || snap.Invalid != 1 {
		t.Errorf("unexpected outcome counts %+v", snap)
	}
	if snap.CacheHitRate != 0.5 {
		t.Errorf("expected hit rate 0.5, got %f", snap.CacheHitRate)
	}
	if snap.ProviderFailures["viacep"] != 2 || snap.ProviderFailures["receitaws"] != 1 {
		t.Errorf("unexpected provider failures %v", snap.ProviderFailures)
	}
	if snap.CarrierEvidence["digit_heuristic"] != 1 {
		t.Errorf("unexpected carrier evidence %v", snap.CarrierEvidence)
	}
}

func TestMetrics_EmptySnapshot(t *testing.T) {
	snap := observability.NewMetrics().GetEngineSnapshot()
	if snap.CacheHitRate != 0 || snap.Resolutions != 0 {
		t.Errorf("expected zero snapshot, got %+v", snap)
	}
}

func TestMetricsMiddleware_CountsStatusClass(t *testing.T) {
	m := observability.NewMetrics()
	h := observability.MetricsMiddleware(m)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/cep/00000000", nil))

	families, err := m.Registry.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, f := range families {
		if f.GetName() != "brlookup_http_requests_total" {
			continue
		}
		for _, metric := range f.GetMetric() {
			for _, l := range metric.GetLabel() {
				if l.GetValue() == "4xx" && metric.GetCounter().GetValue() == 1 {
					return
				}
			}
		}
	}
	t.Fatal("expected one 4xx request to be counted")
}
