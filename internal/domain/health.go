package domain

// ============================================================
// Health & Metrics API Responses
// ============================================================

// HealthStatus is returned by GET /healthz.
type HealthStatus struct {
	Status   string          `json:"status"` // healthy, degraded
	Services []ServiceHealth `json:"services"`
}

// ServiceHealth represents the health of an individual dependency.
type ServiceHealth struct {
	Name   string `json:"name"`
	Status string `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// CacheStats is the point-in-time view of a cache.
type CacheStats struct {
	Total   int `json:"total"`
	Active  int `json:"active"`
	Expired int `json:"expired"`
	// OldestActiveSeconds is the age of the oldest live entry. Backends that
	// expire keys natively leave it zero.
	OldestActiveSeconds int64 `json:"oldest_active_seconds,omitempty"`
}

// EngineMetrics is returned by GET /v1/metrics/engine.
type EngineMetrics struct {
	Resolutions      int64            `json:"resolutions"`
	NotFound         int64            `json:"not_found"`
	Invalid          int64            `json:"invalid"`
	CacheHitRate     float64          `json:"cache_hit_rate"`
	ProviderFailures map[string]int64 `json:"provider_failures"`
	CarrierEvidence  map[string]int64 `json:"carrier_evidence"`
}

// ValidationResult is returned by the validation-only routes.
type ValidationResult struct {
	Kind       Kind   `json:"kind"`
	OK         bool   `json:"ok"`
	Normalized string `json:"normalized"`
	Formatted  string `json:"formatted,omitempty"`
	Reason     string `json:"reason,omitempty"`
}
