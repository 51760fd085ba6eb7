package handler

import (
	"context"
	"net/http"

	"github.com/boddenberg/br-lookup-go/internal/domain"
	"github.com/boddenberg/br-lookup-go/internal/infra/observability"
	"github.com/boddenberg/br-lookup-go/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("handler")

// ResolutionIDHeader carries the ID that correlates a response with its logs.
const ResolutionIDHeader = "X-Resolution-ID"

// HealthChecker reports dependency status for /healthz.
type HealthChecker interface {
	Health(ctx context.Context) domain.HealthStatus
}

// NewRouter creates the HTTP router with all routes and middleware.
// health and admin may be nil.
func NewRouter(engine *service.Engine, admin *service.AdminAuth, health HealthChecker, metrics *observability.Metrics, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Use(observability.TracingMiddleware)
	r.Use(observability.MetricsMiddleware(metrics))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler(health))
	r.Get("/readyz", readyzHandler(health))
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	// --- API v1 ---
	r.Route("/v1", func(r chi.Router) {

		// =============================================
		// 1. Resolution by kind
		// GET /v1/{kind}/{id}
		// =============================================
		r.Get("/cep/{id}", resolveHandler(engine, domain.KindCEP, logger))
		r.Get("/cnpj/{id}", resolveHandler(engine, domain.KindCNPJ, logger))
		r.Get("/cpf/{id}", resolveHandler(engine, domain.KindCPF, logger))
		r.Get("/ddd/{id}", resolveHandler(engine, domain.KindDDD, logger))
		r.Get("/telefone/{id}", resolveHandler(engine, domain.KindPhone, logger))
		r.Get("/bancos/{id}", resolveHandler(engine, domain.KindBank, logger))

		// =============================================
		// 2. Generic resolution and validation
		// GET /v1/resolve/{kind}/{id}
		// GET /v1/validate/{kind}/{id}
		// =============================================
		r.Get("/resolve/{kind}/{id}", resolveAnyHandler(engine, logger))
		r.Get("/validate/{kind}/{id}", validateHandler(engine, logger))

		// =============================================
		// 3. Metrics
		// GET /v1/metrics/engine
		// =============================================
		r.Get("/metrics/engine", engineMetricsHandler(metrics))

		// =============================================
		// 4. Cache administration (admin token)
		// =============================================
		r.Route("/admin/cache", func(r chi.Router) {
			r.Use(AdminAuthMiddleware(admin, logger))
			r.Get("/stats", cacheStatsHandler(engine))
			r.Delete("/", clearCacheHandler(engine, logger))
			r.Post("/clear-expired", clearExpiredHandler(engine, logger))
		})
	})

	return r
}

// ============================================================
// 1. Resolution
// ============================================================

func resolveHandler(engine *service.Engine, kind domain.Kind, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resolve(w, r, engine, kind, chi.URLParam(r, "id"), logger)
	}
}

func resolveAnyHandler(engine *service.Engine, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		kind, err := domain.ParseKind(chi.URLParam(r, "kind"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		resolve(w, r, engine, kind, chi.URLParam(r, "id"), logger)
	}
}

func resolve(w http.ResponseWriter, r *http.Request, engine *service.Engine, kind domain.Kind, raw string, logger *zap.Logger) {
	ctx, span := tracer.Start(r.Context(), "GET /v1/"+string(kind))
	defer span.End()
	span.SetAttributes(attribute.String("identifier.kind", string(kind)))

	resolutionID := uuid.NewString()
	w.Header().Set(ResolutionIDHeader, resolutionID)
	ctx = service.WithResolutionID(ctx, resolutionID)

	rec, err := engine.Resolve(ctx, kind, raw)
	if err != nil {
		handleServiceError(w, err, logger.With(zap.String("resolution_id", resolutionID)))
		return
	}
	writeJSON(w, http.StatusOK, recordResponse{Kind: kind, Data: rec})
}

// ============================================================
// 2. Validation (always 200; the outcome is in the body)
// ============================================================

func validateHandler(engine *service.Engine, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		kind, err := domain.ParseKind(chi.URLParam(r, "kind"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, engine.Validate(kind, chi.URLParam(r, "id")))
	}
}

// ============================================================
// 3. Operational
// ============================================================

func healthzHandler(health HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if health == nil {
			writeJSON(w, http.StatusOK, domain.HealthStatus{Status: "healthy", Services: []domain.ServiceHealth{}})
			return
		}
		writeJSON(w, http.StatusOK, health.Health(r.Context()))
	}
}

func readyzHandler(health HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if health != nil && health.Health(r.Context()).Status != "healthy" {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func engineMetricsHandler(metrics *observability.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, metrics.GetEngineSnapshot())
	}
}

// ============================================================
// 4. Cache administration
// ============================================================

func cacheStatsHandler(engine *service.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, engine.CacheStats(r.Context()))
	}
}

func clearCacheHandler(engine *service.Engine, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n := engine.ClearCache(r.Context())
		logger.Info("admin cleared cache", zap.String("subject", AdminSubjectFromContext(r.Context())))
		writeJSON(w, http.StatusOK, map[string]int{"removed": n})
	}
}

func clearExpiredHandler(engine *service.Engine, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n := engine.ClearExpired(r.Context())
		logger.Info("admin cleared expired entries", zap.String("subject", AdminSubjectFromContext(r.Context())))
		writeJSON(w, http.StatusOK, map[string]int{"removed": n})
	}
}
