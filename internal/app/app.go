// Package app assembles the engine from configuration. The HTTP server and
// the CLI share it so both resolve identifiers the same way.
package app

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/boddenberg/br-lookup-go/internal/carrier"
	"github.com/boddenberg/br-lookup-go/internal/config"
	"github.com/boddenberg/br-lookup-go/internal/domain"
	"github.com/boddenberg/br-lookup-go/internal/infra/cache"
	"github.com/boddenberg/br-lookup-go/internal/infra/observability"
	"github.com/boddenberg/br-lookup-go/internal/infra/resilience"
	"github.com/boddenberg/br-lookup-go/internal/port"
	"github.com/boddenberg/br-lookup-go/internal/provider"
	"github.com/boddenberg/br-lookup-go/internal/service"
	"github.com/boddenberg/br-lookup-go/internal/validator"
)

// App is the assembled engine plus the collaborators the outer layers need.
type App struct {
	Engine   *service.Engine
	Admin    *service.AdminAuth
	Metrics  *observability.Metrics
	Breakers *resilience.Breakers

	redis      *redis.Client
	redisCache *cache.Redis
	logger     *zap.Logger
}

// Options tweak Build for callers that do not want every collaborator.
type Options struct {
	// HTTPClient overrides the outbound client, mainly for tests.
	HTTPClient *http.Client
	// ForceMemoryCache ignores CACHE_BACKEND; the CLI uses it.
	ForceMemoryCache bool
}

// Build wires the engine. ctx bounds background work such as the cache
// sweeper; cancel it to stop them.
func Build(ctx context.Context, cfg *config.Config, logger *zap.Logger, opts Options) (*App, error) {
	cat, err := config.LoadCatalog(cfg.CatalogFile)
	if err != nil {
		return nil, err
	}
	cat.ApplyTokens(cfg)

	a := &App{
		Metrics: observability.NewMetrics(),
		Admin:   service.NewAdminAuth(cfg.AdminJWTSecret, time.Hour),
		logger:  logger,
	}

	// --- Resilience ---
	a.Breakers = resilience.NewBreakers(func(name string, from, to gobreaker.State) {
		logger.Warn("circuit breaker state changed",
			zap.String("provider", name),
			zap.String("from", from.String()),
			zap.String("to", to.String()),
		)
	})
	bulkhead := resilience.NewBulkhead(cfg.MaxConcurrency)
	fetcher := provider.NewHTTPFetcher(opts.HTTPClient, cfg.HTTPTimeout, a.Breakers, bulkhead, a.Metrics)

	// --- Cache ---
	records, err := a.buildCache(ctx, cfg, opts)
	if err != nil {
		return nil, err
	}

	// --- Resolvers ---
	v := validator.New(cat.DDDs)
	retry := resilience.Config{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
	}
	factory := &provider.Factory{Fetcher: fetcher, DDDStates: cat.DDDStates}

	var resolvers []port.KindResolver
	var regions port.KindResolver
	for _, kind := range domain.Kinds {
		if kind == domain.KindPhone {
			continue
		}
		endpoints := cat.Providers[kind]
		if len(endpoints) == 0 {
			logger.Warn("no providers configured, kind disabled", zap.String("kind", string(kind)))
			continue
		}
		adapters, err := factory.Chain(endpoints)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("%s providers: %w", kind, err)
		}
		r := service.NewResolver(kind, v, adapters, records, cfg.TTL(kind), retry, a.Metrics, logger)
		if kind == domain.KindDDD {
			regions = r
		}
		resolvers = append(resolvers, r)
		logger.Info("resolver ready",
			zap.String("kind", string(kind)),
			zap.Strings("providers", r.Providers()),
			zap.Duration("ttl", cfg.TTL(kind)),
		)
	}

	var official port.CarrierLookupSource
	if cfg.OfficialLookup {
		official = carrier.NewABRSource(fetcher, cfg.ABREndpoint)
	}
	cascade := carrier.NewCascade(official, cat.PrefixTable, cfg.CarrierTimeout, logger)
	resolvers = append(resolvers,
		service.NewPhoneResolver(v, cascade, regions, records, cfg.TTL(domain.KindPhone), a.Metrics, logger))

	a.Engine = service.NewEngine(v, records, logger, resolvers...)
	return a, nil
}

func (a *App) buildCache(ctx context.Context, cfg *config.Config, opts Options) (port.RecordCache, error) {
	if cfg.CacheBackend == "redis" && !opts.ForceMemoryCache {
		if cfg.RedisURL == "" {
			return nil, fmt.Errorf("CACHE_BACKEND=redis requires REDIS_URL")
		}
		client, err := cache.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		a.redis = client
		a.redisCache = cache.NewRedis(client, time.Hour, a.logger)
		a.logger.Info("using redis cache")
		return a.redisCache, nil
	}

	mem := cache.New[domain.Record](time.Hour, cache.WithMaxEntries(cfg.CacheMaxEntries))
	mem.StartSweeper(ctx, cfg.SweepInterval)
	a.logger.Info("using in-memory cache",
		zap.Int("max_entries", cfg.CacheMaxEntries),
		zap.Duration("sweep_interval", cfg.SweepInterval),
	)
	return mem, nil
}

// Health reports dependency status. Open breakers degrade the service but
// never make it unhealthy: other providers may still answer.
func (a *App) Health(ctx context.Context) domain.HealthStatus {
	status := domain.HealthStatus{Status: "healthy"}

	if a.redisCache != nil {
		h := domain.ServiceHealth{Name: "redis", Status: "up"}
		if err := a.redisCache.Health(ctx); err != nil {
			h.Status = "down"
			h.Detail = err.Error()
			status.Status = "degraded"
		}
		status.Services = append(status.Services, h)
	} else {
		status.Services = append(status.Services, domain.ServiceHealth{Name: "cache", Status: "up", Detail: "in-memory"})
	}

	states := a.Breakers.States()
	names := make([]string, 0, len(states))
	for name := range states {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		state := states[name]
		h := domain.ServiceHealth{Name: name, Status: "up", Detail: "circuit " + state}
		if state == gobreaker.StateOpen.String() {
			h.Status = "down"
			status.Status = "degraded"
		}
		status.Services = append(status.Services, h)
	}
	return status
}

// Close releases external connections.
func (a *App) Close() error {
	if a.redis != nil {
		return a.redis.Close()
	}
	return nil
}
