package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/boddenberg/br-lookup-go/internal/domain"
	"github.com/boddenberg/br-lookup-go/internal/infra/observability"
	"github.com/boddenberg/br-lookup-go/internal/infra/resilience"
	"github.com/boddenberg/br-lookup-go/internal/port"
	"github.com/boddenberg/br-lookup-go/internal/provider"
	"github.com/boddenberg/br-lookup-go/internal/validator"
)

var errAttemptFailed = errors.New("provider attempt failed")

type resolutionIDKey struct{}

// WithResolutionID attaches a resolution ID to ctx so logs and response
// headers can be correlated.
func WithResolutionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, resolutionIDKey{}, id)
}

// ResolutionID returns the ID attached to ctx, or a fresh one.
func ResolutionID(ctx context.Context) string {
	if id, ok := ctx.Value(resolutionIDKey{}).(string); ok && id != "" {
		return id
	}
	return uuid.NewString()
}

// Resolver turns a raw identifier of one kind into its canonical record:
// Validate → CacheCheck → ProviderLoop → Normalize → CacheWrite.
type Resolver struct {
	kind      domain.Kind
	validator *validator.Validator
	adapters  []provider.Adapter
	cache     port.RecordCache
	ttl       time.Duration
	retry     resilience.Config
	metrics   *observability.Metrics
	logger    *zap.Logger

	group singleflight.Group
}

// NewResolver creates a resolver. adapters are consulted strictly in the
// given order.
func NewResolver(
	kind domain.Kind,
	v *validator.Validator,
	adapters []provider.Adapter,
	cache port.RecordCache,
	ttl time.Duration,
	retry resilience.Config,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *Resolver {
	return &Resolver{
		kind:      kind,
		validator: v,
		adapters:  adapters,
		cache:     cache,
		ttl:       ttl,
		retry:     retry,
		metrics:   metrics,
		logger:    logger,
	}
}

func (r *Resolver) Kind() domain.Kind { return r.kind }

// Providers returns the configured adapter names in consultation order.
func (r *Resolver) Providers() []string {
	names := make([]string, len(r.adapters))
	for i, a := range r.adapters {
		names[i] = a.Name()
	}
	return names
}

// Resolve returns the record for raw, *domain.ErrValidation when raw is not a
// valid identifier of this kind, or *domain.ErrNotFound when every provider
// failed.
func (r *Resolver) Resolve(ctx context.Context, raw string) (domain.Record, error) {
	ctx, span := observability.Tracer().Start(ctx, "Resolver.Resolve")
	defer span.End()
	span.SetAttributes(attribute.String("identifier.kind", string(r.kind)))

	start := time.Now()

	res := r.validator.Validate(r.kind, raw)
	if !res.OK {
		r.metrics.RecordResolution(r.kind, observability.OutcomeInvalid, time.Since(start))
		return nil, &domain.ErrValidation{Field: string(r.kind), Message: res.Reason}
	}
	id := domain.Identifier{Kind: r.kind, Raw: raw, Normalized: res.Normalized}
	key := domain.CacheKey(id)

	if rec, ok := r.cache.Get(ctx, key); ok {
		r.metrics.IncrCacheHit(r.kind)
		r.metrics.RecordResolution(r.kind, observability.OutcomeResolved, time.Since(start))
		r.logger.Debug("cache hit", zap.String("key", key))
		return rec, nil
	}
	r.metrics.IncrCacheMiss(r.kind)

	rec, err := share(ctx, &r.group, key, func(ctx context.Context) (domain.Record, error) {
		return r.fetch(ctx, id)
	})
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		r.metrics.RecordResolution(r.kind, observability.OutcomeNotFound, time.Since(start))
		return nil, err
	}
	r.metrics.RecordResolution(r.kind, observability.OutcomeResolved, time.Since(start))
	return rec, nil
}

type flight[T any] struct {
	out       T
	cancelled bool
}

// share runs fn once for all concurrent callers of key. An outcome produced
// under a leader context that ended is only returned to that leader; callers
// whose own context is still live run the work again.
func share[T any](ctx context.Context, g *singleflight.Group, key string, fn func(context.Context) (T, error)) (T, error) {
	for {
		v, err, _ := g.Do(key, func() (any, error) {
			out, err := fn(ctx)
			return flight[T]{out: out, cancelled: ctx.Err() != nil}, err
		})
		f := v.(flight[T])
		if f.cancelled && ctx.Err() == nil {
			continue
		}
		return f.out, err
	}
}

// fetch runs the provider loop. The first adapter whose payload normalizes
// wins; later adapters are never called.
func (r *Resolver) fetch(ctx context.Context, id domain.Identifier) (domain.Record, error) {
	log := r.logger.With(
		zap.String("resolution_id", ResolutionID(ctx)),
		zap.String("kind", string(id.Kind)),
		zap.String("id", id.Normalized),
	)

	failures := make([]domain.ProviderFailure, 0, len(r.adapters))
	record := func(f domain.ProviderFailure) {
		failures = append(failures, f)
		r.metrics.IncrProviderFailure(f.Source, f.Kind)
		log.Warn("provider failed",
			zap.String("provider", f.Source),
			zap.String("failure", string(f.Kind)),
			zap.String("detail", f.Message),
		)
	}

	for _, a := range r.adapters {
		start := time.Now()
		res := r.attempt(ctx, a, id)

		if !res.Succeeded {
			record(*res.Failure)
			if ctx.Err() != nil {
				break
			}
			continue
		}

		rec, err := provider.Normalize(res.Source, id, res.Payload)
		if err != nil {
			record(domain.ProviderFailure{Source: res.Source, Kind: domain.FailureMalformedResponse, Message: err.Error()})
			if ctx.Err() != nil {
				break
			}
			continue
		}

		r.cache.Set(ctx, domain.CacheKey(id), rec, r.ttl)
		log.Info("resolved",
			zap.String("provider", res.Source),
			zap.Duration("latency", time.Since(start)),
			zap.Int("failed_before", len(failures)),
		)
		return rec, nil
	}

	log.Warn("all providers failed", zap.Int("attempts", len(failures)))
	return nil, &domain.ErrNotFound{Resource: string(id.Kind), ID: id.Normalized, Failures: failures}
}

// attempt calls a single adapter, retrying only timeout and transport
// failures when retries are configured.
func (r *Resolver) attempt(ctx context.Context, a provider.Adapter, id domain.Identifier) provider.Result {
	var res provider.Result
	_ = resilience.RetryWithBackoff(ctx, r.retry, func() error {
		res = a.Fetch(ctx, id)
		switch {
		case res.Succeeded:
			return nil
		case res.Failure != nil && retryable(res.Failure.Kind):
			return errAttemptFailed
		default:
			return resilience.Permanent(errAttemptFailed)
		}
	})
	if !res.Succeeded && res.Failure == nil {
		// The context ended before the adapter was called.
		res = provider.Failed(a.Name(), domain.FailureTimeout, "cancelled before call")
	}
	return res
}

func retryable(k domain.FailureKind) bool {
	return k == domain.FailureTimeout || k == domain.FailureTransport
}
