package service

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/boddenberg/br-lookup-go/internal/carrier"
	"github.com/boddenberg/br-lookup-go/internal/domain"
	"github.com/boddenberg/br-lookup-go/internal/infra/observability"
	"github.com/boddenberg/br-lookup-go/internal/port"
	"github.com/boddenberg/br-lookup-go/internal/validator"
)

// PhoneResolver resolves phone numbers through the carrier cascade. It never
// returns ErrNotFound: an unknown carrier is still a complete record.
type PhoneResolver struct {
	validator *validator.Validator
	cascade   *carrier.Cascade
	regions   port.KindResolver
	cache     port.RecordCache
	ttl       time.Duration
	metrics   *observability.Metrics
	logger    *zap.Logger

	group singleflight.Group
}

// NewPhoneResolver creates the phone resolver. regions is the DDD resolver
// used to enrich records with their area; nil disables enrichment.
func NewPhoneResolver(
	v *validator.Validator,
	cascade *carrier.Cascade,
	regions port.KindResolver,
	cache port.RecordCache,
	ttl time.Duration,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *PhoneResolver {
	return &PhoneResolver{
		validator: v,
		cascade:   cascade,
		regions:   regions,
		cache:     cache,
		ttl:       ttl,
		metrics:   metrics,
		logger:    logger,
	}
}

func (p *PhoneResolver) Kind() domain.Kind { return domain.KindPhone }

// Resolve validates raw and runs the cascade.
func (p *PhoneResolver) Resolve(ctx context.Context, raw string) (domain.Record, error) {
	ctx, span := observability.Tracer().Start(ctx, "PhoneResolver.Resolve")
	defer span.End()

	start := time.Now()

	res := p.validator.Validate(domain.KindPhone, raw)
	if !res.OK {
		p.metrics.RecordResolution(domain.KindPhone, observability.OutcomeInvalid, time.Since(start))
		return nil, &domain.ErrValidation{Field: string(domain.KindPhone), Message: res.Reason}
	}
	key := domain.CacheKey(domain.Identifier{Kind: domain.KindPhone, Normalized: res.Normalized})

	if rec, ok := p.cache.Get(ctx, key); ok {
		p.metrics.IncrCacheHit(domain.KindPhone)
		p.metrics.RecordResolution(domain.KindPhone, observability.OutcomeResolved, time.Since(start))
		return rec, nil
	}
	p.metrics.IncrCacheMiss(domain.KindPhone)

	rec, _ := share(ctx, &p.group, key, func(ctx context.Context) (domain.CarrierRecord, error) {
		return p.resolve(ctx, key, res.Normalized), nil
	})

	span.SetAttributes(
		attribute.String("carrier.evidence", string(rec.EvidenceSource)),
		attribute.String("carrier.confidence", string(rec.Confidence)),
	)
	p.metrics.RecordResolution(domain.KindPhone, observability.OutcomeResolved, time.Since(start))
	return rec, nil
}

func (p *PhoneResolver) resolve(ctx context.Context, key, phone string) domain.CarrierRecord {
	rec := p.cascade.Resolve(ctx, phone)
	p.metrics.IncrCarrierEvidence(rec.EvidenceSource)

	if p.regions != nil {
		region, err := p.regions.Resolve(ctx, rec.DDD)
		if r, ok := region.(domain.RegionRecord); err == nil && ok {
			rec.Region = &r
		} else if err != nil {
			p.logger.Debug("region enrichment skipped", zap.String("ddd", rec.DDD), zap.Error(err))
		}
	}

	p.logger.Info("carrier resolved",
		zap.String("resolution_id", ResolutionID(ctx)),
		zap.String("ddd", rec.DDD),
		zap.String("evidence", string(rec.EvidenceSource)),
		zap.String("confidence", string(rec.Confidence)),
	)

	// A cancelled caller or an empty answer is not worth remembering.
	if ctx.Err() == nil && rec.EvidenceSource != domain.EvidenceNone {
		p.cache.Set(ctx, key, rec, p.ttl)
	}
	return rec
}
