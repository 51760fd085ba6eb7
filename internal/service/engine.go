// Package service holds the resolution use cases: one resolver per
// identifier kind and the engine that dispatches between them.
package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/boddenberg/br-lookup-go/internal/domain"
	"github.com/boddenberg/br-lookup-go/internal/port"
	"github.com/boddenberg/br-lookup-go/internal/validator"
)

// Engine maps identifier kinds to their resolvers and exposes the cache
// administration operations.
type Engine struct {
	resolvers map[domain.Kind]port.KindResolver
	validator *validator.Validator
	cache     port.RecordCache
	logger    *zap.Logger
}

// NewEngine creates the engine. A later resolver for the same kind replaces
// an earlier one.
func NewEngine(v *validator.Validator, cache port.RecordCache, logger *zap.Logger, resolvers ...port.KindResolver) *Engine {
	m := make(map[domain.Kind]port.KindResolver, len(resolvers))
	for _, r := range resolvers {
		m[r.Kind()] = r
	}
	return &Engine{resolvers: m, validator: v, cache: cache, logger: logger}
}

// Kinds lists the kinds with a registered resolver, in canonical order.
func (e *Engine) Kinds() []domain.Kind {
	out := make([]domain.Kind, 0, len(e.resolvers))
	for _, k := range domain.Kinds {
		if _, ok := e.resolvers[k]; ok {
			out = append(out, k)
		}
	}
	return out
}

// Resolve dispatches raw to the resolver registered for kind.
func (e *Engine) Resolve(ctx context.Context, kind domain.Kind, raw string) (domain.Record, error) {
	r, ok := e.resolvers[kind]
	if !ok {
		return nil, &domain.ErrValidation{Field: "kind", Message: "no resolver for kind " + string(kind)}
	}
	return r.Resolve(ctx, raw)
}

// Validate runs only the validator. It never fails; the outcome is in the
// result.
func (e *Engine) Validate(kind domain.Kind, raw string) domain.ValidationResult {
	res := e.validator.Validate(kind, raw)
	out := domain.ValidationResult{
		Kind:       kind,
		OK:         res.OK,
		Normalized: res.Normalized,
		Reason:     res.Reason,
	}
	if res.OK {
		out.Formatted = validator.Format(kind, res.Normalized)
	}
	return out
}

// ClearCache drops every cached record and reports how many were removed.
func (e *Engine) ClearCache(ctx context.Context) int {
	n := e.cache.Clear(ctx)
	e.logger.Info("cache cleared", zap.Int("removed", n))
	return n
}

// ClearExpired drops expired records and reports how many were removed.
func (e *Engine) ClearExpired(ctx context.Context) int {
	n := e.cache.ClearExpired(ctx)
	e.logger.Info("expired cache entries cleared", zap.Int("removed", n))
	return n
}

func (e *Engine) CacheStats(ctx context.Context) domain.CacheStats {
	return e.cache.Stats(ctx)
}
