// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the service layer
// from concrete cache backends and lookup sources.
package port

import (
	"context"
	"time"

	"github.com/boddenberg/br-lookup-go/internal/domain"
)

// Cache provides generic caching with TTL. A miss is a plain false, never an
// error. A ttl <= 0 on Set means the backend default.
type Cache[T any] interface {
	Get(ctx context.Context, key string) (T, bool)
	Set(ctx context.Context, key string, value T, ttl time.Duration)
	Clear(ctx context.Context) int
	ClearExpired(ctx context.Context) int
	Stats(ctx context.Context) domain.CacheStats
}

// RecordCache is the cache shape shared by every resolver.
type RecordCache = Cache[domain.Record]

// KindResolver resolves one identifier kind into its canonical record.
type KindResolver interface {
	Kind() domain.Kind
	Resolve(ctx context.Context, raw string) (domain.Record, error)
}

// CarrierOutcome is the tri-state answer of an official carrier lookup.
type CarrierOutcome int

const (
	// CarrierFound means the source named a carrier.
	CarrierFound CarrierOutcome = iota
	// CarrierInconclusive means the source answered without naming a carrier.
	CarrierInconclusive
	// CarrierError means the source could not be queried.
	CarrierError
)

func (o CarrierOutcome) String() string {
	switch o {
	case CarrierFound:
		return "found"
	case CarrierInconclusive:
		return "inconclusive"
	}
	return "error"
}

// CarrierLookup is the result of one official carrier lookup.
type CarrierLookup struct {
	Outcome CarrierOutcome
	Carrier string
	Detail  string
}

// CarrierLookupSource queries an authoritative number-portability registry.
type CarrierLookupSource interface {
	Name() string
	Lookup(ctx context.Context, phone string) CarrierLookup
}
