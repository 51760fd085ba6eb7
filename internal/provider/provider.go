// Package provider holds one adapter per external data source per identifier
// kind, plus the normalizer that turns each adapter's payload into the
// canonical record for that kind.
//
// Adapters never retry and never raise: every outcome is a Result.
package provider

import (
	"context"

	"github.com/boddenberg/br-lookup-go/internal/domain"
)

// Adapter performs a single outbound call for an already-validated identifier.
type Adapter interface {
	Name() string
	Fetch(ctx context.Context, id domain.Identifier) Result
}

// Result is the outcome of one adapter call. Exactly one of Payload and
// Failure is set.
type Result struct {
	Source    string
	Succeeded bool
	Payload   Payload
	Failure   *domain.ProviderFailure
}

// Success wraps a payload.
func Success(source string, p Payload) Result {
	return Result{Source: source, Succeeded: true, Payload: p}
}

// Failed builds a failed result.
func Failed(source string, kind domain.FailureKind, msg string) Result {
	return Result{
		Source:  source,
		Failure: &domain.ProviderFailure{Source: source, Kind: kind, Message: msg},
	}
}

func failedWith(f *domain.ProviderFailure) Result {
	return Result{Source: f.Source, Failure: f}
}

// AdapterFunc adapts a plain function, mainly for tests and static sources.
type AdapterFunc struct {
	ID string
	Fn func(ctx context.Context, id domain.Identifier) Result
}

func (a AdapterFunc) Name() string { return a.ID }

func (a AdapterFunc) Fetch(ctx context.Context, id domain.Identifier) Result {
	return a.Fn(ctx, id)
}
