// Package carrier resolves the probable carrier of a Brazilian phone number
// under number portability. Tiers are consulted in decreasing authority and
// every answer carries the confidence of the tier that produced it.
package carrier

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/boddenberg/br-lookup-go/internal/domain"
	"github.com/boddenberg/br-lookup-go/internal/infra/observability"
	"github.com/boddenberg/br-lookup-go/internal/port"
)

// DefaultLookupTimeout bounds the official lookup tier.
const DefaultLookupTimeout = 5 * time.Second

// Cascade runs official lookup, regional prefix table and digit heuristic.
type Cascade struct {
	source  port.CarrierLookupSource
	table   PrefixTable
	timeout time.Duration
	logger  *zap.Logger
}

// NewCascade creates a cascade. source may be nil, in which case the official
// tier is skipped and recorded as unavailable.
func NewCascade(source port.CarrierLookupSource, table PrefixTable, timeout time.Duration, logger *zap.Logger) *Cascade {
	if timeout <= 0 {
		timeout = DefaultLookupTimeout
	}
	if table == nil {
		table = PrefixTable{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cascade{source: source, table: table, timeout: timeout, logger: logger}
}

// capConfidence never lets c exceed ceiling.
func capConfidence(c, ceiling domain.Confidence) domain.Confidence {
	if c.Rank() > ceiling.Rank() {
		return ceiling
	}
	return c
}

// Resolve always returns a fully formed record; an unknown carrier is a
// legitimate outcome, not an error. phone must already be validated.
func (c *Cascade) Resolve(ctx context.Context, phone string) domain.CarrierRecord {
	ctx, span := observability.Tracer().Start(ctx, "carrier.Cascade.Resolve")
	defer span.End()

	ddd, subscriber := Split(phone)
	rec := domain.CarrierRecord{
		Phone:            phone,
		DDD:              ddd,
		SubscriberNumber: subscriber,
		LineType:         ClassifyLine(phone),
	}
	var notes []string
	// ceiling drops each time a tier is passed over.
	ceiling := domain.ConfidenceHigh

	finish := func(name string, conf domain.Confidence, src domain.EvidenceSource) domain.CarrierRecord {
		if name != "" {
			rec.CarrierName = &name
		}
		rec.Confidence = capConfidence(conf, ceiling)
		rec.EvidenceSource = src
		rec.Notes = strings.Join(notes, "; ")
		span.SetAttributes(
			attribute.String("carrier.evidence", string(src)),
			attribute.String("carrier.confidence", string(rec.Confidence)),
		)
		return rec
	}

	// Tier 1: authoritative lookup.
	if c.source != nil {
		res := c.lookup(ctx, phone)
		if res.Outcome == port.CarrierFound && res.Carrier != "" {
			notes = append(notes, "carrier confirmed by "+c.source.Name())
			return finish(res.Carrier, domain.ConfidenceHigh, domain.EvidenceOfficialLookup)
		}
		msg := "official lookup " + res.Outcome.String()
		if res.Detail != "" {
			msg += ": " + res.Detail
		}
		notes = append(notes, msg)
		c.logger.Debug("official carrier lookup did not answer",
			zap.String("outcome", res.Outcome.String()),
			zap.String("detail", res.Detail),
		)
	} else {
		notes = append(notes, "official lookup unavailable")
	}
	ceiling = domain.ConfidenceLow

	// Tier 2: regional prefix table.
	if name, ok := c.table.Lookup(ddd, subscriber); ok {
		notes = append(notes, "matched regional prefix table for DDD "+ddd+" prefix "+subscriber[:2]+"; original allocation, may be outdated by portability")
		return finish(name, domain.ConfidenceLow, domain.EvidencePrefixTable)
	}
	notes = append(notes, "no regional prefix entry")
	ceiling = domain.ConfidenceVeryLow

	// Tier 3: digit heuristic.
	if name, ok := DigitHeuristic(subscriber); ok {
		notes = append(notes, "digit heuristic on first subscriber digit; weakest signal, not an attribution")
		return finish(name, domain.ConfidenceVeryLow, domain.EvidenceDigitHeuristic)
	}

	notes = append(notes, "no tier produced a carrier")
	ceiling = domain.ConfidenceError
	return finish("", domain.ConfidenceError, domain.EvidenceNone)
}

// lookup bounds the official tier and folds a deadline into an Error outcome.
func (c *Cascade) lookup(ctx context.Context, phone string) port.CarrierLookup {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	done := make(chan port.CarrierLookup, 1)
	go func() {
		done <- c.source.Lookup(ctx, phone)
	}()

	select {
	case res := <-done:
		if res.Outcome != port.CarrierFound && errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return port.CarrierLookup{Outcome: port.CarrierError, Detail: "timed out"}
		}
		return res
	case <-ctx.Done():
		return port.CarrierLookup{Outcome: port.CarrierError, Detail: "timed out"}
	}
}
