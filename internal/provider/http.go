package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/boddenberg/br-lookup-go/internal/domain"
	"github.com/boddenberg/br-lookup-go/internal/infra/observability"
	"github.com/boddenberg/br-lookup-go/internal/infra/resilience"
)

const (
	// DefaultTimeout bounds a single provider call.
	DefaultTimeout = 10 * time.Second

	maxBodyBytes = 4 << 20
	userAgent    = "br-lookup/1.0"
)

// errServer marks 5xx responses so the breaker counts them.
var errServer = errors.New("provider server error")

type httpResponse struct {
	status int
	body   []byte
}

// HTTPFetcher performs provider calls with a per-call timeout, a per-provider
// circuit breaker and a shared bulkhead. It never retries.
type HTTPFetcher struct {
	client   *http.Client
	timeout  time.Duration
	breakers *resilience.Breakers
	bulkhead *resilience.Bulkhead
	metrics  *observability.Metrics
}

// NewHTTPFetcher creates a fetcher. breakers, bulkhead and metrics may be nil.
func NewHTTPFetcher(client *http.Client, timeout time.Duration, breakers *resilience.Breakers, bulkhead *resilience.Bulkhead, metrics *observability.Metrics) *HTTPFetcher {
	if client == nil {
		client = &http.Client{}
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &HTTPFetcher{
		client:   client,
		timeout:  timeout,
		breakers: breakers,
		bulkhead: bulkhead,
		metrics:  metrics,
	}
}

// GetJSON issues a GET and decodes a 2xx JSON body into out.
func (f *HTTPFetcher) GetJSON(ctx context.Context, source, rawURL string, header http.Header, out any) *domain.ProviderFailure {
	body, failure := f.Do(ctx, source, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, err
		}
		for k, vs := range header {
			for _, v := range vs {
				req.Header.Add(k, v)
			}
		}
		req.Header.Set("Accept", "application/json")
		return req, nil
	})
	if failure != nil {
		return failure
	}

	if err := json.Unmarshal(body, out); err != nil {
		return &domain.ProviderFailure{Source: source, Kind: domain.FailureMalformedResponse, Message: "invalid JSON body"}
	}
	return nil
}

// PostForm issues a form-encoded POST and returns the raw 2xx body.
func (f *HTTPFetcher) PostForm(ctx context.Context, source, rawURL string, form url.Values) ([]byte, *domain.ProviderFailure) {
	return f.Do(ctx, source, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, strings.NewReader(form.Encode()))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		return req, nil
	})
}

// Do runs one request built by build and maps every outcome onto the failure
// taxonomy: 404 is not_found, any other non-2xx is transport_error, deadline
// or cancellation is timeout, an open breaker is transport_error.
func (f *HTTPFetcher) Do(ctx context.Context, source string, build func(context.Context) (*http.Request, error)) ([]byte, *domain.ProviderFailure) {
	ctx, span := observability.Tracer().Start(ctx, "provider."+source)
	defer span.End()
	span.SetAttributes(attribute.String("provider.name", source))

	start := time.Now()
	defer func() {
		if f.metrics != nil {
			f.metrics.RecordProviderDuration(source, time.Since(start))
		}
	}()

	fail := func(kind domain.FailureKind, msg string) ([]byte, *domain.ProviderFailure) {
		span.SetStatus(codes.Error, msg)
		span.SetAttributes(attribute.String("provider.failure", string(kind)))
		return nil, &domain.ProviderFailure{Source: source, Kind: kind, Message: msg}
	}

	caller := ctx
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	// A caller walking away says nothing about the provider's health.
	unlessAbandoned := func(err error) error {
		if caller.Err() != nil {
			return resilience.Abandoned(err)
		}
		return err
	}

	if f.bulkhead != nil {
		if err := f.bulkhead.Acquire(ctx); err != nil {
			return fail(domain.FailureTimeout, "waiting for an outbound slot")
		}
		defer f.bulkhead.Release()
	}

	call := func() (any, error) {
		req, err := build(ctx)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", userAgent)
		span.SetAttributes(attribute.String("http.host", req.URL.Host))

		resp, err := f.client.Do(req)
		if err != nil {
			return nil, unlessAbandoned(err)
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		if err != nil {
			return nil, unlessAbandoned(err)
		}
		if resp.StatusCode >= 500 {
			return nil, fmt.Errorf("%w: status %d", errServer, resp.StatusCode)
		}
		return &httpResponse{status: resp.StatusCode, body: body}, nil
	}

	var (
		out any
		err error
	)
	if f.breakers != nil {
		out, err = f.breakers.Get(source).Execute(call)
	} else {
		out, err = call()
	}

	if err != nil {
		switch {
		case resilience.IsOpen(err):
			return fail(domain.FailureTransport, "circuit open")
		case ctx.Err() != nil || isTimeout(err):
			return fail(domain.FailureTimeout, "no response within deadline")
		case errors.Is(err, errServer):
			return fail(domain.FailureTransport, err.Error())
		default:
			return fail(domain.FailureTransport, "request failed")
		}
	}

	resp := out.(*httpResponse)
	span.SetAttributes(attribute.Int("http.status_code", resp.status))
	switch {
	case resp.status == http.StatusNotFound:
		return fail(domain.FailureNotFound, "status 404")
	case resp.status < 200 || resp.status > 299:
		return fail(domain.FailureTransport, fmt.Sprintf("status %d", resp.status))
	}
	return resp.body, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
