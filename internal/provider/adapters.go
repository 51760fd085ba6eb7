package provider

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/boddenberg/br-lookup-go/internal/domain"
	"github.com/boddenberg/br-lookup-go/internal/validator"
)

// jsonAdapter is a GET-and-decode adapter for one payload variant.
// absent reports provider-specific "no record" bodies that arrive with 200.
type jsonAdapter[P Payload] struct {
	name    string
	url     string
	token   string
	header  http.Header
	fetcher *HTTPFetcher
	absent  func(P) (bool, string)
}

func (a *jsonAdapter[P]) Name() string { return a.name }

func (a *jsonAdapter[P]) Fetch(ctx context.Context, id domain.Identifier) Result {
	var p P
	if f := a.fetcher.GetJSON(ctx, a.name, expand(a.url, id, a.token), a.header, &p); f != nil {
		return failedWith(f)
	}
	if a.absent != nil {
		if gone, msg := a.absent(p); gone {
			return Failed(a.name, domain.FailureNotFound, msg)
		}
	}
	return Success(a.name, p)
}

// expand fills an endpoint template. Supported placeholders: {id} (digits),
// {formatted} (display mask) and {token}.
func expand(tmpl string, id domain.Identifier, token string) string {
	return strings.NewReplacer(
		"{id}", url.PathEscape(id.Normalized),
		"{formatted}", url.PathEscape(validator.Format(id.Kind, id.Normalized)),
		"{token}", url.QueryEscape(token),
	).Replace(tmpl)
}

// ============================================================
// CEP
// ============================================================

// NewViaCEP creates the ViaCEP adapter.
func NewViaCEP(f *HTTPFetcher, endpoint string) Adapter {
	return &jsonAdapter[ViaCEPPayload]{
		name: "viacep", url: endpoint, fetcher: f,
		absent: func(p ViaCEPPayload) (bool, string) {
			return bool(p.Erro), "provider reported erro"
		},
	}
}

// NewBrasilAPICEP creates a BrasilAPI CEP adapter; name tells v1 from v2.
func NewBrasilAPICEP(f *HTTPFetcher, name, endpoint string) Adapter {
	return &jsonAdapter[BrasilAPICEPPayload]{name: name, url: endpoint, fetcher: f}
}

// NewOpenCEP creates the OpenCEP adapter.
func NewOpenCEP(f *HTTPFetcher, endpoint string) Adapter {
	return &jsonAdapter[OpenCEPPayload]{name: "opencep", url: endpoint, fetcher: f}
}

// NewApiCEP creates the ApiCEP adapter.
func NewApiCEP(f *HTTPFetcher, endpoint string) Adapter {
	return &jsonAdapter[ApiCEPPayload]{
		name: "apicep", url: endpoint, fetcher: f,
		absent: func(p ApiCEPPayload) (bool, string) {
			if p.OK {
				return false, ""
			}
			if p.Message != "" {
				return true, p.Message
			}
			return true, "provider reported ok=false"
		},
	}
}

// ============================================================
// CNPJ
// ============================================================

// NewBrasilAPICNPJ creates the BrasilAPI CNPJ adapter.
func NewBrasilAPICNPJ(f *HTTPFetcher, endpoint string) Adapter {
	return &jsonAdapter[BrasilAPICNPJPayload]{name: "brasilapi-cnpj", url: endpoint, fetcher: f}
}

// NewReceitaWS creates the ReceitaWS adapter. An optional token is sent as a
// bearer credential for the commercial tier.
func NewReceitaWS(f *HTTPFetcher, endpoint, token string) Adapter {
	a := &jsonAdapter[ReceitaWSPayload]{
		name: "receitaws", url: endpoint, fetcher: f,
		absent: func(p ReceitaWSPayload) (bool, string) {
			if strings.EqualFold(p.Status, "ERROR") {
				return true, p.Message
			}
			return false, ""
		},
	}
	if token != "" {
		a.header = http.Header{"Authorization": {"Bearer " + token}}
	}
	return a
}

// NewCNPJa creates the CNPJá open API adapter.
func NewCNPJa(f *HTTPFetcher, endpoint string) Adapter {
	return &jsonAdapter[CNPJaPayload]{name: "cnpja-open", url: endpoint, fetcher: f}
}

// ============================================================
// DDD
// ============================================================

// NewBrasilAPIDDD creates the BrasilAPI DDD adapter.
func NewBrasilAPIDDD(f *HTTPFetcher, endpoint string) Adapter {
	return &jsonAdapter[BrasilAPIDDDPayload]{name: "brasilapi-ddd", url: endpoint, fetcher: f}
}

// StaticDDD answers from an in-process DDD to state table. It never times out.
type StaticDDD struct {
	states map[string]string
}

// NewStaticDDD creates the offline area-code adapter.
func NewStaticDDD(states map[string]string) *StaticDDD {
	return &StaticDDD{states: states}
}

func (s *StaticDDD) Name() string { return "anatel-static" }

func (s *StaticDDD) Fetch(_ context.Context, id domain.Identifier) Result {
	state, ok := s.states[id.Normalized]
	if !ok {
		return Failed(s.Name(), domain.FailureNotFound, "area code not in table")
	}
	return Success(s.Name(), StaticDDDPayload{DDD: id.Normalized, State: state})
}

// ============================================================
// CPF
// ============================================================

// DirectData is a pass-through to the commercial DirectData registry. Without
// a token it reports transport_error without calling out.
type DirectData struct {
	inner *jsonAdapter[DirectDataPayload]
}

// NewDirectData creates the DirectData adapter.
func NewDirectData(f *HTTPFetcher, endpoint, token string) *DirectData {
	return &DirectData{inner: &jsonAdapter[DirectDataPayload]{
		name: "directdata", url: endpoint, token: token, fetcher: f,
		absent: func(p DirectDataPayload) (bool, string) {
			if p.Success != nil && !*p.Success {
				return true, p.Message
			}
			if p.Data == nil {
				return true, "empty data"
			}
			return false, ""
		},
	}}
}

func (d *DirectData) Name() string { return d.inner.name }

func (d *DirectData) Fetch(ctx context.Context, id domain.Identifier) Result {
	if d.inner.token == "" {
		return Failed(d.Name(), domain.FailureTransport, "not configured")
	}
	return d.inner.Fetch(ctx, id)
}

// ============================================================
// Banks
// ============================================================

// NewBrasilAPIBank creates the BrasilAPI banks adapter.
func NewBrasilAPIBank(f *HTTPFetcher, endpoint string) Adapter {
	return &jsonAdapter[BrasilAPIBankPayload]{name: "brasilapi-banks", url: endpoint, fetcher: f}
}
