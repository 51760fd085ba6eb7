package provider_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boddenberg/br-lookup-go/internal/domain"
	"github.com/boddenberg/br-lookup-go/internal/infra/resilience"
	"github.com/boddenberg/br-lookup-go/internal/provider"
)

func serve(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		fmt.Fprint(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func fetcher() *provider.HTTPFetcher {
	return provider.NewHTTPFetcher(nil, 2*time.Second, nil, resilience.NewBulkhead(4), nil)
}

var cepID = domain.Identifier{Kind: domain.KindCEP, Raw: "01310-100", Normalized: "01310100"}

func TestViaCEP_SuccessNormalizes(t *testing.T) {
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		fmt.Fprint(w, `{"cep":"01310-100","logradouro":"Avenida Paulista","complemento":"de 612 a 1510 - lado par","bairro":"Bela Vista","localidade":"São Paulo","uf":"SP","ibge":"3550308","ddd":"11"}`)
	}))
	defer srv.Close()

	a := provider.NewViaCEP(fetcher(), srv.URL+"/ws/{id}/json/")
	res := a.Fetch(context.Background(), cepID)

	require.True(t, res.Succeeded, "%+v", res.Failure)
	assert.Equal(t, "/ws/01310100/json/", path)
	assert.Equal(t, "viacep", res.Source)

	rec, err := provider.Normalize(res.Source, cepID, res.Payload)
	require.NoError(t, err)
	assert.Equal(t, domain.AddressRecord{
		Street:       "Avenida Paulista",
		Complement:   "de 612 a 1510 - lado par",
		Neighborhood: "Bela Vista",
		City:         "São Paulo",
		State:        "SP",
		PostalCode:   "01310100",
		IBGECode:     "3550308",
		Source:       "viacep",
	}, rec)
}

func TestViaCEP_ErroBodyIsNotFound(t *testing.T) {
	for _, body := range []string{`{"erro": true}`, `{"erro": "true"}`} {
		srv := serve(t, http.StatusOK, body)
		res := provider.NewViaCEP(fetcher(), srv.URL+"/{id}").Fetch(context.Background(), cepID)

		require.False(t, res.Succeeded)
		assert.Equal(t, domain.FailureNotFound, res.Failure.Kind)
		assert.Equal(t, "viacep", res.Failure.Source)
	}
}

func TestHTTPFetcher_FailureMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   domain.FailureKind
	}{
		{"404", http.StatusNotFound, `{}`, domain.FailureNotFound},
		{"500", http.StatusInternalServerError, `oops`, domain.FailureTransport},
		{"429", http.StatusTooManyRequests, `{}`, domain.FailureTransport},
		{"bad json", http.StatusOK, `<html>`, domain.FailureMalformedResponse},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := serve(t, tt.status, tt.body)
			res := provider.NewOpenCEP(fetcher(), srv.URL+"/{id}").Fetch(context.Background(), cepID)
			require.False(t, res.Succeeded)
			assert.Equal(t, tt.want, res.Failure.Kind)
		})
	}
}

func TestHTTPFetcher_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	f := provider.NewHTTPFetcher(nil, 50*time.Millisecond, nil, nil, nil)
	res := provider.NewOpenCEP(f, srv.URL+"/{id}").Fetch(context.Background(), cepID)

	require.False(t, res.Succeeded)
	assert.Equal(t, domain.FailureTimeout, res.Failure.Kind)
}

func TestHTTPFetcher_CallerCancellationIsTimeout(t *testing.T) {
	srv := serve(t, http.StatusOK, `{}`)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := provider.NewOpenCEP(fetcher(), srv.URL+"/{id}").Fetch(ctx, cepID)
	require.False(t, res.Succeeded)
	assert.Equal(t, domain.FailureTimeout, res.Failure.Kind)
}

func TestHTTPFetcher_OpenBreakerIsTransportError(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	f := provider.NewHTTPFetcher(nil, time.Second, resilience.NewBreakers(nil), nil, nil)
	a := provider.NewOpenCEP(f, srv.URL+"/{id}")
	for i := 0; i < 5; i++ {
		a.Fetch(context.Background(), cepID)
	}

	res := a.Fetch(context.Background(), cepID)
	require.False(t, res.Succeeded)
	assert.Equal(t, domain.FailureTransport, res.Failure.Kind)
	assert.Equal(t, "circuit open", res.Failure.Message)
	assert.Equal(t, 5, calls)
}

func TestHTTPFetcher_CallerCancellationKeepsBreakerClosed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
			return
		case <-time.After(100 * time.Millisecond):
		}
		fmt.Fprint(w, `{"cep":"01310-100","logradouro":"Avenida Paulista","bairro":"Bela Vista","localidade":"São Paulo","uf":"SP"}`)
	}))
	defer srv.Close()

	f := provider.NewHTTPFetcher(nil, 2*time.Second, resilience.NewBreakers(nil), nil, nil)
	a := provider.NewViaCEP(f, srv.URL+"/ws/{id}/json/")
	for i := 0; i < 5; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		res := a.Fetch(ctx, cepID)
		cancel()
		require.False(t, res.Succeeded)
		assert.Equal(t, domain.FailureTimeout, res.Failure.Kind)
	}

	res := a.Fetch(context.Background(), cepID)
	require.True(t, res.Succeeded, "%+v", res.Failure)
}

func TestBrasilAPICEP_V2Coordinates(t *testing.T) {
	srv := serve(t, http.StatusOK, `{"cep":"01310100","state":"SP","city":"São Paulo","neighborhood":"Bela Vista","street":"Avenida Paulista","service":"open-cep","location":{"type":"Point","coordinates":{"longitude":"-46.6554","latitude":"-23.5617"}}}`)

	res := provider.NewBrasilAPICEP(fetcher(), "brasilapi-cep-v2", srv.URL+"/{id}").Fetch(context.Background(), cepID)
	require.True(t, res.Succeeded)

	rec, err := provider.Normalize(res.Source, cepID, res.Payload)
	require.NoError(t, err)
	addr := rec.(domain.AddressRecord)
	require.NotNil(t, addr.Coordinates)
	assert.InDelta(t, -23.5617, addr.Coordinates.Latitude, 1e-9)
	assert.InDelta(t, -46.6554, addr.Coordinates.Longitude, 1e-9)
	assert.Equal(t, "brasilapi-cep-v2", addr.Source)
}

func TestBrasilAPICEP_EmptyCoordinatesOmitted(t *testing.T) {
	srv := serve(t, http.StatusOK, `{"cep":"01310100","state":"SP","city":"São Paulo","neighborhood":"","street":"","location":{"type":"Point","coordinates":{}}}`)

	res := provider.NewBrasilAPICEP(fetcher(), "brasilapi-cep-v2", srv.URL+"/{id}").Fetch(context.Background(), cepID)
	require.True(t, res.Succeeded)

	rec, err := provider.Normalize(res.Source, cepID, res.Payload)
	require.NoError(t, err)
	assert.Nil(t, rec.(domain.AddressRecord).Coordinates)
}

func TestApiCEP_FormattedPathAndNotFound(t *testing.T) {
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		fmt.Fprint(w, `{"status":404,"ok":false,"message":"CEP não encontrado"}`)
	}))
	defer srv.Close()

	res := provider.NewApiCEP(fetcher(), srv.URL+"/file/apicep/{formatted}.json").Fetch(context.Background(), cepID)
	assert.Equal(t, "/file/apicep/01310-100.json", path)
	require.False(t, res.Succeeded)
	assert.Equal(t, domain.FailureNotFound, res.Failure.Kind)
	assert.Equal(t, "CEP não encontrado", res.Failure.Message)
}

func TestNormalize_MissingRequiredFieldIsMalformed(t *testing.T) {
	_, err := provider.Normalize("viacep", cepID, provider.ViaCEPPayload{Logradouro: "Rua X"})
	assert.True(t, errors.Is(err, provider.ErrMalformed))

	cnpj := domain.Identifier{Kind: domain.KindCNPJ, Normalized: "11222333000181"}
	_, err = provider.Normalize("receitaws", cnpj, provider.ReceitaWSPayload{Status: "OK"})
	assert.True(t, errors.Is(err, provider.ErrMalformed))

	_, err = provider.Normalize("brasilapi-ddd", domain.Identifier{Kind: domain.KindDDD, Normalized: "11"}, provider.BrasilAPIDDDPayload{})
	assert.True(t, errors.Is(err, provider.ErrMalformed))
}

func TestNormalize_CityWideCEPWithoutStreet(t *testing.T) {
	rec, err := provider.Normalize("opencep", cepID, provider.OpenCEPPayload{Localidade: "Brasília", UF: "df"})
	require.NoError(t, err)
	addr := rec.(domain.AddressRecord)
	assert.Empty(t, addr.Street)
	assert.Equal(t, "DF", addr.State)
	assert.Equal(t, "01310100", addr.PostalCode)
}

func TestFactory_UnknownProvider(t *testing.T) {
	f := &provider.Factory{Fetcher: fetcher()}
	_, err := f.New(provider.Endpoint{Name: "nope"})
	assert.Error(t, err)
}

func TestFactory_DefaultChainsBuild(t *testing.T) {
	f := &provider.Factory{Fetcher: fetcher(), DDDStates: map[string]string{"11": "SP"}}
	for kind, eps := range provider.DefaultEndpoints() {
		chain, err := f.Chain(eps)
		require.NoError(t, err, kind)
		require.Len(t, chain, len(eps))
		for i, a := range chain {
			assert.Equal(t, eps[i].Name, a.Name())
		}
	}
}
