package provider

import (
	"fmt"

	"github.com/boddenberg/br-lookup-go/internal/domain"
)

// Endpoint configures one adapter in a chain.
type Endpoint struct {
	Name  string `yaml:"name"`
	URL   string `yaml:"url"`
	Token string `yaml:"token,omitempty"`
}

// DefaultEndpoints returns the built-in chains in priority order.
func DefaultEndpoints() map[domain.Kind][]Endpoint {
	return map[domain.Kind][]Endpoint{
		domain.KindCEP: {
			{Name: "viacep", URL: "https://viacep.com.br/ws/{id}/json/"},
			{Name: "brasilapi-cep-v2", URL: "https://brasilapi.com.br/api/cep/v2/{id}"},
			{Name: "brasilapi-cep-v1", URL: "https://brasilapi.com.br/api/cep/v1/{id}"},
			{Name: "opencep", URL: "https://opencep.com/v1/{id}.json"},
			{Name: "apicep", URL: "https://cdn.apicep.com/file/apicep/{formatted}.json"},
		},
		domain.KindCNPJ: {
			{Name: "brasilapi-cnpj", URL: "https://brasilapi.com.br/api/cnpj/v1/{id}"},
			{Name: "receitaws", URL: "https://www.receitaws.com.br/v1/cnpj/{id}"},
			{Name: "cnpja-open", URL: "https://open.cnpja.com/office/{id}"},
		},
		domain.KindDDD: {
			{Name: "brasilapi-ddd", URL: "https://brasilapi.com.br/api/ddd/v1/{id}"},
			{Name: "anatel-static"},
		},
		domain.KindCPF: {
			{Name: "directdata", URL: "https://apiv3.directd.com.br/api/RegistrationDataBrazil?CPF={id}&TOKEN={token}"},
		},
		domain.KindBank: {
			{Name: "brasilapi-banks", URL: "https://brasilapi.com.br/api/banks/v1/{id}"},
		},
	}
}

// Factory builds adapters by name.
type Factory struct {
	Fetcher   *HTTPFetcher
	DDDStates map[string]string
}

// New builds the adapter an endpoint names.
func (f *Factory) New(ep Endpoint) (Adapter, error) {
	switch ep.Name {
	case "viacep":
		return NewViaCEP(f.Fetcher, ep.URL), nil
	case "brasilapi-cep-v1", "brasilapi-cep-v2":
		return NewBrasilAPICEP(f.Fetcher, ep.Name, ep.URL), nil
	case "opencep":
		return NewOpenCEP(f.Fetcher, ep.URL), nil
	case "apicep":
		return NewApiCEP(f.Fetcher, ep.URL), nil
	case "brasilapi-cnpj":
		return NewBrasilAPICNPJ(f.Fetcher, ep.URL), nil
	case "receitaws":
		return NewReceitaWS(f.Fetcher, ep.URL, ep.Token), nil
	case "cnpja-open":
		return NewCNPJa(f.Fetcher, ep.URL), nil
	case "brasilapi-ddd":
		return NewBrasilAPIDDD(f.Fetcher, ep.URL), nil
	case "anatel-static":
		return NewStaticDDD(f.DDDStates), nil
	case "directdata":
		return NewDirectData(f.Fetcher, ep.URL, ep.Token), nil
	case "brasilapi-banks":
		return NewBrasilAPIBank(f.Fetcher, ep.URL), nil
	}
	return nil, fmt.Errorf("unknown provider %q", ep.Name)
}

// Chain builds adapters for endpoints, preserving order.
func (f *Factory) Chain(endpoints []Endpoint) ([]Adapter, error) {
	out := make([]Adapter, 0, len(endpoints))
	for _, ep := range endpoints {
		a, err := f.New(ep)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}
