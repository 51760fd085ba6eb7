package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/boddenberg/br-lookup-go/internal/carrier"
	"github.com/boddenberg/br-lookup-go/internal/domain"
	"github.com/boddenberg/br-lookup-go/internal/provider"
	"github.com/boddenberg/br-lookup-go/internal/validator"
)

// Catalog is the reference data the engine is built from: provider chains,
// the DDD allow-list, the DDD to state table and the regional prefix table.
// It is read once at startup and never mutated afterwards.
type Catalog struct {
	Providers   map[domain.Kind][]provider.Endpoint
	DDDs        []string
	DDDStates   map[string]string
	PrefixTable carrier.PrefixTable
}

// catalogFile is the YAML shape of CATALOG_FILE. Sections that are present
// replace the built-in ones; providers are replaced per kind.
type catalogFile struct {
	Providers   map[string][]provider.Endpoint `yaml:"providers"`
	DDDs        []string                       `yaml:"ddds"`
	DDDStates   map[string]string              `yaml:"ddd_states"`
	PrefixTable map[string]map[string]string   `yaml:"prefix_table"`
}

// DefaultDDDStates maps every assigned DDD to its state.
var DefaultDDDStates = map[string]string{
	"11": "SP", "12": "SP", "13": "SP", "14": "SP", "15": "SP", "16": "SP", "17": "SP", "18": "SP", "19": "SP",
	"21": "RJ", "22": "RJ", "24": "RJ",
	"27": "ES", "28": "ES",
	"31": "MG", "32": "MG", "33": "MG", "34": "MG", "35": "MG", "37": "MG", "38": "MG",
	"41": "PR", "42": "PR", "43": "PR", "44": "PR", "45": "PR", "46": "PR",
	"47": "SC", "48": "SC", "49": "SC",
	"51": "RS", "53": "RS", "54": "RS", "55": "RS",
	"61": "DF",
	"62": "GO", "64": "GO",
	"63": "TO",
	"65": "MT", "66": "MT",
	"67": "MS",
	"68": "AC",
	"69": "RO",
	"71": "BA", "73": "BA", "74": "BA", "75": "BA", "77": "BA",
	"79": "SE",
	"81": "PE", "87": "PE",
	"82": "AL",
	"83": "PB",
	"84": "RN",
	"85": "CE", "88": "CE",
	"86": "PI", "89": "PI",
	"91": "PA", "93": "PA", "94": "PA",
	"92": "AM", "97": "AM",
	"95": "RR",
	"96": "AP",
	"98": "MA", "99": "MA",
}

// DefaultCatalog returns the built-in reference data.
func DefaultCatalog() *Catalog {
	states := make(map[string]string, len(DefaultDDDStates))
	for k, v := range DefaultDDDStates {
		states[k] = v
	}
	return &Catalog{
		Providers:   provider.DefaultEndpoints(),
		DDDs:        append([]string(nil), validator.DefaultDDDs...),
		DDDStates:   states,
		PrefixTable: carrier.DefaultPrefixTable(),
	}
}

// LoadCatalog returns the default catalog overlaid with the YAML file at
// path. An empty path yields the defaults.
func LoadCatalog(path string) (*Catalog, error) {
	cat := DefaultCatalog()
	if path == "" {
		return cat, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}

	for name, eps := range file.Providers {
		kind, err := domain.ParseKind(name)
		if err != nil {
			return nil, fmt.Errorf("catalog providers: %w", err)
		}
		if kind == domain.KindPhone {
			return nil, fmt.Errorf("catalog providers: phone numbers are resolved by the carrier cascade")
		}
		for _, ep := range eps {
			if ep.Name == "" {
				return nil, fmt.Errorf("catalog providers.%s: endpoint without name", name)
			}
		}
		cat.Providers[kind] = eps
	}
	if len(file.DDDs) > 0 {
		cat.DDDs = file.DDDs
	}
	if len(file.DDDStates) > 0 {
		cat.DDDStates = file.DDDStates
	}
	if len(file.PrefixTable) > 0 {
		cat.PrefixTable = carrier.PrefixTable(file.PrefixTable)
	}
	return cat, nil
}

// ApplyTokens fills provider tokens from configuration where the catalog
// leaves them empty.
func (c *Catalog) ApplyTokens(cfg *Config) {
	tokens := map[string]string{
		"directdata": cfg.DirectDataToken,
		"receitaws":  cfg.ReceitaWSToken,
	}
	for kind, eps := range c.Providers {
		for i := range eps {
			if eps[i].Token == "" {
				eps[i].Token = tokens[eps[i].Name]
			}
		}
		c.Providers[kind] = eps
	}
}
