package provider

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/boddenberg/br-lookup-go/internal/domain"
	"github.com/boddenberg/br-lookup-go/internal/validator"
)

// ErrMalformed is returned when a payload lacks a field the canonical record
// cannot do without. Resolvers treat it as a malformed_response failure.
var ErrMalformed = errors.New("malformed payload")

func missing(field string) error {
	return fmt.Errorf("%w: missing %s", ErrMalformed, field)
}

// Normalize maps a provider payload into the canonical record for id.Kind.
// Optional fields that are absent become empty; absent required fields yield
// ErrMalformed. It is pure.
func Normalize(source string, id domain.Identifier, p Payload) (domain.Record, error) {
	switch v := p.(type) {
	case ViaCEPPayload:
		return asRecord(address(source, id, addressFields{
			street: v.Logradouro, complement: v.Complemento, neighborhood: v.Bairro,
			city: v.Localidade, state: v.UF, postalCode: v.CEP, ibge: v.IBGE,
		}))
	case OpenCEPPayload:
		return asRecord(address(source, id, addressFields{
			street: v.Logradouro, complement: v.Complemento, neighborhood: v.Bairro,
			city: v.Localidade, state: v.UF, postalCode: v.CEP, ibge: v.IBGE,
		}))
	case BrasilAPICEPPayload:
		rec, err := address(source, id, addressFields{
			street: v.Street, neighborhood: v.Neighborhood,
			city: v.City, state: v.State, postalCode: v.CEP,
		})
		if err != nil {
			return nil, err
		}
		if loc := v.Location; loc != nil && loc.Coordinates.Latitude.Valid && loc.Coordinates.Longitude.Valid {
			rec.Coordinates = &domain.Coordinates{
				Latitude:  loc.Coordinates.Latitude.Value,
				Longitude: loc.Coordinates.Longitude.Value,
			}
		}
		return rec, nil
	case ApiCEPPayload:
		return asRecord(address(source, id, addressFields{
			street: v.Address, neighborhood: v.District,
			city: v.City, state: v.State, postalCode: v.Code,
		}))

	case BrasilAPICNPJPayload:
		return normalizeBrasilAPICNPJ(source, id, v)
	case ReceitaWSPayload:
		return normalizeReceitaWS(source, id, v)
	case CNPJaPayload:
		return normalizeCNPJa(source, id, v)

	case BrasilAPIDDDPayload:
		if strings.TrimSpace(v.State) == "" {
			return nil, missing("state")
		}
		cities := v.Cities
		if cities == nil {
			cities = []string{}
		}
		return domain.RegionRecord{DDD: id.Normalized, State: strings.ToUpper(v.State), Cities: cities, Source: source}, nil
	case StaticDDDPayload:
		if v.State == "" {
			return nil, missing("state")
		}
		return domain.RegionRecord{DDD: id.Normalized, State: v.State, Cities: []string{}, Source: source}, nil

	case DirectDataPayload:
		return normalizeDirectData(source, id, v)

	case BrasilAPIBankPayload:
		if strings.TrimSpace(v.Name) == "" {
			return nil, missing("name")
		}
		code := id.Normalized
		if v.Code != nil {
			code = fmt.Sprintf("%03d", *v.Code)
		}
		return domain.BankRecord{Code: code, Name: v.Name, FullName: v.FullName, ISPB: v.ISPB, Source: source}, nil
	}
	return nil, fmt.Errorf("%w: unsupported payload %T", ErrMalformed, p)
}

func asRecord(rec domain.AddressRecord, err error) (domain.Record, error) {
	if err != nil {
		return nil, err
	}
	return rec, nil
}

type addressFields struct {
	street, complement, neighborhood string
	city, state, postalCode, ibge    string
}

// address requires city and state; city-wide CEPs legitimately have no street.
func address(source string, id domain.Identifier, f addressFields) (domain.AddressRecord, error) {
	if strings.TrimSpace(f.city) == "" {
		return domain.AddressRecord{}, missing("city")
	}
	if strings.TrimSpace(f.state) == "" {
		return domain.AddressRecord{}, missing("state")
	}
	postal := validator.Normalize(f.postalCode)
	if len(postal) != 8 {
		postal = id.Normalized
	}
	return domain.AddressRecord{
		Street:       strings.TrimSpace(f.street),
		Complement:   strings.TrimSpace(f.complement),
		Neighborhood: strings.TrimSpace(f.neighborhood),
		City:         strings.TrimSpace(f.city),
		State:        strings.ToUpper(strings.TrimSpace(f.state)),
		PostalCode:   postal,
		IBGECode:     f.ibge,
		Source:       source,
	}, nil
}

func normalizeBrasilAPICNPJ(source string, id domain.Identifier, v BrasilAPICNPJPayload) (domain.Record, error) {
	if strings.TrimSpace(v.RazaoSocial) == "" {
		return nil, missing("razao_social")
	}
	street := v.Logradouro
	if v.DescricaoTipoLogradouro != "" && !strings.HasPrefix(strings.ToUpper(street), strings.ToUpper(v.DescricaoTipoLogradouro)) {
		street = v.DescricaoTipoLogradouro + " " + street
	}
	var emails []string
	if v.Email != nil {
		emails = appendNonEmpty(emails, strings.ToLower(*v.Email))
	}
	return domain.CompanyRecord{
		CNPJ:            id.Normalized,
		LegalName:       v.RazaoSocial,
		TradeName:       v.NomeFantasia,
		Status:          v.DescricaoSituacaoCadastral,
		LegalNature:     v.NaturezaJuridica,
		PrimaryActivity: v.CNAEFiscalDescricao,
		Address: domain.CompanyAddress{
			Street:       strings.TrimSpace(street),
			Number:       v.Numero,
			Complement:   v.Complemento,
			Neighborhood: v.Bairro,
			City:         v.Municipio,
			State:        v.UF,
			PostalCode:   validator.Normalize(string(v.CEP)),
		},
		Phones:      orEmpty(appendNonEmpty(nil, validator.Normalize(v.DDDTelefone1), validator.Normalize(v.DDDTelefone2))),
		Emails:      orEmpty(emails),
		FoundedDate: v.DataInicioAtividade,
		Source:      source,
	}, nil
}

func normalizeReceitaWS(source string, id domain.Identifier, v ReceitaWSPayload) (domain.Record, error) {
	if strings.TrimSpace(v.Nome) == "" {
		return nil, missing("nome")
	}
	var activity string
	if len(v.AtividadePrimaria) > 0 {
		activity = v.AtividadePrimaria[0].Text
	}
	var phones []string
	for _, p := range strings.Split(v.Telefone, "/") {
		phones = appendNonEmpty(phones, validator.Normalize(p))
	}
	return domain.CompanyRecord{
		CNPJ:            id.Normalized,
		LegalName:       v.Nome,
		TradeName:       v.Fantasia,
		Status:          v.Situacao,
		LegalNature:     v.NaturezaJuridica,
		PrimaryActivity: activity,
		Address: domain.CompanyAddress{
			Street:       v.Logradouro,
			Number:       v.Numero,
			Complement:   v.Complemento,
			Neighborhood: v.Bairro,
			City:         v.Municipio,
			State:        v.UF,
			PostalCode:   validator.Normalize(v.CEP),
		},
		Phones:      orEmpty(phones),
		Emails:      orEmpty(appendNonEmpty(nil, strings.ToLower(v.Email))),
		FoundedDate: isoDate(v.Abertura),
		Source:      source,
	}, nil
}

func normalizeCNPJa(source string, id domain.Identifier, v CNPJaPayload) (domain.Record, error) {
	if strings.TrimSpace(v.Company.Name) == "" {
		return nil, missing("company.name")
	}
	var phones, emails []string
	for _, p := range v.Phones {
		phones = appendNonEmpty(phones, validator.Normalize(p.Area+p.Number))
	}
	for _, e := range v.Emails {
		emails = appendNonEmpty(emails, strings.ToLower(e.Address))
	}
	return domain.CompanyRecord{
		CNPJ:            id.Normalized,
		LegalName:       v.Company.Name,
		TradeName:       v.Alias,
		Status:          v.Status.Text,
		LegalNature:     v.Company.Nature.Text,
		PrimaryActivity: v.MainActivity.Text,
		Address: domain.CompanyAddress{
			Street:       v.Address.Street,
			Number:       v.Address.Number,
			Complement:   v.Address.Details,
			Neighborhood: v.Address.District,
			City:         v.Address.City,
			State:        v.Address.State,
			PostalCode:   validator.Normalize(v.Address.Zip),
		},
		Phones:      orEmpty(phones),
		Emails:      orEmpty(emails),
		FoundedDate: v.Founded,
		Source:      source,
	}, nil
}

func normalizeDirectData(source string, id domain.Identifier, v DirectDataPayload) (domain.Record, error) {
	p := v.person()
	if p == nil || strings.TrimSpace(p.Name) == "" {
		return nil, missing("name")
	}
	var phones, emails, addresses []string
	for _, ph := range p.Phones {
		phones = appendNonEmpty(phones, validator.Normalize(ph.PhoneNumber))
	}
	for _, e := range p.Emails {
		emails = appendNonEmpty(emails, strings.ToLower(e.EmailAddress))
	}
	for _, a := range p.Addresses {
		parts := appendNonEmpty(nil, strings.TrimSpace(a.Street+" "+a.Number), a.Complement, a.Neighborhood, a.City, a.State, a.PostalCode)
		addresses = appendNonEmpty(addresses, strings.Join(parts, ", "))
	}
	return domain.PersonRecord{
		CPF:        id.Normalized,
		Name:       p.Name,
		BirthDate:  isoDate(p.DateOfBirth),
		Gender:     p.Gender,
		MotherName: p.NameMother,
		Phones:     orEmpty(phones),
		Emails:     orEmpty(emails),
		Addresses:  orEmpty(addresses),
		Source:     source,
	}, nil
}

func appendNonEmpty(dst []string, values ...string) []string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			dst = append(dst, v)
		}
	}
	return dst
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// isoDate turns dd/mm/yyyy into yyyy-mm-dd and leaves anything else alone.
func isoDate(s string) string {
	parts := strings.Split(strings.TrimSpace(s), "/")
	if len(parts) != 3 || len(parts[2]) != 4 {
		return s
	}
	n := make([]int, 3)
	for i, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil {
			return s
		}
		n[i] = v
	}
	return fmt.Sprintf("%04d-%02d-%02d", n[2], n[1], n[0])
}
