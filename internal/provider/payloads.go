package provider

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Payload is the closed set of provider response variants. Only types in
// this package implement it, and Normalize handles every one of them.
type Payload interface {
	payload()
}

// ============================================================
// CEP
// ============================================================

// ViaCEPPayload is the ViaCEP response. A missing CEP is reported as
// {"erro": true} with status 200.
type ViaCEPPayload struct {
	CEP         string   `json:"cep"`
	Logradouro  string   `json:"logradouro"`
	Complemento string   `json:"complemento"`
	Bairro      string   `json:"bairro"`
	Localidade  string   `json:"localidade"`
	UF          string   `json:"uf"`
	IBGE        string   `json:"ibge"`
	DDD         string   `json:"ddd"`
	Erro        flexBool `json:"erro"`
}

// OpenCEPPayload is the OpenCEP response. It mirrors the ViaCEP field names
// but is a separate source with its own failure modes.
type OpenCEPPayload struct {
	CEP         string `json:"cep"`
	Logradouro  string `json:"logradouro"`
	Complemento string `json:"complemento"`
	Bairro      string `json:"bairro"`
	Localidade  string `json:"localidade"`
	UF          string `json:"uf"`
	IBGE        string `json:"ibge"`
}

// BrasilAPICEPPayload covers BrasilAPI CEP v1 and v2. Only v2 carries location.
type BrasilAPICEPPayload struct {
	CEP          string `json:"cep"`
	State        string `json:"state"`
	City         string `json:"city"`
	Neighborhood string `json:"neighborhood"`
	Street       string `json:"street"`
	Service      string `json:"service"`
	Location     *struct {
		Type        string `json:"type"`
		Coordinates struct {
			Latitude  flexFloat `json:"latitude"`
			Longitude flexFloat `json:"longitude"`
		} `json:"coordinates"`
	} `json:"location,omitempty"`
}

// ApiCEPPayload is the ApiCEP response. ok=false means no record.
type ApiCEPPayload struct {
	Code     string `json:"code"`
	State    string `json:"state"`
	City     string `json:"city"`
	District string `json:"district"`
	Address  string `json:"address"`
	Status   int    `json:"status"`
	OK       bool   `json:"ok"`
	Message  string `json:"message"`
}

// ============================================================
// CNPJ
// ============================================================

// BrasilAPICNPJPayload is the BrasilAPI mirror of the Receita Federal registry.
type BrasilAPICNPJPayload struct {
	CNPJ                       string     `json:"cnpj"`
	RazaoSocial                string     `json:"razao_social"`
	NomeFantasia               string     `json:"nome_fantasia"`
	DescricaoSituacaoCadastral string     `json:"descricao_situacao_cadastral"`
	NaturezaJuridica           string     `json:"natureza_juridica"`
	CNAEFiscalDescricao        string     `json:"cnae_fiscal_descricao"`
	DescricaoTipoLogradouro    string     `json:"descricao_tipo_de_logradouro"`
	Logradouro                 string     `json:"logradouro"`
	Numero                     string     `json:"numero"`
	Complemento                string     `json:"complemento"`
	Bairro                     string     `json:"bairro"`
	Municipio                  string     `json:"municipio"`
	UF                         string     `json:"uf"`
	CEP                        flexString `json:"cep"`
	DDDTelefone1               string     `json:"ddd_telefone_1"`
	DDDTelefone2               string     `json:"ddd_telefone_2"`
	Email                      *string    `json:"email"`
	DataInicioAtividade        string     `json:"data_inicio_atividade"`
}

// ReceitaWSPayload is the ReceitaWS response. status "ERROR" means no record.
type ReceitaWSPayload struct {
	Status            string `json:"status"`
	Message           string `json:"message"`
	CNPJ              string `json:"cnpj"`
	Nome              string `json:"nome"`
	Fantasia          string `json:"fantasia"`
	Situacao          string `json:"situacao"`
	NaturezaJuridica  string `json:"natureza_juridica"`
	AtividadePrimaria []struct {
		Code string `json:"code"`
		Text string `json:"text"`
	} `json:"atividade_principal"`
	Logradouro  string `json:"logradouro"`
	Numero      string `json:"numero"`
	Complemento string `json:"complemento"`
	Bairro      string `json:"bairro"`
	Municipio   string `json:"municipio"`
	UF          string `json:"uf"`
	CEP         string `json:"cep"`
	Telefone    string `json:"telefone"`
	Email       string `json:"email"`
	Abertura    string `json:"abertura"`
}

// CNPJaPayload is the CNPJá open API office response.
type CNPJaPayload struct {
	TaxID   string `json:"taxId"`
	Alias   string `json:"alias"`
	Founded string `json:"founded"`
	Status  struct {
		Text string `json:"text"`
	} `json:"status"`
	Company struct {
		Name   string `json:"name"`
		Nature struct {
			Text string `json:"text"`
		} `json:"nature"`
	} `json:"company"`
	Address struct {
		Street   string `json:"street"`
		Number   string `json:"number"`
		Details  string `json:"details"`
		District string `json:"district"`
		City     string `json:"city"`
		State    string `json:"state"`
		Zip      string `json:"zip"`
	} `json:"address"`
	Phones []struct {
		Area   string `json:"area"`
		Number string `json:"number"`
	} `json:"phones"`
	Emails []struct {
		Address string `json:"address"`
	} `json:"emails"`
	MainActivity struct {
		Text string `json:"text"`
	} `json:"mainActivity"`
}

// ============================================================
// DDD
// ============================================================

// BrasilAPIDDDPayload is the BrasilAPI DDD response.
type BrasilAPIDDDPayload struct {
	State  string   `json:"state"`
	Cities []string `json:"cities"`
}

// StaticDDDPayload comes from the offline area-code table.
type StaticDDDPayload struct {
	DDD   string
	State string
}

// ============================================================
// CPF
// ============================================================

// DirectDataPayload is the DirectData registration-data response. Depending
// on the plan the record sits under data or data.retorno.
type DirectDataPayload struct {
	Success *bool  `json:"success"`
	Message string `json:"message"`
	Data    *struct {
		DirectDataPerson
		Retorno *DirectDataPerson `json:"retorno"`
	} `json:"data"`
}

// DirectDataPerson is the person block of a DirectData response.
type DirectDataPerson struct {
	Name        string `json:"name"`
	CPF         string `json:"cpf"`
	DateOfBirth string `json:"dateOfBirth"`
	Gender      string `json:"gender"`
	NameMother  string `json:"nameMother"`
	Phones      []struct {
		PhoneNumber string `json:"phoneNumber"`
	} `json:"phones"`
	Addresses []struct {
		Street       string `json:"street"`
		Number       string `json:"number"`
		Complement   string `json:"complement"`
		Neighborhood string `json:"neighborhood"`
		City         string `json:"city"`
		State        string `json:"state"`
		PostalCode   string `json:"postalCode"`
	} `json:"addresses"`
	Emails []struct {
		EmailAddress string `json:"emailAddress"`
	} `json:"emails"`
}

// person returns the populated person block, if any.
func (p DirectDataPayload) person() *DirectDataPerson {
	if p.Data == nil {
		return nil
	}
	if p.Data.Retorno != nil {
		return p.Data.Retorno
	}
	return &p.Data.DirectDataPerson
}

// ============================================================
// Banks
// ============================================================

// BrasilAPIBankPayload is the BrasilAPI banks response.
type BrasilAPIBankPayload struct {
	ISPB     string `json:"ispb"`
	Name     string `json:"name"`
	Code     *int   `json:"code"`
	FullName string `json:"fullName"`
}

func (ViaCEPPayload) payload()        {}
func (OpenCEPPayload) payload()       {}
func (BrasilAPICEPPayload) payload()  {}
func (ApiCEPPayload) payload()        {}
func (BrasilAPICNPJPayload) payload() {}
func (ReceitaWSPayload) payload()     {}
func (CNPJaPayload) payload()         {}
func (BrasilAPIDDDPayload) payload()  {}
func (StaticDDDPayload) payload()     {}
func (DirectDataPayload) payload()    {}
func (BrasilAPIBankPayload) payload() {}

// ============================================================
// Lenient JSON scalars
// ============================================================

// flexBool accepts true, "true" and null.
type flexBool bool

func (b *flexBool) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(bytes.TrimSpace(data)), `"`)
	*b = flexBool(strings.EqualFold(s, "true"))
	return nil
}

// flexString accepts a string or a bare number.
type flexString string

func (s *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*s = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = flexString(v)
		return nil
	}
	*s = flexString(data)
	return nil
}

// flexFloat accepts a number, a numeric string or an empty string.
type flexFloat struct {
	Value float64
	Valid bool
}

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(bytes.TrimSpace(data)), `"`)
	if s == "" || s == "null" {
		*f = flexFloat{}
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		*f = flexFloat{}
		return nil
	}
	*f = flexFloat{Value: v, Valid: true}
	return nil
}
