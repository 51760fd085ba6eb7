package domain

import (
	"encoding/json"
	"fmt"
)

// Record is the canonical, provider-agnostic result of a resolution. Records
// are built only by a normalizer from a successful provider result and are
// treated as immutable afterwards: caches and resolvers replace them wholesale.
type Record interface {
	RecordKind() Kind
	Origin() string
}

// ============================================================
// CEP
// ============================================================

// Coordinates is an optional geo-point attached by providers that have it.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// AddressRecord is the canonical answer for a CEP.
type AddressRecord struct {
	Street       string       `json:"street"`
	Complement   string       `json:"complement,omitempty"`
	Neighborhood string       `json:"neighborhood"`
	City         string       `json:"city"`
	State        string       `json:"state"`
	PostalCode   string       `json:"postal_code"`
	IBGECode     string       `json:"ibge_code,omitempty"`
	Coordinates  *Coordinates `json:"coordinates,omitempty"`
	Source       string       `json:"source"`
}

func (r AddressRecord) RecordKind() Kind { return KindCEP }
func (r AddressRecord) Origin() string   { return r.Source }

// ============================================================
// CNPJ
// ============================================================

// CompanyAddress carries the AddressRecord-like fields embedded in a company.
type CompanyAddress struct {
	Street       string `json:"street"`
	Number       string `json:"number,omitempty"`
	Complement   string `json:"complement,omitempty"`
	Neighborhood string `json:"neighborhood"`
	City         string `json:"city"`
	State        string `json:"state"`
	PostalCode   string `json:"postal_code"`
}

// CompanyRecord is the canonical answer for a CNPJ.
type CompanyRecord struct {
	CNPJ            string         `json:"cnpj"`
	LegalName       string         `json:"legal_name"`
	TradeName       string         `json:"trade_name"`
	Status          string         `json:"status"`
	LegalNature     string         `json:"legal_nature"`
	PrimaryActivity string         `json:"primary_activity"`
	Address         CompanyAddress `json:"address"`
	Phones          []string       `json:"phones"`
	Emails          []string       `json:"emails"`
	FoundedDate     string         `json:"founded_date"`
	Source          string         `json:"source"`
}

func (r CompanyRecord) RecordKind() Kind { return KindCNPJ }
func (r CompanyRecord) Origin() string   { return r.Source }

// ============================================================
// DDD
// ============================================================

// RegionRecord is the canonical answer for a DDD.
type RegionRecord struct {
	DDD    string   `json:"ddd"`
	State  string   `json:"state"`
	Cities []string `json:"cities"`
	Source string   `json:"source"`
}

func (r RegionRecord) RecordKind() Kind { return KindDDD }
func (r RegionRecord) Origin() string   { return r.Source }

// ============================================================
// CPF
// ============================================================

// PersonRecord is the canonical answer for a CPF. Only commercial data
// vendors can produce it.
type PersonRecord struct {
	CPF        string   `json:"cpf"`
	Name       string   `json:"name"`
	BirthDate  string   `json:"birth_date,omitempty"`
	Gender     string   `json:"gender,omitempty"`
	MotherName string   `json:"mother_name,omitempty"`
	Phones     []string `json:"phones"`
	Emails     []string `json:"emails"`
	Addresses  []string `json:"addresses"`
	Source     string   `json:"source"`
}

func (r PersonRecord) RecordKind() Kind { return KindCPF }
func (r PersonRecord) Origin() string   { return r.Source }

// ============================================================
// Banks
// ============================================================

// BankRecord is the canonical answer for a COMPE bank code.
type BankRecord struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	FullName string `json:"full_name"`
	ISPB     string `json:"ispb"`
	Source   string `json:"source"`
}

func (r BankRecord) RecordKind() Kind { return KindBank }
func (r BankRecord) Origin() string   { return r.Source }

// ============================================================
// Phone / carrier
// ============================================================

// LineType classifies a phone number.
type LineType string

const (
	LineMobile LineType = "mobile"
	LineFixed  LineType = "fixed"
)

// Confidence is the self-reported reliability of a carrier guess.
type Confidence string

const (
	ConfidenceHigh    Confidence = "high"
	ConfidenceMedium  Confidence = "medium"
	ConfidenceLow     Confidence = "low"
	ConfidenceVeryLow Confidence = "very_low"
	ConfidenceError   Confidence = "error"
)

// Rank orders confidences; higher is more reliable.
func (c Confidence) Rank() int {
	switch c {
	case ConfidenceHigh:
		return 4
	case ConfidenceMedium:
		return 3
	case ConfidenceLow:
		return 2
	case ConfidenceVeryLow:
		return 1
	}
	return 0
}

// EvidenceSource names the cascade tier that produced a carrier guess.
type EvidenceSource string

const (
	EvidenceOfficialLookup EvidenceSource = "official_lookup"
	EvidencePrefixTable    EvidenceSource = "regional_prefix_table"
	EvidenceDigitHeuristic EvidenceSource = "digit_heuristic"
	EvidenceNone           EvidenceSource = "none"
)

// CarrierRecord is the canonical answer for a phone number. An unknown
// carrier is a legitimate record (CarrierName nil, ConfidenceError).
type CarrierRecord struct {
	Phone            string         `json:"phone"`
	DDD              string         `json:"ddd"`
	SubscriberNumber string         `json:"subscriber_number"`
	LineType         LineType       `json:"line_type"`
	CarrierName      *string        `json:"carrier_name"`
	Confidence       Confidence     `json:"confidence"`
	EvidenceSource   EvidenceSource `json:"evidence_source"`
	Notes            string         `json:"notes"`
	Region           *RegionRecord  `json:"region,omitempty"`
}

func (r CarrierRecord) RecordKind() Kind { return KindPhone }
func (r CarrierRecord) Origin() string   { return string(r.EvidenceSource) }

// DecodeRecord rebuilds a record of the given kind from its JSON form. It is
// used by cache backends that serialize records.
func DecodeRecord(kind Kind, data []byte) (Record, error) {
	switch kind {
	case KindCEP:
		var r AddressRecord
		err := json.Unmarshal(data, &r)
		return r, err
	case KindCNPJ:
		var r CompanyRecord
		err := json.Unmarshal(data, &r)
		return r, err
	case KindDDD:
		var r RegionRecord
		err := json.Unmarshal(data, &r)
		return r, err
	case KindCPF:
		var r PersonRecord
		err := json.Unmarshal(data, &r)
		return r, err
	case KindBank:
		var r BankRecord
		err := json.Unmarshal(data, &r)
		return r, err
	case KindPhone:
		var r CarrierRecord
		err := json.Unmarshal(data, &r)
		return r, err
	}
	return nil, fmt.Errorf("decode record: unknown kind %q", kind)
}
