package domain

import (
	"fmt"
	"strings"
)

// Kind tags the family of an identifier. It selects the validator, the
// provider chain and the canonical record shape.
type Kind string

const (
	KindCEP   Kind = "cep"
	KindCNPJ  Kind = "cnpj"
	KindCPF   Kind = "cpf"
	KindDDD   Kind = "ddd"
	KindPhone Kind = "phone"
	KindBank  Kind = "bank"
)

// Kinds lists every supported kind in a stable order.
var Kinds = []Kind{KindCEP, KindCNPJ, KindCPF, KindDDD, KindPhone, KindBank}

// ParseKind accepts the canonical names plus the Portuguese aliases used by
// the public routes ("telefone", "banco").
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "cep":
		return KindCEP, nil
	case "cnpj":
		return KindCNPJ, nil
	case "cpf":
		return KindCPF, nil
	case "ddd":
		return KindDDD, nil
	case "phone", "telefone", "fone":
		return KindPhone, nil
	case "bank", "banco", "bancos":
		return KindBank, nil
	}
	return "", &ErrValidation{Field: "kind", Message: fmt.Sprintf("unsupported identifier kind %q", s)}
}

// Identifier is a validated, normalized identifier. Normalized is computed
// once at the resolver boundary; everything downstream receives only values
// that already passed validation.
type Identifier struct {
	Kind       Kind   `json:"kind"`
	Raw        string `json:"raw"`
	Normalized string `json:"normalized"`
}

// CacheKey returns the (kind, normalized) key used by every cache backend.
func CacheKey(id Identifier) string {
	return string(id.Kind) + ":" + id.Normalized
}

func (id Identifier) String() string {
	return CacheKey(id)
}
