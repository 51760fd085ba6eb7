// Package validator checks format and checksum validity of Brazilian
// identifiers. Every function is pure: no I/O, no panics on malformed input.
package validator

import (
	"fmt"
	"strings"

	"github.com/boddenberg/br-lookup-go/internal/domain"
)

// DefaultDDDs is the fixed set of the 67 assigned Brazilian area codes.
var DefaultDDDs = []string{
	"11", "12", "13", "14", "15", "16", "17", "18", "19", // SP
	"21", "22", "24", // RJ
	"27", "28", // ES
	"31", "32", "33", "34", "35", "37", "38", // MG
	"41", "42", "43", "44", "45", "46", // PR
	"47", "48", "49", // SC
	"51", "53", "54", "55", // RS
	"61",       // DF
	"62", "64", // GO
	"63",       // TO
	"65", "66", // MT
	"67", // MS
	"68", // AC
	"69", // RO
	"71", "73", "74", "75", "77", // BA
	"79",       // SE
	"81", "87", // PE
	"82",       // AL
	"83",       // PB
	"84",       // RN
	"85", "88", // CE
	"86", "89", // PI
	"91", "93", "94", // PA
	"92", "97", // AM
	"95",       // RR
	"96",       // AP
	"98", "99", // MA
}

// Result is the outcome of a validation.
type Result struct {
	OK         bool
	Normalized string
	Reason     string
}

// Validator holds the injectable DDD allow-list.
type Validator struct {
	ddds map[string]struct{}
}

// New builds a validator from an allow-list. An empty list falls back to
// DefaultDDDs.
func New(ddds []string) *Validator {
	if len(ddds) == 0 {
		ddds = DefaultDDDs
	}
	set := make(map[string]struct{}, len(ddds))
	for _, d := range ddds {
		set[Normalize(d)] = struct{}{}
	}
	return &Validator{ddds: set}
}

var std = New(nil)

// Validate checks raw against the built-in allow-list.
func Validate(kind domain.Kind, raw string) Result {
	return std.Validate(kind, raw)
}

// Normalize strips everything that is not an ASCII digit. It is idempotent.
func Normalize(raw string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, raw)
}

// Validate dispatches on kind.
func (v *Validator) Validate(kind domain.Kind, raw string) Result {
	n := Normalize(raw)
	if n == "" {
		return fail(n, fmt.Sprintf("%s is empty or has no digits", kind))
	}
	switch kind {
	case domain.KindCEP:
		if len(n) != 8 {
			return fail(n, "CEP must have exactly 8 digits")
		}
	case domain.KindDDD:
		if len(n) != 2 {
			return fail(n, "DDD must have exactly 2 digits")
		}
		if !v.IsDDD(n) {
			return fail(n, fmt.Sprintf("DDD %s is not an assigned Brazilian area code", n))
		}
	case domain.KindCNPJ:
		if reason := checkCNPJ(n); reason != "" {
			return fail(n, reason)
		}
	case domain.KindCPF:
		if reason := checkCPF(n); reason != "" {
			return fail(n, reason)
		}
	case domain.KindPhone:
		if len(n) != 10 && len(n) != 11 {
			return fail(n, "phone must have 10 or 11 digits including the DDD")
		}
		if !v.IsDDD(n[:2]) {
			return fail(n, fmt.Sprintf("phone DDD %s is not an assigned Brazilian area code", n[:2]))
		}
	case domain.KindBank:
		if len(n) > 3 {
			return fail(n, "bank code must have at most 3 digits")
		}
		n = strings.Repeat("0", 3-len(n)) + n
		if n == "000" {
			return fail(n, "bank code 000 is not assigned")
		}
	default:
		return fail(n, fmt.Sprintf("unsupported identifier kind %q", kind))
	}
	return Result{OK: true, Normalized: n}
}

// IsDDD reports whether d is in the allow-list.
func (v *Validator) IsDDD(d string) bool {
	_, ok := v.ddds[d]
	return ok
}

func fail(normalized, reason string) Result {
	return Result{OK: false, Normalized: normalized, Reason: reason}
}

func allSame(s string) bool {
	return strings.Count(s, s[:1]) == len(s)
}

// checkDigit applies the modulo-11 rule shared by CPF and CNPJ.
func checkDigit(digits string, weights []int) int {
	sum := 0
	for i, w := range weights {
		sum += int(digits[i]-'0') * w
	}
	rem := sum % 11
	if rem < 2 {
		return 0
	}
	return 11 - rem
}

var (
	cnpjWeights1 = []int{5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}
	cnpjWeights2 = []int{6, 5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}
	cpfWeights1  = []int{10, 9, 8, 7, 6, 5, 4, 3, 2}
	cpfWeights2  = []int{11, 10, 9, 8, 7, 6, 5, 4, 3, 2}
)

func checkCNPJ(n string) string {
	if len(n) != 14 {
		return "CNPJ must have exactly 14 digits"
	}
	if allSame(n) {
		return "CNPJ cannot have all digits identical"
	}
	if checkDigit(n, cnpjWeights1) != int(n[12]-'0') || checkDigit(n, cnpjWeights2) != int(n[13]-'0') {
		return "CNPJ check digits do not match"
	}
	return ""
}

func checkCPF(n string) string {
	if len(n) != 11 {
		return "CPF must have exactly 11 digits"
	}
	if allSame(n) {
		return "CPF cannot have all digits identical"
	}
	if checkDigit(n, cpfWeights1) != int(n[9]-'0') || checkDigit(n, cpfWeights2) != int(n[10]-'0') {
		return "CPF check digits do not match"
	}
	return ""
}

// Format renders the usual display mask for a normalized identifier. Values
// of unexpected length are returned unchanged.
func Format(kind domain.Kind, n string) string {
	switch kind {
	case domain.KindCEP:
		if len(n) == 8 {
			return n[:5] + "-" + n[5:]
		}
	case domain.KindCNPJ:
		if len(n) == 14 {
			return fmt.Sprintf("%s.%s.%s/%s-%s", n[:2], n[2:5], n[5:8], n[8:12], n[12:])
		}
	case domain.KindCPF:
		if len(n) == 11 {
			return fmt.Sprintf("%s.%s.%s-%s", n[:3], n[3:6], n[6:9], n[9:])
		}
	case domain.KindPhone:
		switch len(n) {
		case 11:
			return fmt.Sprintf("(%s) %s-%s", n[:2], n[2:7], n[7:])
		case 10:
			return fmt.Sprintf("(%s) %s-%s", n[:2], n[2:6], n[6:])
		}
	}
	return n
}
