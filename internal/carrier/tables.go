package carrier

import "github.com/boddenberg/br-lookup-go/internal/domain"

// ClassifyLine tells mobile from fixed: an 11-digit number whose subscriber
// part starts with 9 is mobile, everything else is fixed.
func ClassifyLine(phone string) domain.LineType {
	if len(phone) == 11 && phone[2] == '9' {
		return domain.LineMobile
	}
	return domain.LineFixed
}

// Split separates the area code from the subscriber number.
func Split(phone string) (ddd, subscriber string) {
	if len(phone) < 2 {
		return phone, ""
	}
	return phone[:2], phone[2:]
}

// PrefixTable maps DDD -> two-digit subscriber prefix -> carrier name.
// Entries reflect historical series allocation and are stale under
// portability.
type PrefixTable map[string]map[string]string

// Lookup returns the carrier for the subscriber's two-digit prefix in ddd.
func (t PrefixTable) Lookup(ddd, subscriber string) (string, bool) {
	if len(subscriber) < 2 {
		return "", false
	}
	series, ok := t[ddd]
	if !ok {
		return "", false
	}
	name, ok := series[subscriber[:2]]
	return name, ok && name != ""
}

// mobileSeries is the classic allocation of mobile series in the large
// metropolitan areas before the ninth digit was added.
var mobileSeries = map[string]string{
	"96": "Vivo", "97": "Vivo", "98": "Vivo", "99": "Vivo",
	"91": "Claro", "92": "Claro", "93": "Claro", "94": "Claro",
	"81": "TIM", "82": "TIM", "83": "TIM", "84": "TIM", "85": "TIM", "86": "TIM", "87": "TIM",
	"80": "Oi", "88": "Oi", "89": "Oi",
}

// DefaultPrefixDDDs are the area codes the built-in table covers.
var DefaultPrefixDDDs = []string{"11", "21", "31", "41", "51", "71", "81", "85"}

// DefaultPrefixTable returns a fresh copy of the built-in table.
func DefaultPrefixTable() PrefixTable {
	t := make(PrefixTable, len(DefaultPrefixDDDs))
	for _, ddd := range DefaultPrefixDDDs {
		series := make(map[string]string, len(mobileSeries))
		for k, v := range mobileSeries {
			series[k] = v
		}
		t[ddd] = series
	}
	return t
}

// DigitHeuristic guesses a carrier from the first subscriber digit. It is the
// weakest signal in the cascade and carries no real attribution value.
func DigitHeuristic(subscriber string) (string, bool) {
	if subscriber == "" {
		return "", false
	}
	switch subscriber[0] {
	case '6', '7', '8', '9':
		return "Vivo", true
	case '1', '2':
		return "TIM", true
	case '3', '4':
		return "Claro", true
	case '5':
		return "Oi", true
	}
	return "", false
}
