package carrier

import (
	"bytes"
	"context"
	"net/url"
	"strings"
	"unicode"

	"golang.org/x/net/html"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/boddenberg/br-lookup-go/internal/port"
	"github.com/boddenberg/br-lookup-go/internal/provider"
)

// DefaultABREndpoint is the public number-portability lookup page.
const DefaultABREndpoint = "https://consultanumero.abrtelecom.com.br/consultanumero/consulta/consultaSituacaoAtual"

// resultLabel precedes the carrier name on the result page.
const resultLabel = "prestadora"

// keywords maps folded tokens to carrier display names.
var keywords = map[string]string{
	"vivo":       "Vivo",
	"telefonica": "Vivo",
	"claro":      "Claro",
	"embratel":   "Claro",
	"tim":        "TIM",
	"oi":         "Oi",
	"telemar":    "Oi",
	"nextel":     "Nextel",
	"algar":      "Algar",
	"ctbc":       "Algar",
	"sercomtel":  "Sercomtel",
}

// ABRSource scrapes the ABR Telecom lookup page. Scraping is best effort:
// an unreachable page is Error, a page without a recognisable carrier after
// the result label is Inconclusive.
type ABRSource struct {
	fetcher  *provider.HTTPFetcher
	endpoint string
}

// NewABRSource creates the official lookup source.
func NewABRSource(fetcher *provider.HTTPFetcher, endpoint string) *ABRSource {
	if endpoint == "" {
		endpoint = DefaultABREndpoint
	}
	return &ABRSource{fetcher: fetcher, endpoint: endpoint}
}

func (s *ABRSource) Name() string { return "abr-telecom" }

// Lookup posts the number and parses the returned page.
func (s *ABRSource) Lookup(ctx context.Context, phone string) port.CarrierLookup {
	form := url.Values{
		"numeroTelefone": {phone},
		"codigoAcesso":   {phone},
	}
	body, failure := s.fetcher.PostForm(ctx, s.Name(), s.endpoint, form)
	if failure != nil {
		return port.CarrierLookup{Outcome: port.CarrierError, Detail: string(failure.Kind)}
	}

	if name := ParseCarrier(body); name != "" {
		return port.CarrierLookup{Outcome: port.CarrierFound, Carrier: name}
	}
	return port.CarrierLookup{Outcome: port.CarrierInconclusive, Detail: "no carrier on result page"}
}

// ParseCarrier extracts the carrier named after the result label in an HTML
// page, or "" when there is none.
func ParseCarrier(page []byte) string {
	tokens := words(fold(visibleText(page)))
	for i, tok := range tokens {
		if tok != resultLabel {
			continue
		}
		// The name follows the label within a short window.
		for _, next := range tokens[i+1 : min(i+8, len(tokens))] {
			if name, ok := keywords[next]; ok {
				return name
			}
		}
	}
	return ""
}

// visibleText concatenates text nodes outside script and style.
func visibleText(page []byte) string {
	z := html.NewTokenizer(bytes.NewReader(page))
	var b strings.Builder
	skip := 0
	for {
		switch z.Next() {
		case html.ErrorToken:
			return b.String()
		case html.StartTagToken:
			if name, _ := z.TagName(); isHidden(name) {
				skip++
			}
		case html.EndTagToken:
			if name, _ := z.TagName(); isHidden(name) && skip > 0 {
				skip--
			}
		case html.TextToken:
			if skip == 0 {
				b.Write(z.Text())
				b.WriteByte(' ')
			}
		}
	}
}

func isHidden(tag []byte) bool {
	t := string(tag)
	return t == "script" || t == "style"
}

// fold lowercases and strips diacritics so "Telefônica" matches "telefonica".
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(out)
}

func words(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
