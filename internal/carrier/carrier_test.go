package carrier_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/boddenberg/br-lookup-go/internal/carrier"
	"github.com/boddenberg/br-lookup-go/internal/domain"
	"github.com/boddenberg/br-lookup-go/internal/port"
	"github.com/boddenberg/br-lookup-go/internal/provider"
)

type fakeSource struct {
	result port.CarrierLookup
	block  bool
}

func (f *fakeSource) Name() string { return "fake-registry" }

func (f *fakeSource) Lookup(ctx context.Context, phone string) port.CarrierLookup {
	if f.block {
		<-ctx.Done()
		return port.CarrierLookup{Outcome: port.CarrierError, Detail: ctx.Err().Error()}
	}
	return f.result
}

func newCascade(src port.CarrierLookupSource) *carrier.Cascade {
	return carrier.NewCascade(src, carrier.DefaultPrefixTable(), 30*time.Millisecond, zap.NewNop())
}

func TestClassifyLine(t *testing.T) {
	assert.Equal(t, domain.LineMobile, carrier.ClassifyLine("61981437533"))
	assert.Equal(t, domain.LineFixed, carrier.ClassifyLine("6133334444"))
	assert.Equal(t, domain.LineFixed, carrier.ClassifyLine("61381437533"))
	assert.Equal(t, domain.LineFixed, carrier.ClassifyLine("6198143753"))
}

func TestCascade_OfficialLookupWins(t *testing.T) {
	src := &fakeSource{result: port.CarrierLookup{Outcome: port.CarrierFound, Carrier: "Claro"}}

	rec := newCascade(src).Resolve(context.Background(), "11987654321")

	require.NotNil(t, rec.CarrierName)
	assert.Equal(t, "Claro", *rec.CarrierName)
	assert.Equal(t, domain.ConfidenceHigh, rec.Confidence)
	assert.Equal(t, domain.EvidenceOfficialLookup, rec.EvidenceSource)
	assert.Equal(t, "11", rec.DDD)
	assert.Equal(t, "987654321", rec.SubscriberNumber)
	assert.Equal(t, domain.LineMobile, rec.LineType)
}

func TestCascade_TimeoutFallsToHeuristic(t *testing.T) {
	src := &fakeSource{block: true}

	rec := newCascade(src).Resolve(context.Background(), "61981437533")

	require.NotNil(t, rec.CarrierName)
	assert.Equal(t, "Vivo", *rec.CarrierName)
	assert.Equal(t, domain.ConfidenceVeryLow, rec.Confidence)
	assert.Equal(t, domain.EvidenceDigitHeuristic, rec.EvidenceSource)
	assert.Contains(t, rec.Notes, "timed out")
	assert.Contains(t, rec.Notes, "weakest signal")
}

func TestCascade_InconclusiveUsesPrefixTable(t *testing.T) {
	src := &fakeSource{result: port.CarrierLookup{Outcome: port.CarrierInconclusive}}

	rec := newCascade(src).Resolve(context.Background(), "11912345678")

	require.NotNil(t, rec.CarrierName)
	assert.Equal(t, "Claro", *rec.CarrierName)
	assert.Equal(t, domain.ConfidenceLow, rec.Confidence)
	assert.Equal(t, domain.EvidencePrefixTable, rec.EvidenceSource)
}

func TestCascade_FoundWithoutNameIsNotAccepted(t *testing.T) {
	src := &fakeSource{result: port.CarrierLookup{Outcome: port.CarrierFound}}

	rec := newCascade(src).Resolve(context.Background(), "11987654321")

	assert.NotEqual(t, domain.EvidenceOfficialLookup, rec.EvidenceSource)
	assert.Equal(t, domain.ConfidenceLow, rec.Confidence)
}

func TestCascade_NoTierAnswers(t *testing.T) {
	src := &fakeSource{result: port.CarrierLookup{Outcome: port.CarrierError, Detail: "unreachable"}}

	rec := newCascade(src).Resolve(context.Background(), "6101234567")

	assert.Nil(t, rec.CarrierName)
	assert.Equal(t, domain.ConfidenceError, rec.Confidence)
	assert.Equal(t, domain.EvidenceNone, rec.EvidenceSource)
	assert.Equal(t, domain.LineFixed, rec.LineType)
	assert.Contains(t, rec.Notes, "unreachable")
}

func TestCascade_NilSource(t *testing.T) {
	rec := carrier.NewCascade(nil, nil, 0, nil).Resolve(context.Background(), "11987654321")

	assert.Equal(t, domain.EvidenceDigitHeuristic, rec.EvidenceSource)
	assert.Contains(t, rec.Notes, "official lookup unavailable")
}

func TestCascade_Monotonicity(t *testing.T) {
	phones := []string{"11987654321", "61981437533", "2133334444", "8591234567", "4101234567", "71961234567"}
	outcomes := []port.CarrierLookup{
		{Outcome: port.CarrierInconclusive},
		{Outcome: port.CarrierError},
	}
	for _, phone := range phones {
		for _, out := range outcomes {
			rec := newCascade(&fakeSource{result: out}).Resolve(context.Background(), phone)

			assert.LessOrEqual(t, rec.Confidence.Rank(), domain.ConfidenceLow.Rank(), phone)
			switch rec.EvidenceSource {
			case domain.EvidencePrefixTable:
				assert.Equal(t, domain.ConfidenceLow, rec.Confidence)
			case domain.EvidenceDigitHeuristic:
				assert.Equal(t, domain.ConfidenceVeryLow, rec.Confidence)
			case domain.EvidenceNone:
				assert.Equal(t, domain.ConfidenceError, rec.Confidence)
				assert.Nil(t, rec.CarrierName)
			default:
				t.Fatalf("unexpected evidence %s for %s", rec.EvidenceSource, phone)
			}
		}
	}
}

func TestDigitHeuristic(t *testing.T) {
	cases := map[string]string{"6": "Vivo", "7": "Vivo", "8": "Vivo", "9": "Vivo", "1": "TIM", "2": "TIM", "3": "Claro", "4": "Claro", "5": "Oi"}
	for digit, want := range cases {
		got, ok := carrier.DigitHeuristic(digit + "1234567")
		assert.True(t, ok)
		assert.Equal(t, want, got, digit)
	}
	_, ok := carrier.DigitHeuristic("01234567")
	assert.False(t, ok)
}

func TestPrefixTable_DefaultHasNoDDD61(t *testing.T) {
	table := carrier.DefaultPrefixTable()
	_, ok := table.Lookup("61", "981437533")
	assert.False(t, ok)

	name, ok := table.Lookup("11", "981437533")
	assert.True(t, ok)
	assert.Equal(t, "Vivo", name)
}

func TestParseCarrier(t *testing.T) {
	page := []byte(`<html><head><script>var x = "Prestadora Claro";</script><style>.tim{}</style></head>
		<body><nav>Vivo Claro TIM Oi</nav>
		<table><tr><th>Número</th><td>(61) 98143-7533</td></tr>
		<tr><th>Prestadora:</th><td>TELEFÔNICA BRASIL S.A.</td></tr></table></body></html>`)
	assert.Equal(t, "Vivo", carrier.ParseCarrier(page))

	assert.Equal(t, "TIM", carrier.ParseCarrier([]byte(`<p>Prestadora: TIM S.A.</p>`)))
	assert.Equal(t, "", carrier.ParseCarrier([]byte(`<p>Vivo Claro TIM Oi</p><p>Número não encontrado</p>`)))
}

func TestABRSource(t *testing.T) {
	var form map[string][]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		form = r.PostForm
		fmt.Fprint(w, `<div>Prestadora: CLARO S.A.</div>`)
	}))
	defer srv.Close()

	f := provider.NewHTTPFetcher(nil, time.Second, nil, nil, nil)
	res := carrier.NewABRSource(f, srv.URL).Lookup(context.Background(), "11987654321")

	assert.Equal(t, port.CarrierFound, res.Outcome)
	assert.Equal(t, "Claro", res.Carrier)
	assert.Equal(t, []string{"11987654321"}, form["numeroTelefone"])
}

func TestABRSource_ErrorAndInconclusive(t *testing.T) {
	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer down.Close()
	empty := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body>Consulta indisponível</body></html>`)
	}))
	defer empty.Close()

	f := provider.NewHTTPFetcher(nil, time.Second, nil, nil, nil)
	assert.Equal(t, port.CarrierError, carrier.NewABRSource(f, down.URL).Lookup(context.Background(), "11987654321").Outcome)
	assert.Equal(t, port.CarrierInconclusive, carrier.NewABRSource(f, empty.URL).Lookup(context.Background(), "11987654321").Outcome)
}
