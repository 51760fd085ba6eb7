package validator_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boddenberg/br-lookup-go/internal/domain"
	"github.com/boddenberg/br-lookup-go/internal/validator"
)

func TestValidate_CEP(t *testing.T) {
	tests := []struct {
		raw        string
		ok         bool
		normalized string
	}{
		{"01310-100", true, "01310100"},
		{"01310100", true, "01310100"},
		{" 01.310-100 ", true, "01310100"},
		{"0131010", false, "0131010"},
		{"013101000", false, "013101000"},
		{"", false, ""},
		{"abc", false, ""},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			res := validator.Validate(domain.KindCEP, tt.raw)
			assert.Equal(t, tt.ok, res.OK)
			assert.Equal(t, tt.normalized, res.Normalized)
			if !tt.ok {
				assert.NotEmpty(t, res.Reason)
			}
		})
	}
}

func TestValidate_CNPJ(t *testing.T) {
	res := validator.Validate(domain.KindCNPJ, "11.222.333/0001-81")
	require.True(t, res.OK, res.Reason)
	assert.Equal(t, "11222333000181", res.Normalized)

	assert.False(t, validator.Validate(domain.KindCNPJ, "11.222.333/0001-80").OK)
	assert.False(t, validator.Validate(domain.KindCNPJ, "11111111111111").OK)
	assert.False(t, validator.Validate(domain.KindCNPJ, "1122233300018").OK)
	assert.True(t, validator.Validate(domain.KindCNPJ, "33.000.167/0001-01").OK)
}

func TestValidate_CNPJCheckDigitMutation(t *testing.T) {
	valid := "11222333000181"
	for pos := 12; pos < 14; pos++ {
		for d := byte('0'); d <= '9'; d++ {
			if valid[pos] == d {
				continue
			}
			mutated := []byte(valid)
			mutated[pos] = d
			assert.False(t, validator.Validate(domain.KindCNPJ, string(mutated)).OK, string(mutated))
		}
	}
}

func TestValidate_CPF(t *testing.T) {
	res := validator.Validate(domain.KindCPF, "529.982.247-25")
	require.True(t, res.OK, res.Reason)
	assert.Equal(t, "52998224725", res.Normalized)

	assert.True(t, validator.Validate(domain.KindCPF, "123.456.789-09").OK)
	assert.False(t, validator.Validate(domain.KindCPF, "529.982.247-26").OK)
	assert.False(t, validator.Validate(domain.KindCPF, "000.000.000-00").OK)
	assert.False(t, validator.Validate(domain.KindCPF, "5299822472").OK)
}

func TestValidate_CPFCheckDigitMutation(t *testing.T) {
	valid := "52998224725"
	for pos := 9; pos < 11; pos++ {
		for d := byte('0'); d <= '9'; d++ {
			if valid[pos] == d {
				continue
			}
			mutated := []byte(valid)
			mutated[pos] = d
			assert.False(t, validator.Validate(domain.KindCPF, string(mutated)).OK, string(mutated))
		}
	}
}

func TestValidate_DDD(t *testing.T) {
	assert.Len(t, validator.DefaultDDDs, 67)

	for _, d := range validator.DefaultDDDs {
		assert.True(t, validator.Validate(domain.KindDDD, d).OK, d)
	}
	for _, d := range []string{"10", "20", "23", "25", "26", "29", "30", "36", "39", "40", "50", "52", "56", "60", "70", "72", "76", "78", "80", "90", "00"} {
		assert.False(t, validator.Validate(domain.KindDDD, d).OK, d)
	}
	assert.False(t, validator.Validate(domain.KindDDD, "011").OK)
}

func TestValidate_InjectedDDDList(t *testing.T) {
	v := validator.New([]string{"11"})
	assert.True(t, v.Validate(domain.KindDDD, "11").OK)
	assert.False(t, v.Validate(domain.KindDDD, "21").OK)
	assert.False(t, v.Validate(domain.KindPhone, "21987654321").OK)
}

func TestValidate_Phone(t *testing.T) {
	assert.True(t, validator.Validate(domain.KindPhone, "(61) 98143-7533").OK)
	assert.True(t, validator.Validate(domain.KindPhone, "1133334444").OK)
	assert.False(t, validator.Validate(domain.KindPhone, "2098765432").OK)
	assert.False(t, validator.Validate(domain.KindPhone, "987654321").OK)
	assert.False(t, validator.Validate(domain.KindPhone, "619814375330").OK)
}

func TestValidate_Bank(t *testing.T) {
	res := validator.Validate(domain.KindBank, "1")
	require.True(t, res.OK)
	assert.Equal(t, "001", res.Normalized)

	assert.Equal(t, "341", validator.Validate(domain.KindBank, "341").Normalized)
	assert.False(t, validator.Validate(domain.KindBank, "1234").OK)
	assert.False(t, validator.Validate(domain.KindBank, "0").OK)
	assert.False(t, validator.Validate(domain.KindBank, "000").OK)
}

func TestValidate_UnknownKind(t *testing.T) {
	res := validator.Validate(domain.Kind("rg"), "123")
	assert.False(t, res.OK)
	assert.Contains(t, res.Reason, "unsupported")
}

func TestNormalize_Idempotent(t *testing.T) {
	for _, raw := range []string{"01310-100", "11.222.333/0001-81", "(61) 9 8143-7533", "", "x1y2"} {
		once := validator.Normalize(raw)
		assert.Equal(t, once, validator.Normalize(once), raw)
	}
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "01310-100", validator.Format(domain.KindCEP, "01310100"))
	assert.Equal(t, "11.222.333/0001-81", validator.Format(domain.KindCNPJ, "11222333000181"))
	assert.Equal(t, "123.456.789-09", validator.Format(domain.KindCPF, "12345678909"))
	assert.Equal(t, "(11) 98765-4321", validator.Format(domain.KindPhone, "11987654321"))
	assert.Equal(t, "(11) 3333-4444", validator.Format(domain.KindPhone, "1133334444"))
	assert.Equal(t, "123", validator.Format(domain.KindCEP, "123"))
}
