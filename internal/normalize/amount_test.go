package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"1.234,56", "1234.56"},
		{"1234,56", "1234.56"},
		{"1234.56", "1234.56"},
		{"(123,45)", "-123.45"},
		{"R$ 10,00", "10"},
		{"US$ 99,90", "99.9"},
		{"-15,50", "-15.5"},
		{"2.000", "2"},
		{"", "0"},
		{"abc", "0"},
		{"12,34,56", "0"},
	}
	for _, tt := range tests {
		got := ParseAmount(tt.in)
		assert.Equal(t, tt.want, got.String(), "ParseAmount(%q)", tt.in)
	}
}

func TestParseAmountBothSeparators(t *testing.T) {
	// Dot is thousands, comma is decimal when both appear.
	assert.Equal(t, "1234567.89", ParseAmount("1.234.567,89").String())
}
