package normalize

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount parses a Brazilian-locale currency string. Parentheses mark
// a negative value; when both separators appear the dot is a thousands
// separator and the comma the decimal mark. Unparsable input yields zero
// so one bad cell never fails a whole statement.
func ParseAmount(s string) decimal.Decimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero
	}

	s = strings.ReplaceAll(s, "R$", "")
	s = strings.ReplaceAll(s, "US$", "")
	s = strings.ReplaceAll(s, " ", "")

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}

	hasComma := strings.Contains(s, ",")
	hasDot := strings.Contains(s, ".")
	switch {
	case hasComma && hasDot:
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	case hasComma:
		s = strings.ReplaceAll(s, ",", ".")
	}

	value, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	if negative {
		value = value.Neg()
	}
	return value
}
