package normalize

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var currencySymbols = regexp.MustCompile(`R\$|US\$|[€$£¥]|EUR|USD|GBP|BRL`)

// ParseAmount converts a locale-formatted amount string into a non-negative
// decimal magnitude, reporting whether the original carried a negative sign.
// Both "1.234,56" and "1234.56" resolve to 1234.56.
func ParseAmount(raw string) (decimal.Decimal, bool, error) {
	cleaned := strings.TrimSpace(raw)
	if cleaned == "" {
		return decimal.Zero, false, fmt.Errorf("empty amount")
	}

	// Accounting-style parentheses mean negative.
	negative := false
	if strings.HasPrefix(cleaned, "(") && strings.HasSuffix(cleaned, ")") {
		negative = true
		cleaned = cleaned[1 : len(cleaned)-1]
	}

	cleaned = currencySymbols.ReplaceAllString(cleaned, "")
	cleaned = strings.Join(strings.Fields(cleaned), "")

	if strings.HasPrefix(cleaned, "-") {
		negative = true
		cleaned = cleaned[1:]
	} else if strings.HasPrefix(cleaned, "+") {
		cleaned = cleaned[1:]
	}
	if strings.HasSuffix(cleaned, "-") {
		negative = true
		cleaned = cleaned[:len(cleaned)-1]
	}

	cleaned = normalizeSeparators(cleaned)

	amount, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("invalid amount %q: %w", raw, err)
	}
	if amount.IsNegative() {
		negative = true
	}

	return amount.Abs(), negative, nil
}

var thousandsOnly = regexp.MustCompile(`^\d{1,3}(\.\d{3})+$`)

// normalizeSeparators resolves "." and "," into a single decimal point.
// When both appear, the rightmost is the decimal separator. A lone "."
// followed by exactly three digits per group is a thousands separator; a
// lone "," followed by one or two digits is a decimal separator.
func normalizeSeparators(s string) string {
	dot := strings.LastIndex(s, ".")
	comma := strings.LastIndex(s, ",")

	switch {
	case dot >= 0 && comma >= 0:
		if comma > dot {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case comma >= 0:
		if strings.Count(s, ",") == 1 && len(s)-comma-1 <= 2 {
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case dot >= 0:
		if thousandsOnly.MatchString(s) {
			s = strings.ReplaceAll(s, ".", "")
		}
	}

	return s
}
