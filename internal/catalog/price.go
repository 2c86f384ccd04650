package catalog

import (
	"strings"

	"github.com/shopspring/decimal"
)

// FormatPrice renders a price as "74 990.00 ₽".
func FormatPrice(d decimal.Decimal) string {
	s := d.StringFixed(2)
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	whole, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	return sign + b.String() + "." + frac + " ₽"
}

// PriceText formats p or returns the fallback for products without a price.
func PriceText(p decimal.NullDecimal, fallback string) string {
	if !p.Valid {
		return fallback
	}
	return FormatPrice(p.Decimal)
}
