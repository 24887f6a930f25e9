package types

import (
	"strings"

	"github.com/shopspring/decimal"
)

func init() {
	// Amounts leave the API as JSON numbers, matching what clients send.
	decimal.MarshalJSONWithoutQuotes = true
}

// Rupees returns a whole-rupee amount.
func Rupees(n int64) decimal.Decimal {
	return decimal.NewFromInt(n)
}

// AmountPlaces is the number of decimal places an amount may carry.
const AmountPlaces = 2

// MaxAmount bounds the magnitude of any stored amount, exclusive. Amounts
// are persisted with 14 digits, 2 of them after the point.
var MaxAmount = decimal.New(1, 12)

// ValidAmount reports whether d is stored without rounding: no more than
// AmountPlaces decimal places and an absolute value below MaxAmount.
func ValidAmount(d decimal.Decimal) bool {
	return d.Equal(d.Truncate(AmountPlaces)) && d.Abs().LessThan(MaxAmount)
}

// ParseAmount parses a decimal amount, tolerating Indian digit grouping
// ("5,00,000") and surrounding whitespace.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	return decimal.NewFromString(s)
}

// FormatINR renders an amount with the rupee sign, two decimals and Indian
// grouping: the last three digits, then groups of two.
func FormatINR(d decimal.Decimal) string {
	neg := d.IsNegative()
	s := d.Abs().StringFixed(2)
	whole, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	b.WriteString("₹")

	if len(whole) > 3 {
		head, tail := whole[:len(whole)-3], whole[len(whole)-3:]
		lead := len(head) % 2
		if lead > 0 {
			b.WriteString(head[:lead])
		}
		for i := lead; i < len(head); i += 2 {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(head[i : i+2])
		}
		b.WriteByte(',')
		b.WriteString(tail)
	} else {
		b.WriteString(whole)
	}

	b.WriteByte('.')
	b.WriteString(frac)
	return b.String()
}
