package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// FormatAmount renders the absolute value of an amount the way the account
// holder sees it in a notification: dollar sign, thousands separators, and
// cents only when the amount is fractional ("$1,200", "$75.50"). The exact
// string matters: legacy pending-authentication notifications are correlated
// by this text during supersession.
func FormatAmount(amount decimal.Decimal) string {
	fixed := amount.Abs().StringFixed(2)
	fixed = strings.TrimSuffix(fixed, ".00")

	intPart := fixed
	fracPart := ""
	if i := strings.IndexByte(fixed, '.'); i >= 0 {
		intPart, fracPart = fixed[:i], fixed[i:]
	}

	var b strings.Builder
	b.WriteByte('$')
	for i, digit := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(digit)
	}
	b.WriteString(fracPart)
	return b.String()
}
