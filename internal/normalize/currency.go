package normalize

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseCurrency converts a raw currency string to a decimal amount. Currency
// symbols, thousands separators and surrounding text are discarded; only
// digits, the decimal point and a leading minus survive. Unparseable or
// empty input yields zero, never an error — a diagnostic is logged instead
// so bad source data does not abort the run.
func ParseCurrency(raw string) decimal.Decimal {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero
	}

	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		switch {
		case r >= '0' && r <= '9', r == '.', r == '-':
			b.WriteRune(r)
		}
	}

	cleaned := b.String()
	if cleaned == "" {
		log.WithField("value", raw).Debug("Currency value has no numeric content")
		return decimal.Zero
	}

	amount, err := decimal.NewFromString(cleaned)
	if err != nil {
		log.WithField("value", raw).Debug("Failed to parse currency value")
		return decimal.Zero
	}
	return amount
}
