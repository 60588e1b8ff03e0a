package processor

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/grijalva10/insurance-policy-migration/internal/models"
)

var oneHundred = decimal.NewFromInt(100)

// derive fills in the computed fields of a validated record: expiration
// date, status and premium.
func (p *Processor) derive(rec *models.PolicyRecord, premiumSupplied bool) {
	if rec.ExpirationDate.IsZero() {
		rec.ExpirationDate = rec.EffectiveDate.AddYears(1)
	}

	// Cancellation takes precedence over date-based expiry.
	switch {
	case !rec.CancellationDate.IsZero():
		rec.Status = models.StatusCanceled
	case rec.ExpirationDate.After(p.today.Time):
		rec.Status = models.StatusActive
	default:
		rec.Status = models.StatusExpired
	}

	rec.Premium = p.derivePremium(rec, premiumSupplied)
}

// derivePremium resolves the premium in priority order: an explicit source
// value always wins so files that already report premium are not processed
// twice, then commission divided by the carrier rate, then the default rate.
func (p *Processor) derivePremium(rec *models.PolicyRecord, premiumSupplied bool) decimal.Decimal {
	if premiumSupplied {
		return rec.Premium
	}

	if !rec.CommissionAmount.IsPositive() {
		return decimal.Zero
	}

	rate := p.rates[strings.ToLower(rec.Carrier)]
	if !rate.IsPositive() {
		rate = p.defaultRate
		log.WithFields(map[string]interface{}{
			"policy_number": rec.PolicyNumber,
			"carrier":       rec.Carrier,
			"default_rate":  rate.String(),
		}).Warn("No commission rate for carrier, using default")
	}
	if !rate.IsPositive() {
		return decimal.Zero
	}

	return rec.CommissionAmount.Div(rate.Div(oneHundred)).Round(2)
}
