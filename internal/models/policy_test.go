package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestNonEmptyFieldCount(t *testing.T) {
	assert.Equal(t, 0, PolicyRecord{}.NonEmptyFieldCount())

	sparse := PolicyRecord{PolicyNumber: "ABC-1", Carrier: "Hartford"}
	assert.Equal(t, 2, sparse.NonEmptyFieldCount())

	full := PolicyRecord{
		PolicyNumber:     "ABC-1",
		Carrier:          "Hartford",
		PolicyType:       "General Liability",
		BrokerEmail:      "jsmith@example.com",
		InsuredName:      "Main Street Bakery",
		EffectiveDate:    NewDate(2024, time.January, 1),
		ExpirationDate:   NewDate(2025, time.January, 1),
		CancellationDate: NewDate(2024, time.June, 1),
		Premium:          decimal.NewFromInt(100),
		BrokerFeeAmount:  decimal.NewFromInt(25),
		CommissionAmount: decimal.NewFromInt(15),
		Status:           StatusCanceled,
	}
	assert.Equal(t, 12, full.NonEmptyFieldCount())

	// SourceFile is bookkeeping, not completeness.
	withSource := PolicyRecord{SourceFile: "export.csv"}
	assert.Equal(t, 0, withSource.NonEmptyFieldCount())
}
