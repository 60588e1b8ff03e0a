package processor

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grijalva10/insurance-policy-migration/internal/models"
	"github.com/grijalva10/insurance-policy-migration/internal/refdata"
)

func testMaps() *refdata.ReferenceMaps {
	return &refdata.ReferenceMaps{
		Carriers: map[string]string{
			"Hartford": "Hartford Fire Insurance",
			"Acme":     "Acme Specialty",
		},
		Brokers: map[string]string{
			"John Smith": "jsmith@example.com",
		},
		PolicyTypes: map[string]string{
			"Gl": "General Liability",
		},
		Exclusions: refdata.ExclusionSets{
			NonPolicyTypes:    map[string]bool{"Fee": true},
			NonCarrierEntries: map[string]bool{"Premium Finance": true},
		},
	}
}

func testProcessor(rates map[string]decimal.Decimal) (*Processor, *refdata.Tracker) {
	tracker := refdata.NewTracker()
	return New(testMaps(), tracker, rates, decimal.NewFromInt(15)), tracker
}

func rawRow(fields map[string]string) models.RawRecord {
	return models.RawRecord{SourceFile: "test.csv", Line: 2, Fields: fields}
}

func TestProcessValidRecord(t *testing.T) {
	p, _ := testProcessor(nil)

	records := []models.RawRecord{rawRow(map[string]string{
		models.FieldPolicyNumber:  " ABC-123 ",
		models.FieldCarrier:       "The Hartford Insurance Company",
		models.FieldPolicyType:    "GL",
		models.FieldBroker:        "john SMITH",
		models.FieldInsuredName:   "Main Street Bakery",
		models.FieldEffectiveDate: "01/15/2030",
		models.FieldPremium:       "$1,500.00",
	})}

	result := p.Process(records, nil)
	require.Len(t, result.Valid, 1)
	assert.Empty(t, result.Invalid)

	rec := result.Valid[0]
	assert.Equal(t, "ABC-123", rec.PolicyNumber)
	assert.Equal(t, "Hartford Fire Insurance", rec.Carrier)
	assert.Equal(t, "General Liability", rec.PolicyType)
	assert.Equal(t, "jsmith@example.com", rec.BrokerEmail)
	assert.Equal(t, "Main Street Bakery", rec.InsuredName)
	assert.Equal(t, "2030-01-15", rec.EffectiveDate.String())
	assert.Equal(t, "2031-01-15", rec.ExpirationDate.String())
	assert.Equal(t, models.StatusActive, rec.Status)
	assert.True(t, rec.Premium.Equal(decimal.NewFromInt(1500)), "premium %s", rec.Premium)
	assert.Equal(t, "test.csv", rec.SourceFile)

	require.Len(t, result.New, 1)
	assert.Empty(t, result.Existing)
}

func TestProcessClassification(t *testing.T) {
	p, _ := testProcessor(nil)

	records := []models.RawRecord{
		rawRow(map[string]string{
			models.FieldPolicyNumber:  "EXIST-1",
			models.FieldCarrier:       "Hartford",
			models.FieldEffectiveDate: "2024-01-01",
			models.FieldPremium:       "100",
		}),
		rawRow(map[string]string{
			models.FieldPolicyNumber:  "NEW-1",
			models.FieldCarrier:       "Hartford",
			models.FieldEffectiveDate: "2024-01-01",
			models.FieldPremium:       "250",
		}),
		// No premium, no commission: valid but neither new nor existing.
		rawRow(map[string]string{
			models.FieldPolicyNumber:  "ZERO-1",
			models.FieldCarrier:       "Hartford",
			models.FieldEffectiveDate: "2024-01-01",
		}),
	}

	existing := map[string]bool{"exist-1": true}
	result := p.Process(records, existing)

	require.Len(t, result.Valid, 3)
	require.Len(t, result.Existing, 1)
	assert.Equal(t, "EXIST-1", result.Existing[0].PolicyNumber)
	require.Len(t, result.New, 1)
	assert.Equal(t, "NEW-1", result.New[0].PolicyNumber)
	assert.Equal(t, 1, result.Stats.Skipped)
}

func TestProcessNoRecordLoss(t *testing.T) {
	p, _ := testProcessor(nil)

	records := []models.RawRecord{
		rawRow(map[string]string{
			models.FieldPolicyNumber:  "DUP-1",
			models.FieldCarrier:       "Hartford",
			models.FieldEffectiveDate: "2024-01-01",
			models.FieldPremium:       "100",
		}),
		rawRow(map[string]string{
			models.FieldPolicyNumber:  "DUP-1",
			models.FieldCarrier:       "Acme",
			models.FieldEffectiveDate: "2024-06-01",
			models.FieldPremium:       "200",
		}),
		rawRow(map[string]string{
			models.FieldPolicyNumber: "refunded",
			models.FieldCarrier:      "Hartford",
		}),
	}

	result := p.Process(records, nil)

	assert.Equal(t, 3, result.Stats.Total)
	assert.Equal(t, result.Stats.Total,
		result.Stats.Valid+result.Stats.Invalid+result.Stats.Superseded)

	// The later effective date wins the duplicate.
	require.Len(t, result.Valid, 1)
	assert.Equal(t, "Acme Specialty", result.Valid[0].Carrier)
	require.Len(t, result.Superseded, 1)
	assert.Equal(t, "Hartford Fire Insurance", result.Superseded[0].Carrier)
}

func TestProcessEndorsementRow(t *testing.T) {
	p, _ := testProcessor(nil)

	records := []models.RawRecord{
		rawRow(map[string]string{
			models.FieldPolicyNumber:  "Limits Endorsement",
			models.FieldCarrier:       "Hartford",
			models.FieldPolicyType:    "GL",
			models.FieldEffectiveDate: "2024-01-01",
			models.FieldPremium:       "50",
		}),
		rawRow(map[string]string{
			models.FieldPolicyNumber:  "endorsement",
			models.FieldCarrier:       "Acme",
			models.FieldEffectiveDate: "2024-01-01",
			models.FieldPremium:       "75",
		}),
	}

	result := p.Process(records, nil)
	require.Len(t, result.Valid, 2)
	assert.Empty(t, result.Superseded)

	assert.Equal(t, "Endorsement-E1", result.Valid[0].PolicyNumber)
	assert.Equal(t, "Endorsement-E2", result.Valid[1].PolicyNumber)
	// The endorsement override beats the declared policy type.
	assert.Equal(t, models.PolicyTypeEndorsement, result.Valid[0].PolicyType)
	assert.Equal(t, models.PolicyTypeEndorsement, result.Valid[1].PolicyType)
}

func TestProcessUnmappedBrokerKeptValid(t *testing.T) {
	p, tracker := testProcessor(nil)

	records := []models.RawRecord{rawRow(map[string]string{
		models.FieldPolicyNumber:  "ABC-1",
		models.FieldCarrier:       "Hartford",
		models.FieldBroker:        "jane doe",
		models.FieldEffectiveDate: "2024-01-01",
		models.FieldPremium:       "100",
	})}

	result := p.Process(records, nil)
	require.Len(t, result.Valid, 1)
	assert.Empty(t, result.Valid[0].BrokerEmail)
	assert.Equal(t, []string{"Jane Doe"}, tracker.Values(refdata.KindBroker))
}

func TestProcessEmptyPolicyTypeDefaultsToOther(t *testing.T) {
	p, _ := testProcessor(nil)

	records := []models.RawRecord{rawRow(map[string]string{
		models.FieldPolicyNumber:  "ABC-2",
		models.FieldCarrier:       "Hartford",
		models.FieldEffectiveDate: "2024-01-01",
		models.FieldPremium:       "100",
	})}

	result := p.Process(records, nil)
	require.Len(t, result.Valid, 1)
	assert.Equal(t, models.PolicyTypeOther, result.Valid[0].PolicyType)
}
