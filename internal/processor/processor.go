// Package processor implements the reconciliation pipeline: normalization of
// raw rows into policy records, validation against reference data, field
// derivation, duplicate resolution and new/existing classification.
package processor

import (
	"strings"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/grijalva10/insurance-policy-migration/internal/models"
	"github.com/grijalva10/insurance-policy-migration/internal/normalize"
	"github.com/grijalva10/insurance-policy-migration/internal/refdata"
)

var log = logrus.New()

// SetLogger sets a custom logger for this package
func SetLogger(logger *logrus.Logger) {
	if logger != nil {
		log = logger
	}
}

// Stats summarizes one processing run. Every parsed input record lands in
// exactly one of valid, invalid or superseded.
type Stats struct {
	Total      int `json:"total"`
	Valid      int `json:"valid"`
	Invalid    int `json:"invalid"`
	Superseded int `json:"superseded"`
	New        int `json:"new"`
	Existing   int `json:"existing"`
	Skipped    int `json:"skipped"`
}

// Result holds the classified output of a run. New and Existing are subsets
// of Valid; a valid record that is neither (no premium, not yet uploaded) is
// counted as skipped.
type Result struct {
	Valid      []models.PolicyRecord
	Invalid    []models.PolicyRecord
	Superseded []models.PolicyRecord
	New        []models.PolicyRecord
	Existing   []models.PolicyRecord
	Stats      Stats
}

// Processor runs the pipeline against one immutable set of reference data.
type Processor struct {
	maps        *refdata.ReferenceMaps
	tracker     *refdata.Tracker
	rates       map[string]decimal.Decimal
	defaultRate decimal.Decimal
	today       models.Date
}

// New creates a processor. rates maps lowercased canonical carrier names to
// commission percentages (0-100); defaultRate is applied, with a warning,
// when commission must be converted to premium for an unknown carrier.
func New(maps *refdata.ReferenceMaps, tracker *refdata.Tracker, rates map[string]decimal.Decimal, defaultRate decimal.Decimal) *Processor {
	return &Processor{
		maps:        maps,
		tracker:     tracker,
		rates:       rates,
		defaultRate: defaultRate,
		today:       models.Today(),
	}
}

// Process runs every stage over the input batch. existingKeys holds the
// lowercased policy numbers already present in the downstream system.
func (p *Processor) Process(records []models.RawRecord, existingKeys map[string]bool) *Result {
	result := &Result{Stats: Stats{Total: len(records)}}

	var valid []models.PolicyRecord
	for _, raw := range records {
		cand := p.normalizeRaw(raw)
		if !p.validate(cand) {
			result.Invalid = append(result.Invalid, cand.record)
			continue
		}
		p.resolveMappings(&cand)
		p.derive(&cand.record, cand.premiumSupplied)
		valid = append(valid, cand.record)
	}

	kept, rejected := ResolveDuplicates(valid)
	result.Valid = kept
	result.Superseded = rejected

	for _, rec := range kept {
		key := strings.ToLower(rec.PolicyNumber)
		switch {
		case existingKeys[key]:
			result.Existing = append(result.Existing, rec)
		case rec.Premium.IsPositive():
			result.New = append(result.New, rec)
		default:
			log.WithField("policy_number", rec.PolicyNumber).Debug("Valid policy skipped: not existing and premium is zero")
			result.Stats.Skipped++
		}
	}

	result.Stats.Valid = len(result.Valid)
	result.Stats.Invalid = len(result.Invalid)
	result.Stats.Superseded = len(result.Superseded)
	result.Stats.New = len(result.New)
	result.Stats.Existing = len(result.Existing)

	log.WithFields(logrus.Fields{
		"total":      result.Stats.Total,
		"valid":      result.Stats.Valid,
		"invalid":    result.Stats.Invalid,
		"superseded": result.Stats.Superseded,
		"new":        result.Stats.New,
		"existing":   result.Stats.Existing,
	}).Info("Processed policies")

	return result
}

// candidate carries a record through the pipeline together with the cleaned
// lookup values its validation and resolution depend on.
type candidate struct {
	record            models.PolicyRecord
	cleanedCarrier    string
	cleanedPolicyType string
	cleanedBroker     string
	premiumSupplied   bool
	expSupplied       bool
	expFailed         bool
	effFailed         bool
}

// normalizeRaw builds a policy record from a raw row: cleaned strings,
// parsed dates and currency amounts. Parse failures become zero values here;
// validation decides whether they disqualify the record.
func (p *Processor) normalizeRaw(raw models.RawRecord) candidate {
	cand := candidate{
		cleanedCarrier:    normalize.Clean(raw.Get(models.FieldCarrier), normalize.KindCarrier),
		cleanedPolicyType: normalize.Clean(raw.Get(models.FieldPolicyType), normalize.KindPolicyType),
		cleanedBroker:     normalize.Clean(raw.Get(models.FieldBroker), normalize.KindBroker),
	}

	policyNumber := normalize.CleanPolicyNumber(raw.Get(models.FieldPolicyNumber))
	if refdata.IsEndorsementAlias(policyNumber) {
		policyNumber = models.PolicyTypeEndorsement
	}

	cand.record = models.PolicyRecord{
		PolicyNumber:     policyNumber,
		Carrier:          cand.cleanedCarrier,
		PolicyType:       cand.cleanedPolicyType,
		InsuredName:      strings.TrimSpace(raw.Get(models.FieldInsuredName)),
		BrokerFeeAmount:  normalize.ParseCurrency(raw.Get(models.FieldBrokerFee)),
		CommissionAmount: normalize.ParseCurrency(raw.Get(models.FieldCommission)),
		SourceFile:       raw.SourceFile,
	}

	if v := raw.Get(models.FieldEffectiveDate); v != "" {
		if d, err := normalize.ParseDate(v); err == nil {
			cand.record.EffectiveDate = d
		} else {
			cand.effFailed = true
		}
	} else {
		cand.effFailed = true
	}

	if v := raw.Get(models.FieldExpirationDate); v != "" {
		cand.expSupplied = true
		if d, err := normalize.ParseDate(v); err == nil {
			cand.record.ExpirationDate = d
		} else {
			cand.expFailed = true
		}
	}

	if v := raw.Get(models.FieldCancellationDate); v != "" {
		if d, err := normalize.ParseDate(v); err == nil {
			cand.record.CancellationDate = d
		}
	}

	if v := raw.Get(models.FieldPremium); v != "" {
		cand.premiumSupplied = true
		cand.record.Premium = normalize.ParseCurrency(v)
	}

	return cand
}

// resolveMappings replaces cleaned values with canonical ones where a
// mapping exists and records every unmapped value in the ledger. Unmapped
// broker is not a validity gate: the record keeps an empty broker email.
func (p *Processor) resolveMappings(cand *candidate) {
	rec := &cand.record

	carrierRes := p.maps.Resolve(refdata.KindCarrier, cand.cleanedCarrier)
	if carrierRes.Outcome == refdata.OutcomeCanonical {
		rec.Carrier = carrierRes.Canonical
	}

	typeRes := p.maps.ResolvePolicyType(rec.PolicyNumber, cand.cleanedPolicyType)
	switch typeRes.Outcome {
	case refdata.OutcomeCanonical:
		rec.PolicyType = typeRes.Canonical
	default:
		rec.PolicyType = models.PolicyTypeOther
	}

	brokerRes := p.maps.Resolve(refdata.KindBroker, cand.cleanedBroker)
	if brokerRes.Outcome == refdata.OutcomeCanonical {
		rec.BrokerEmail = brokerRes.Canonical
	} else {
		rec.BrokerEmail = ""
		p.tracker.Record(refdata.KindBroker, cand.cleanedBroker)
	}
}
