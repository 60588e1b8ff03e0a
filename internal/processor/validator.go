package processor

import (
	"strings"

	"github.com/grijalva10/insurance-policy-migration/internal/models"
	"github.com/grijalva10/insurance-policy-migration/internal/refdata"
)

// nonPolicyTokens are policy-number values that mark a row as something
// other than a policy.
var nonPolicyTokens = map[string]bool{
	"nan":      true,
	"none":     true,
	"null":     true,
	"refunded": true,
	"voided":   true,
	"audit":    true,
}

// validate decides whether a normalized candidate may proceed. It does not
// mutate the record, but it does feed the unmapped-value ledger: a value
// with no mapping entry is worth recording even when it disqualifies the
// record.
//
// Carrier and policy type are hard gates because downstream categorization
// requires them; a broker that cannot be resolved leaves the record valid
// with an empty broker email.
func (p *Processor) validate(cand candidate) bool {
	rec := cand.record

	policyNumber := rec.PolicyNumber
	lower := strings.ToLower(policyNumber)
	if policyNumber != models.PolicyTypeEndorsement {
		if policyNumber == "" || nonPolicyTokens[lower] || strings.Contains(lower, "refund") {
			log.WithField("policy_number", policyNumber).Debug("Invalid policy number")
			return false
		}
	}

	carrierRes := p.maps.Resolve(refdata.KindCarrier, cand.cleanedCarrier)
	if carrierRes.Outcome == refdata.OutcomeUnmapped {
		p.tracker.Record(refdata.KindCarrier, cand.cleanedCarrier)
	}
	if cand.cleanedCarrier == "" || carrierRes.Outcome != refdata.OutcomeCanonical {
		log.WithFields(map[string]interface{}{
			"policy_number": policyNumber,
			"carrier":       cand.cleanedCarrier,
		}).Debug("Invalid or excluded carrier")
		return false
	}

	typeRes := p.maps.ResolvePolicyType(policyNumber, cand.cleanedPolicyType)
	if typeRes.Outcome == refdata.OutcomeUnmapped && cand.cleanedPolicyType != "" {
		p.tracker.Record(refdata.KindPolicyType, cand.cleanedPolicyType)
	}
	switch typeRes.Outcome {
	case refdata.OutcomeExcluded:
		log.WithFields(map[string]interface{}{
			"policy_number": policyNumber,
			"policy_type":   cand.cleanedPolicyType,
		}).Debug("Excluded policy type")
		return false
	case refdata.OutcomeUnmapped:
		// An empty policy type defaults to "Other" and is accepted; a
		// non-empty value that the mapping does not know is rejected.
		if cand.cleanedPolicyType != "" {
			log.WithFields(map[string]interface{}{
				"policy_number": policyNumber,
				"policy_type":   cand.cleanedPolicyType,
			}).Debug("Unmapped policy type")
			return false
		}
	}

	if cand.effFailed || cand.expFailed {
		log.WithField("policy_number", policyNumber).Debug("Missing or unparseable dates")
		return false
	}

	return true
}
