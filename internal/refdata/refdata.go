// Package refdata holds the reference data a migration run resolves records
// against: the carrier, broker and policy-type mapping tables and the
// exclusion sets. The maps are loaded once at run start and treated as
// read-only by the pipeline.
package refdata

import (
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/grijalva10/insurance-policy-migration/internal/models"
)

var log = logrus.New()

// SetLogger sets a custom logger for this package
func SetLogger(logger *logrus.Logger) {
	if logger != nil {
		log = logger
	}
}

// Kind identifies one of the three independent mapping tables.
type Kind string

const (
	KindCarrier    Kind = "carrier"
	KindBroker     Kind = "broker"
	KindPolicyType Kind = "policy_type"
)

// Outcome is the result class of a reference lookup.
type Outcome string

const (
	// OutcomeCanonical means the value mapped to a canonical name.
	OutcomeCanonical Outcome = "canonical"
	// OutcomeExcluded means the value is on the exclusion list for its kind.
	OutcomeExcluded Outcome = "excluded"
	// OutcomeUnmapped means the value has no mapping entry.
	OutcomeUnmapped Outcome = "unmapped"
)

// Resolution is the outcome of resolving one cleaned value.
type Resolution struct {
	Outcome   Outcome
	Canonical string
}

// ExclusionSets short-circuit validation: a cleaned value found here is
// invalid regardless of mapping presence. Brokers have no exclusion set.
type ExclusionSets struct {
	NonPolicyTypes    map[string]bool
	NonCarrierEntries map[string]bool
}

// ReferenceMaps is the immutable reference data for one run: cleaned source
// string to canonical string, per kind, plus the exclusion sets.
type ReferenceMaps struct {
	Carriers    map[string]string
	Brokers     map[string]string
	PolicyTypes map[string]string
	Exclusions  ExclusionSets
}

// endorsementAliases are raw policy numbers that stand for an endorsement
// row rather than a real policy number.
var endorsementAliases = map[string]bool{
	"endorsement":        true,
	"endorsements":       true,
	"limits endorsement": true,
}

// IsEndorsementAlias reports whether a cleaned policy number is one of the
// known endorsement spellings that should be standardized to "Endorsement".
func IsEndorsementAlias(policyNumber string) bool {
	return endorsementAliases[strings.ToLower(policyNumber)]
}

// IsEndorsementNumber reports whether a cleaned policy number marks the row
// as an endorsement. Any "endorsement"/"endors" substring counts.
func IsEndorsementNumber(policyNumber string) bool {
	lower := strings.ToLower(policyNumber)
	return strings.Contains(lower, "endorsement") || strings.Contains(lower, "endors")
}

// Resolve looks up a cleaned value in the mapping table for the given kind.
// Empty values and values without a mapping entry are Unmapped; values on
// the kind's exclusion list are Excluded.
func (m *ReferenceMaps) Resolve(kind Kind, cleaned string) Resolution {
	if cleaned == "" {
		return Resolution{Outcome: OutcomeUnmapped}
	}

	switch kind {
	case KindCarrier:
		if m.Exclusions.NonCarrierEntries[cleaned] {
			return Resolution{Outcome: OutcomeExcluded}
		}
		if canonical, ok := m.Carriers[cleaned]; ok {
			return Resolution{Outcome: OutcomeCanonical, Canonical: canonical}
		}
	case KindPolicyType:
		if m.Exclusions.NonPolicyTypes[cleaned] {
			return Resolution{Outcome: OutcomeExcluded}
		}
		if canonical, ok := m.PolicyTypes[cleaned]; ok {
			return Resolution{Outcome: OutcomeCanonical, Canonical: canonical}
		}
	case KindBroker:
		if canonical, ok := m.Brokers[cleaned]; ok {
			return Resolution{Outcome: OutcomeCanonical, Canonical: canonical}
		}
	}

	return Resolution{Outcome: OutcomeUnmapped}
}

// ResolvePolicyType resolves a cleaned policy-type value, honoring the
// endorsement override: a policy number that marks an endorsement forces the
// canonical type regardless of what the mapping table would say.
func (m *ReferenceMaps) ResolvePolicyType(cleanedPolicyNumber, cleaned string) Resolution {
	if IsEndorsementNumber(cleanedPolicyNumber) {
		return Resolution{Outcome: OutcomeCanonical, Canonical: models.PolicyTypeEndorsement}
	}
	return m.Resolve(KindPolicyType, cleaned)
}
