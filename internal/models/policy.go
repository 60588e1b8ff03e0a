// Package models defines the core data structures shared across the
// migration pipeline: raw CSV rows, normalized policy records and the
// reference data they are resolved against.
package models

import (
	"github.com/shopspring/decimal"
)

// PolicyStatus is the lifecycle status of a policy at migration time.
type PolicyStatus string

const (
	StatusActive   PolicyStatus = "Active"
	StatusExpired  PolicyStatus = "Expired"
	StatusCanceled PolicyStatus = "Canceled"
)

// PolicyTypeEndorsement is the canonical policy type assigned to endorsement
// rows. Endorsements bypass the policy-type mapping entirely.
const PolicyTypeEndorsement = "Endorsement"

// PolicyTypeOther is the fallback category for rows whose policy type column
// is empty.
const PolicyTypeOther = "Other"

// PolicyRecord is the canonical in-flight representation of one source row
// after normalization. It is mutated by the derivation and deduplication
// stages and ends up in exactly one output bucket.
type PolicyRecord struct {
	PolicyNumber     string          `csv:"policy_number" json:"policy_number"`
	Carrier          string          `csv:"carrier" json:"carrier"`
	PolicyType       string          `csv:"policy_type" json:"policy_type"`
	BrokerEmail      string          `csv:"broker_email" json:"broker_email,omitempty"`
	InsuredName      string          `csv:"insured_name" json:"insured_name,omitempty"`
	EffectiveDate    Date            `csv:"effective_date" json:"effective_date"`
	ExpirationDate   Date            `csv:"expiration_date" json:"expiration_date"`
	CancellationDate Date            `csv:"cancellation_date" json:"cancellation_date,omitempty"`
	Premium          decimal.Decimal `csv:"premium" json:"premium"`
	BrokerFeeAmount  decimal.Decimal `csv:"broker_fee_amount" json:"broker_fee"`
	CommissionAmount decimal.Decimal `csv:"commission_amount" json:"commission_amount"`
	Status           PolicyStatus    `csv:"status" json:"status"`
	SourceFile       string          `csv:"source_file" json:"-"`
}

// NonEmptyFieldCount reports how many meaningful fields the record carries.
// It is the completeness tie-break used when two records share a policy
// number and their effective dates do not decide the conflict.
func (p PolicyRecord) NonEmptyFieldCount() int {
	count := 0
	for _, s := range []string{p.PolicyNumber, p.Carrier, p.PolicyType, p.BrokerEmail, p.InsuredName} {
		if s != "" {
			count++
		}
	}
	for _, d := range []Date{p.EffectiveDate, p.ExpirationDate, p.CancellationDate} {
		if !d.IsZero() {
			count++
		}
	}
	for _, amt := range []decimal.Decimal{p.Premium, p.BrokerFeeAmount, p.CommissionAmount} {
		if !amt.IsZero() {
			count++
		}
	}
	if p.Status != "" {
		count++
	}
	return count
}
