package models

// Logical field names produced by the CSV column-alias resolution. Raw rows
// are keyed by these names regardless of how the source file labels its
// columns.
const (
	FieldPolicyNumber     = "policy_number"
	FieldEffectiveDate    = "effective_date"
	FieldExpirationDate   = "expiration_date"
	FieldCancellationDate = "cancellation_date"
	FieldBrokerFee        = "broker_fee"
	FieldCommission       = "commission"
	FieldBroker           = "broker"
	FieldPolicyType       = "policy_type"
	FieldCarrier          = "carrier"
	FieldPremium          = "premium"
	FieldInsuredName      = "insured_name"
)

// RawRecord is one parsed input row: logical field name to the raw string
// found in the source file. Any field may be absent or empty.
type RawRecord struct {
	SourceFile string
	Line       int
	Fields     map[string]string
}

// Get returns the raw value for a logical field, or "" when absent.
func (r RawRecord) Get(field string) string {
	return r.Fields[field]
}

// Has reports whether the field was present in the source row, even if empty.
func (r RawRecord) Has(field string) bool {
	_, ok := r.Fields[field]
	return ok
}
