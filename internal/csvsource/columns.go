// Package csvsource reads heterogeneous CSV exports into raw records. Source
// files label the same logical field many different ways, so headers are
// normalized and matched against a column-alias table loaded as data.
package csvsource

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/grijalva10/insurance-policy-migration/internal/models"
)

var log = logrus.New()

// SetLogger sets a custom logger for this package
func SetLogger(logger *logrus.Logger) {
	if logger != nil {
		log = logger
	}
}

// ColumnAliases maps logical field names to the header variations seen in
// source files. A file missing every variation of a required field is
// skipped.
type ColumnAliases struct {
	Required map[string][]string `yaml:"required"`
	Optional map[string][]string `yaml:"optional"`
}

// DefaultColumnAliases returns the built-in alias table covering the known
// source file layouts.
func DefaultColumnAliases() ColumnAliases {
	return ColumnAliases{
		Required: map[string][]string{
			models.FieldPolicyNumber: {"policy number", "policy_number", "policy", "policy_no"},
		},
		Optional: map[string][]string{
			models.FieldEffectiveDate:    {"date", "effective_date", "effective date", "start date", "policy date"},
			models.FieldExpirationDate:   {"expiration_date", "expiration date", "end date"},
			models.FieldCancellationDate: {"cancellation_date", "cancellation date", "cancel date"},
			models.FieldBrokerFee:        {"broker fee", "broker_fee", "brokerfee", "broker_fee_amount"},
			models.FieldCommission:       {"commission", "commission_amount", "comm"},
			models.FieldBroker:           {"agent", "broker", "agent_name", "broker_name"},
			models.FieldPolicyType:       {"policy type", "policy_type", "type", "policy_category"},
			models.FieldCarrier:          {"carrier", "carrier_name", "insurance_company"},
			models.FieldPremium:          {"charge amount", "premium", "amount", "policy_amount"},
			models.FieldInsuredName:      {"insured", "insured_name", "customer", "customer_name"},
		},
	}
}

// LoadColumnAliases reads an alias table from a YAML file. An empty path
// returns the built-in defaults; a present but unreadable file is an error.
func LoadColumnAliases(path string) (ColumnAliases, error) {
	if path == "" {
		return DefaultColumnAliases(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.WithField("file", path).Warn("Column alias file not found, using defaults")
			return DefaultColumnAliases(), nil
		}
		return ColumnAliases{}, fmt.Errorf("error reading column alias file %s: %w", path, err)
	}

	var aliases ColumnAliases
	if err := yaml.Unmarshal(data, &aliases); err != nil {
		return ColumnAliases{}, fmt.Errorf("error parsing column alias file %s: %w", path, err)
	}

	log.WithField("file", path).Debug("Loaded column alias table")
	return aliases, nil
}
