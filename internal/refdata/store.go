package refdata

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Mapping file names inside the mappings directory.
const (
	CarrierMappingFile    = "carrier_mapping.json"
	BrokerMappingFile     = "broker_mapping.json"
	PolicyTypeMappingFile = "policy_type_mapping.json"
	ExclusionMappingFile  = "exclusion_mapping.json"
)

// Store loads and saves reference data under a mappings directory.
type Store struct {
	Dir string
}

// NewStore creates a store rooted at the given mappings directory.
func NewStore(dir string) *Store {
	return &Store{Dir: dir}
}

type exclusionFile struct {
	NonPolicyTypes    []string `json:"non_policy_types"`
	NonCarrierEntries []string `json:"non_carrier_entries"`
}

// Load reads all mapping files and exclusion sets. A structurally missing
// mapping file fails the whole run: mapping absence cannot be defaulted
// without risking wrong carrier or policy-type classification.
func (s *Store) Load() (*ReferenceMaps, error) {
	carriers, err := s.loadMapping(CarrierMappingFile)
	if err != nil {
		return nil, err
	}
	brokers, err := s.loadMapping(BrokerMappingFile)
	if err != nil {
		return nil, err
	}
	policyTypes, err := s.loadMapping(PolicyTypeMappingFile)
	if err != nil {
		return nil, err
	}

	var exclusions exclusionFile
	if err := s.loadJSON(ExclusionMappingFile, &exclusions); err != nil {
		return nil, err
	}

	maps := &ReferenceMaps{
		Carriers:    carriers,
		Brokers:     brokers,
		PolicyTypes: policyTypes,
		Exclusions: ExclusionSets{
			NonPolicyTypes:    toSet(exclusions.NonPolicyTypes),
			NonCarrierEntries: toSet(exclusions.NonCarrierEntries),
		},
	}

	log.WithFields(map[string]interface{}{
		"brokers":      len(maps.Brokers),
		"carriers":     len(maps.Carriers),
		"policy_types": len(maps.PolicyTypes),
	}).Info("Loaded reference mappings")

	return maps, nil
}

func (s *Store) loadMapping(filename string) (map[string]string, error) {
	var mapping map[string]string
	if err := s.loadJSON(filename, &mapping); err != nil {
		return nil, err
	}
	return mapping, nil
}

func (s *Store) loadJSON(filename string, out interface{}) error {
	path := filepath.Join(s.Dir, filename)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("mapping file %s not found", path)
		}
		return fmt.Errorf("error reading mapping file %s: %w", path, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("error parsing mapping file %s: %w", path, err)
	}
	return nil
}

func toSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}
