package refdata

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// UnmatchedValuesFile is the persisted unmapped-value ledger inside the
// mappings directory.
const UnmatchedValuesFile = "unmatched_values.json"

// Ledger is the persisted form of the unmapped-value sets, one sorted list
// per kind.
type Ledger struct {
	Carriers    []string `json:"carriers"`
	PolicyTypes []string `json:"policy_types"`
	Brokers     []string `json:"brokers"`
}

// Tracker accumulates cleaned values that failed resolution during a run.
// Values are deduplicated per kind; recording the same value twice is a
// no-op.
type Tracker struct {
	mu     sync.Mutex
	values map[Kind]map[string]bool
}

// NewTracker creates an empty unmapped-value tracker.
func NewTracker() *Tracker {
	return &Tracker{
		values: map[Kind]map[string]bool{
			KindCarrier:    {},
			KindBroker:     {},
			KindPolicyType: {},
		},
	}
}

// Record adds a cleaned value to the per-run set for its kind. Empty values
// are ignored.
func (t *Tracker) Record(kind Kind, cleaned string) {
	if cleaned == "" {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if set, ok := t.values[kind]; ok && !set[cleaned] {
		set[cleaned] = true
		log.WithFields(map[string]interface{}{
			"kind":  string(kind),
			"value": cleaned,
		}).Debug("Recorded unmapped value")
	}
}

// Values returns the sorted per-run values for a kind.
func (t *Tracker) Values(kind Kind) []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return sortedKeys(t.values[kind])
}

// MergeAndPersist unions the per-run sets with the prior ledger at path,
// drops values that have since gained a mapping entry, sorts each list and
// writes the result back. Running twice on identical input produces an
// identical file.
func (t *Tracker) MergeAndPersist(path string, maps *ReferenceMaps) (*Ledger, error) {
	prior := &Ledger{}
	if data, err := os.ReadFile(path); err == nil {
		if err := json.Unmarshal(data, prior); err != nil {
			return nil, fmt.Errorf("error parsing unmatched values file %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("error reading unmatched values file %s: %w", path, err)
	}

	t.mu.Lock()
	merged := &Ledger{
		Carriers:    mergeKind(prior.Carriers, t.values[KindCarrier], maps.Carriers),
		PolicyTypes: mergeKind(prior.PolicyTypes, t.values[KindPolicyType], maps.PolicyTypes),
		Brokers:     mergeKind(prior.Brokers, t.values[KindBroker], maps.Brokers),
	}
	t.mu.Unlock()

	data, err := json.MarshalIndent(merged, "", "    ")
	if err != nil {
		return nil, fmt.Errorf("error marshaling unmatched values: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, fmt.Errorf("error creating mappings directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return nil, fmt.Errorf("error writing unmatched values file: %w", err)
	}

	log.WithFields(map[string]interface{}{
		"carriers":     len(merged.Carriers),
		"policy_types": len(merged.PolicyTypes),
		"brokers":      len(merged.Brokers),
	}).Info("Updated unmatched values ledger")

	return merged, nil
}

// mergeKind unions prior and current values, dropping empties and values
// that now resolve through the mapping table.
func mergeKind(prior []string, current map[string]bool, mapping map[string]string) []string {
	union := make(map[string]bool, len(prior)+len(current))
	for _, v := range prior {
		union[v] = true
	}
	for v := range current {
		union[v] = true
	}
	for v := range union {
		if v == "" {
			delete(union, v)
			continue
		}
		if _, mapped := mapping[v]; mapped {
			delete(union, v)
		}
	}
	return sortedKeys(union)
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
