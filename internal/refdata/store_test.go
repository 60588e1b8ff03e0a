package refdata

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeMappingFiles(t *testing.T, dir string) {
	t.Helper()
	files := map[string]string{
		CarrierMappingFile:    `{"Hartford": "Hartford Fire Insurance"}`,
		BrokerMappingFile:     `{"John Smith": "jsmith@example.com"}`,
		PolicyTypeMappingFile: `{"Gl": "General Liability"}`,
		ExclusionMappingFile:  `{"non_policy_types": ["Fee"], "non_carrier_entries": ["Finance Company"]}`,
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
	}
}

func TestStoreLoad(t *testing.T) {
	dir := t.TempDir()
	writeMappingFiles(t, dir)

	maps, err := NewStore(dir).Load()
	require.NoError(t, err)

	assert.Equal(t, "Hartford Fire Insurance", maps.Carriers["Hartford"])
	assert.Equal(t, "jsmith@example.com", maps.Brokers["John Smith"])
	assert.Equal(t, "General Liability", maps.PolicyTypes["Gl"])
	assert.True(t, maps.Exclusions.NonPolicyTypes["Fee"])
	assert.True(t, maps.Exclusions.NonCarrierEntries["Finance Company"])
}

func TestStoreLoadMissingFile(t *testing.T) {
	dir := t.TempDir()
	writeMappingFiles(t, dir)
	require.NoError(t, os.Remove(filepath.Join(dir, BrokerMappingFile)))

	_, err := NewStore(dir).Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
	assert.Contains(t, err.Error(), BrokerMappingFile)
}

func TestStoreLoadMalformedFile(t *testing.T) {
	dir := t.TempDir()
	writeMappingFiles(t, dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, CarrierMappingFile), []byte("{not json"), 0644))

	_, err := NewStore(dir).Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error parsing")
}
