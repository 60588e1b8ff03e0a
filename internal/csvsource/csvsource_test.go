package csvsource

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grijalva10/insurance-policy-migration/internal/models"
)

func writeCSV(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestReadFile(t *testing.T) {
	dir := t.TempDir()
	path := writeCSV(t, dir, "export.csv", `Policy Number,Charge Amount,Agent,Carrier,Date
ABC-123, $1500.00 ,John Smith,Hartford,01/15/2024
DEF-456,2000,Jane Doe,Acme,2024-02-01
`)

	records, err := ReadFile(path, DefaultColumnAliases())
	require.NoError(t, err)
	require.Len(t, records, 2)

	first := records[0]
	assert.Equal(t, "export.csv", first.SourceFile)
	assert.Equal(t, 2, first.Line)
	assert.Equal(t, "ABC-123", first.Get(models.FieldPolicyNumber))
	assert.Equal(t, "$1500.00", first.Get(models.FieldPremium))
	assert.Equal(t, "John Smith", first.Get(models.FieldBroker))
	assert.Equal(t, "Hartford", first.Get(models.FieldCarrier))
	assert.Equal(t, "01/15/2024", first.Get(models.FieldEffectiveDate))

	assert.Equal(t, 3, records[1].Line)
	assert.Equal(t, "DEF-456", records[1].Get(models.FieldPolicyNumber))
}

func TestReadFileAliasVariations(t *testing.T) {
	dir := t.TempDir()
	path := writeCSV(t, dir, "export.csv", `policy_no,premium,broker_name,insurance_company
XYZ-1,100,Jane Doe,Acme
`)

	records, err := ReadFile(path, DefaultColumnAliases())
	require.NoError(t, err)
	require.Len(t, records, 1)

	rec := records[0]
	assert.Equal(t, "XYZ-1", rec.Get(models.FieldPolicyNumber))
	assert.Equal(t, "100", rec.Get(models.FieldPremium))
	assert.Equal(t, "Jane Doe", rec.Get(models.FieldBroker))
	assert.Equal(t, "Acme", rec.Get(models.FieldCarrier))
	assert.False(t, rec.Has(models.FieldEffectiveDate))
}

func TestReadFileMissingRequiredColumn(t *testing.T) {
	dir := t.TempDir()
	path := writeCSV(t, dir, "export.csv", `Carrier,Premium
Hartford,100
`)

	_, err := ReadFile(path, DefaultColumnAliases())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing required columns")
	assert.Contains(t, err.Error(), models.FieldPolicyNumber)
}

func TestReadFileShortRows(t *testing.T) {
	dir := t.TempDir()
	path := writeCSV(t, dir, "export.csv", `Policy Number,Carrier,Premium
ABC-123,Hartford
`)

	records, err := ReadFile(path, DefaultColumnAliases())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "ABC-123", records[0].Get(models.FieldPolicyNumber))
	assert.False(t, records[0].Has(models.FieldPremium))
}

func TestReadFileEmpty(t *testing.T) {
	dir := t.TempDir()
	path := writeCSV(t, dir, "empty.csv", "")

	records, err := ReadFile(path, DefaultColumnAliases())
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestReadDir(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, dir, "b.csv", "Policy Number\nB-1\n")
	writeCSV(t, dir, "a.csv", "Policy Number\nA-1\nA-2\n")
	// Missing the required policy number column: skipped, not fatal.
	writeCSV(t, dir, "bad.csv", "Carrier\nHartford\n")

	records, err := ReadDir(dir, DefaultColumnAliases())
	require.NoError(t, err)
	require.Len(t, records, 3)

	// Files load in sorted order.
	assert.Equal(t, "a.csv", records[0].SourceFile)
	assert.Equal(t, "A-1", records[0].Get(models.FieldPolicyNumber))
	assert.Equal(t, "b.csv", records[2].SourceFile)
}

func TestReadDirNoFiles(t *testing.T) {
	records, err := ReadDir(t.TempDir(), DefaultColumnAliases())
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestLoadColumnAliases(t *testing.T) {
	t.Run("Empty path returns defaults", func(t *testing.T) {
		aliases, err := LoadColumnAliases("")
		require.NoError(t, err)
		assert.Contains(t, aliases.Required, models.FieldPolicyNumber)
	})

	t.Run("Missing file returns defaults", func(t *testing.T) {
		aliases, err := LoadColumnAliases(filepath.Join(t.TempDir(), "nope.yaml"))
		require.NoError(t, err)
		assert.Contains(t, aliases.Required, models.FieldPolicyNumber)
	})

	t.Run("Custom file overrides", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "aliases.yaml")
		content := `required:
  policy_number:
    - "pol no"
optional:
  carrier:
    - "underwriter"
`
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))

		aliases, err := LoadColumnAliases(path)
		require.NoError(t, err)
		assert.Equal(t, []string{"pol no"}, aliases.Required[models.FieldPolicyNumber])
		assert.Equal(t, []string{"underwriter"}, aliases.Optional[models.FieldCarrier])
	})

	t.Run("Malformed file is an error", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "aliases.yaml")
		require.NoError(t, os.WriteFile(path, []byte("required: [unclosed"), 0644))

		_, err := LoadColumnAliases(path)
		assert.Error(t, err)
	})
}
