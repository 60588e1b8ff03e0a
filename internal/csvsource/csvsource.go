package csvsource

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/grijalva10/insurance-policy-migration/internal/models"
	"github.com/grijalva10/insurance-policy-migration/internal/normalize"
)

// ReadFile parses one CSV export into raw records. Headers are normalized
// and resolved through the alias table; the first matching variation per
// logical field wins. Files missing a required field are rejected.
//
// gocsv handles the fixed-layout report and cache files elsewhere, but input
// exports have no stable header set to bind struct tags to, so rows are read
// positionally here.
func ReadFile(path string, aliases ColumnAliases) ([]models.RawRecord, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening CSV file %s: %w", path, err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			log.WithError(err).Warn("Failed to close file")
		}
	}()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("error parsing CSV file %s: %w", path, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	columnIndex := make(map[string]int, len(rows[0]))
	for i, header := range rows[0] {
		columnIndex[normalize.NormalizeColumnName(header)] = i
	}

	fieldIndex, err := resolveFields(columnIndex, aliases)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}

	sourceFile := filepath.Base(path)
	records := make([]models.RawRecord, 0, len(rows)-1)
	for line, row := range rows[1:] {
		fields := make(map[string]string, len(fieldIndex))
		for field, idx := range fieldIndex {
			if idx < len(row) {
				fields[field] = strings.TrimSpace(row[idx])
			}
		}
		records = append(records, models.RawRecord{
			SourceFile: sourceFile,
			Line:       line + 2, // 1-based, after the header row
			Fields:     fields,
		})
	}

	log.WithFields(map[string]interface{}{
		"file":  sourceFile,
		"count": len(records),
	}).Info("Loaded records from CSV file")

	return records, nil
}

// ReadDir loads every *.csv file under dir. A file that cannot be parsed or
// is missing required columns is logged and skipped; the rest of the batch
// still loads.
func ReadDir(dir string, aliases ColumnAliases) ([]models.RawRecord, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.csv"))
	if err != nil {
		return nil, fmt.Errorf("error listing CSV files in %s: %w", dir, err)
	}
	if len(paths) == 0 {
		log.WithField("dir", dir).Warn("No CSV files found")
		return nil, nil
	}
	sort.Strings(paths)

	var all []models.RawRecord
	for _, path := range paths {
		records, err := ReadFile(path, aliases)
		if err != nil {
			log.WithError(err).WithField("file", path).Error("Skipping unreadable CSV file")
			continue
		}
		all = append(all, records...)
	}

	log.WithFields(map[string]interface{}{
		"files": len(paths),
		"count": len(all),
	}).Info("Loaded input records")

	return all, nil
}

// resolveFields maps each logical field to a column index using the first
// alias present in the file. Missing required fields fail the file.
func resolveFields(columnIndex map[string]int, aliases ColumnAliases) (map[string]int, error) {
	fieldIndex := make(map[string]int)

	var missing []string
	for field, variations := range aliases.Required {
		if idx, ok := findColumn(columnIndex, variations); ok {
			fieldIndex[field] = idx
		} else {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, fmt.Errorf("missing required columns: %s", strings.Join(missing, ", "))
	}

	for field, variations := range aliases.Optional {
		if idx, ok := findColumn(columnIndex, variations); ok {
			fieldIndex[field] = idx
		}
	}

	return fieldIndex, nil
}

func findColumn(columnIndex map[string]int, variations []string) (int, bool) {
	for _, variation := range variations {
		if idx, ok := columnIndex[normalize.NormalizeColumnName(variation)]; ok {
			return idx, true
		}
	}
	return 0, false
}
