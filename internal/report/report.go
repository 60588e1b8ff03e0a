// Package report writes the classified output of a migration run: one CSV
// per bucket plus a JSON stats summary and the unmapped-value listing.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"
	"github.com/sirupsen/logrus"

	"github.com/grijalva10/insurance-policy-migration/internal/models"
	"github.com/grijalva10/insurance-policy-migration/internal/processor"
	"github.com/grijalva10/insurance-policy-migration/internal/refdata"
)

var log = logrus.New()

// SetLogger sets a custom logger for this package
func SetLogger(logger *logrus.Logger) {
	if logger != nil {
		log = logger
	}
}

// Report file names inside the reports directory.
const (
	ValidPoliciesFile      = "valid_policies.csv"
	InvalidPoliciesFile    = "invalid_policies.csv"
	SupersededPoliciesFile = "superseded_policies.csv"
	NewPoliciesFile        = "new_policies.csv"
	ExistingPoliciesFile   = "existing_policies.csv"
	StatsFile              = "processing_stats.json"
)

// Writer persists run output under a reports directory.
type Writer struct {
	Dir string
}

// NewWriter creates a report writer rooted at dir.
func NewWriter(dir string) *Writer {
	return &Writer{Dir: dir}
}

// WriteAll writes every report bucket, the stats summary and the unmapped
// ledger snapshot.
func (w *Writer) WriteAll(result *processor.Result, ledger *refdata.Ledger) error {
	if err := os.MkdirAll(w.Dir, 0750); err != nil {
		return fmt.Errorf("error creating reports directory: %w", err)
	}

	buckets := []struct {
		file    string
		records []models.PolicyRecord
	}{
		{ValidPoliciesFile, result.Valid},
		{InvalidPoliciesFile, result.Invalid},
		{SupersededPoliciesFile, result.Superseded},
		{NewPoliciesFile, result.New},
		{ExistingPoliciesFile, result.Existing},
	}
	for _, bucket := range buckets {
		if err := w.writeCSV(bucket.file, bucket.records); err != nil {
			return err
		}
	}

	return w.writeStats(result.Stats, ledger)
}

func (w *Writer) writeCSV(filename string, records []models.PolicyRecord) error {
	path := filepath.Join(w.Dir, filename)
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("error creating report file %s: %w", path, err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			log.WithError(err).Warn("Failed to close report file")
		}
	}()

	// gocsv needs a non-nil slice to emit the header row for empty buckets.
	if records == nil {
		records = []models.PolicyRecord{}
	}
	if err := gocsv.MarshalFile(&records, file); err != nil {
		return fmt.Errorf("error writing report file %s: %w", path, err)
	}

	log.WithFields(logrus.Fields{
		"file":  filename,
		"count": len(records),
	}).Info("Saved report")
	return nil
}

// runStats is the persisted stats document: bucket counts plus the full
// unmapped-value ledger after merging.
type runStats struct {
	processor.Stats
	Unmapped *refdata.Ledger `json:"unmapped"`
}

func (w *Writer) writeStats(stats processor.Stats, ledger *refdata.Ledger) error {
	path := filepath.Join(w.Dir, StatsFile)
	data, err := json.MarshalIndent(runStats{Stats: stats, Unmapped: ledger}, "", "    ")
	if err != nil {
		return fmt.Errorf("error marshaling stats: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("error writing stats file %s: %w", path, err)
	}
	log.WithField("file", StatsFile).Info("Saved processing statistics")
	return nil
}
