package amsclient

import (
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"
)

// Disk cache file names inside the cache directory.
const (
	carriersCacheFile = "ams_carriers.csv"
	policiesCacheFile = "ams_policies.csv"
)

// loadDiskCache fills out from a cached CSV file. A missing or corrupt cache
// is not an error, just a miss: the caller falls back to a live fetch.
func (c *Client) loadDiskCache(filename string, out interface{}) bool {
	if !c.useDiskCache || c.cacheDir == "" {
		return false
	}

	path := filepath.Join(c.cacheDir, filename)
	file, err := os.Open(path)
	if err != nil {
		return false
	}
	defer func() {
		if err := file.Close(); err != nil {
			log.WithError(err).Warn("Failed to close cache file")
		}
	}()

	if err := gocsv.UnmarshalFile(file, out); err != nil {
		log.WithError(err).WithField("file", path).Warn("Ignoring unreadable cache file")
		return false
	}
	return true
}

// saveDiskCache writes rows to a cached CSV file. Failures are logged, not
// fatal: the cache is an optimization.
func (c *Client) saveDiskCache(filename string, rows interface{}) {
	if c.cacheDir == "" {
		return
	}

	if err := os.MkdirAll(c.cacheDir, 0750); err != nil {
		log.WithError(err).Warn("Failed to create cache directory")
		return
	}

	path := filepath.Join(c.cacheDir, filename)
	file, err := os.Create(path)
	if err != nil {
		log.WithError(err).WithField("file", path).Warn("Failed to create cache file")
		return
	}
	defer func() {
		if err := file.Close(); err != nil {
			log.WithError(err).Warn("Failed to close cache file")
		}
	}()

	if err := gocsv.MarshalFile(rows, file); err != nil {
		log.WithError(err).WithField("file", path).Warn("Failed to write cache file")
	}
}
