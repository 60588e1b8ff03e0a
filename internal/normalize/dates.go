package normalize

import (
	"fmt"
	"time"

	"github.com/grijalva10/insurance-policy-migration/internal/models"
)

// Date format constants for the layouts seen across source files.
const (
	DateLayoutISO       = "2006-01-02"
	DateLayoutFull      = "2006-01-02 15:04:05"
	DateLayoutUS        = "01/02/2006"
	DateLayoutUSShort   = "01/02/06"
	DateLayoutWithMonth = "2-Jan-2006"
	DateLayoutMonthShort = "2-Jan-06"
)

// dateFormats is tried in priority order; the first successful parse wins.
var dateFormats = []string{
	DateLayoutISO,
	DateLayoutFull,
	DateLayoutUS,
	DateLayoutUSShort,
	DateLayoutWithMonth,
	DateLayoutMonthShort,
}

// ParseDate attempts to parse a date string using the known source formats.
// No format matching means the record is excluded downstream rather than the
// date being guessed, so failure is an error, not a default.
func ParseDate(raw string) (models.Date, error) {
	cleaned := collapseWhitespace(raw)
	if cleaned == "" {
		return models.Date{}, fmt.Errorf("empty date string")
	}

	for _, format := range dateFormats {
		if t, err := time.Parse(format, cleaned); err == nil {
			return models.DateOf(t), nil
		}
	}

	log.WithField("value", raw).Debug("Failed to parse date")
	return models.Date{}, fmt.Errorf("unable to parse date: %s", raw)
}
