package models

import (
	"encoding/json"
	"time"
)

// DateLayoutISO is the canonical date format used in reports and API payloads.
const DateLayoutISO = "2006-01-02"

// Date is a calendar date without a time component. It marshals to an empty
// string when unset so CSV reports and JSON payloads stay clean.
type Date struct {
	time.Time
}

// NewDate creates a Date from year, month and day.
func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates a time.Time to its calendar date.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

// Today returns the current calendar date in UTC.
func Today() Date {
	return DateOf(time.Now().UTC())
}

// AddYears returns the date shifted by the given number of years.
func (d Date) AddYears(years int) Date {
	return Date{d.AddDate(years, 0, 0)}
}

// String formats the date as YYYY-MM-DD, or "" when unset.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayoutISO)
}

// MarshalCSV implements the gocsv marshaller.
func (d Date) MarshalCSV() (string, error) {
	return d.String(), nil
}

// UnmarshalCSV implements the gocsv unmarshaller.
func (d *Date) UnmarshalCSV(value string) error {
	if value == "" {
		*d = Date{}
		return nil
	}
	t, err := time.Parse(DateLayoutISO, value)
	if err != nil {
		return err
	}
	*d = DateOf(t)
	return nil
}

// MarshalJSON implements json.Marshaler.
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	return d.UnmarshalCSV(s)
}
