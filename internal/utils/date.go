// Package utils provides date conversion, file and timing helpers used by
// the ncm_client binary.
package utils

import (
	"fmt"
	"time"
)

// dateLayouts are accepted by ParseDate, most specific first.
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	time.DateOnly,
}

// FormatTimestamp renders t in UTC the way NCM filters expect
// (RFC 3339, no fractional seconds).
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// ParseDate accepts an RFC 3339 timestamp, a zone-less timestamp or a bare
// date. Zone-less values are read as UTC.
func ParseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q (want YYYY-MM-DD or RFC 3339)", s)
}
