// Package shared carries small helpers used across handlers.
package shared

import (
	"fmt"
	"time"
)

// ParseDate accepts either a bare date as submitted by <input type="date">
// or a full RFC 3339 timestamp.
func ParseDate(value string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid date %q", value)
}
