package compliance

import (
	"math"
	"time"
)

var displayNames = map[string]string{
	FormEEA1:                 "EEA1 Form",
	FormDisclosureOfInterest: "Disclosure of Interest",
	FormPolicyAcknowledgment: "Policy Acknowledgment",
	FormOther:                "Other",
}

// DisplayName maps a stored form type to its human label. Unknown types
// fall through unchanged so old rows still render.
func DisplayName(formType string) string {
	if name, ok := displayNames[formType]; ok {
		return name
	}
	return formType
}

// ValidFormType reports whether the submission flow accepts the type.
func ValidFormType(formType string) bool {
	_, ok := displayNames[formType]
	return ok
}

// CompletionRate returns the whole-number percentage of active employees
// who have submitted. Zero employees means zero percent, never a division
// by zero, and the result is pinned to 0..100 even if the counts drift
// (an employee deactivated after submitting can push submitted past total).
func CompletionRate(submitted, totalActive int) int {
	if totalActive <= 0 {
		return 0
	}
	rate := int(math.Round(float64(submitted) / float64(totalActive) * 100))
	if rate < 0 {
		return 0
	}
	if rate > 100 {
		return 100
	}
	return rate
}

// Urgency labels for due dates.
const (
	UrgencyOverdue  = "Overdue"
	UrgencyUrgent   = "Urgent"
	UrgencySoon     = "Soon"
	UrgencyUpcoming = "Upcoming"
)

// DueUrgency buckets a due date relative to now: already past is
// Overdue, within three days is Urgent, within seven is Soon, anything
// later is Upcoming.
func DueUrgency(due, now time.Time) string {
	days := int(due.Sub(now).Hours() / 24)
	switch {
	case days < 0:
		return UrgencyOverdue
	case days <= 3:
		return UrgencyUrgent
	case days <= 7:
		return UrgencySoon
	default:
		return UrgencyUpcoming
	}
}
