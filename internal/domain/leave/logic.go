package leave

import "time"

var validTypes = map[string]struct{}{
	TypeAnnual: {},
	TypeSick:   {},
	TypeUnpaid: {},
	TypeOther:  {},
}

func ValidType(leaveType string) bool {
	_, ok := validTypes[leaveType]
	return ok
}

// DaysRequested counts calendar days in the range inclusive of both ends,
// so a single-day request is one day.
func DaysRequested(start, end time.Time) int {
	start = start.Truncate(24 * time.Hour)
	end = end.Truncate(24 * time.Hour)
	return int(end.Sub(start).Hours()/24) + 1
}

// CountByStatus tallies a set of requests for the HR summary cards.
func CountByStatus(requests []RequestWithEmployee) (pending, approved, denied int) {
	for _, r := range requests {
		switch r.Status {
		case StatusPending:
			pending++
		case StatusApproved:
			approved++
		case StatusDenied:
			denied++
		}
	}
	return pending, approved, denied
}
