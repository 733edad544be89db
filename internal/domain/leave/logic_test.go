package leave

import (
	"testing"
	"time"
)

func TestDaysRequested(t *testing.T) {
	day := func(d int) time.Time {
		return time.Date(2026, 4, d, 0, 0, 0, 0, time.UTC)
	}

	tests := []struct {
		name       string
		start, end time.Time
		want       int
	}{
		{"single day", day(6), day(6), 1},
		{"full week", day(6), day(12), 7},
		{"two days", day(6), day(7), 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DaysRequested(tt.start, tt.end); got != tt.want {
				t.Fatalf("DaysRequested(%v, %v) = %d, want %d", tt.start, tt.end, got, tt.want)
			}
		})
	}
}

func TestNewBalanceAllowsNegativeRemaining(t *testing.T) {
	b := NewBalance("Annual Leave", 21, 25)
	if b.Remaining != -4 {
		t.Fatalf("remaining should not be clamped, got %d", b.Remaining)
	}
}

func TestCountByStatus(t *testing.T) {
	requests := []RequestWithEmployee{
		{Request: Request{Status: StatusPending}},
		{Request: Request{Status: StatusPending}},
		{Request: Request{Status: StatusApproved}},
		{Request: Request{Status: StatusDenied}},
	}
	pending, approved, denied := CountByStatus(requests)
	if pending != 2 || approved != 1 || denied != 1 {
		t.Fatalf("got pending=%d approved=%d denied=%d", pending, approved, denied)
	}
}

func TestValidType(t *testing.T) {
	for _, lt := range []string{TypeAnnual, TypeSick, TypeUnpaid, TypeOther} {
		if !ValidType(lt) {
			t.Fatalf("expected %q to be valid", lt)
		}
	}
	if ValidType("sabbatical") {
		t.Fatal("expected unknown type to be invalid")
	}
}
