package compliance

import (
	"testing"
	"time"
)

func TestCompletionRate(t *testing.T) {
	tests := []struct {
		name      string
		submitted int
		total     int
		want      int
	}{
		{"no employees", 5, 0, 0},
		{"nobody submitted", 0, 10, 0},
		{"half", 5, 10, 50},
		{"rounds up", 1, 3, 33},
		{"rounds to nearest", 2, 3, 67},
		{"everyone", 10, 10, 100},
		{"more submissions than active employees", 12, 10, 100},
		{"negative total", 1, -1, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CompletionRate(tt.submitted, tt.total); got != tt.want {
				t.Fatalf("CompletionRate(%d, %d) = %d, want %d", tt.submitted, tt.total, got, tt.want)
			}
		})
	}
}

func TestDueUrgency(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		due  time.Time
		want string
	}{
		{"overdue", now.AddDate(0, 0, -2), UrgencyOverdue},
		{"today", now, UrgencyUrgent},
		{"three days out", now.AddDate(0, 0, 3), UrgencyUrgent},
		{"five days out", now.AddDate(0, 0, 5), UrgencySoon},
		{"seven days out", now.AddDate(0, 0, 7), UrgencySoon},
		{"two weeks out", now.AddDate(0, 0, 14), UrgencyUpcoming},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DueUrgency(tt.due, now); got != tt.want {
				t.Fatalf("DueUrgency(%v) = %q, want %q", tt.due, got, tt.want)
			}
		})
	}
}

func TestDisplayName(t *testing.T) {
	if got := DisplayName(FormEEA1); got != "EEA1 Form" {
		t.Fatalf("got %q", got)
	}
	if got := DisplayName("something_else"); got != "something_else" {
		t.Fatalf("unknown types should pass through, got %q", got)
	}
}

func TestValidFormType(t *testing.T) {
	for _, ft := range []string{FormEEA1, FormDisclosureOfInterest, FormPolicyAcknowledgment, FormOther} {
		if !ValidFormType(ft) {
			t.Fatalf("expected %q to be valid", ft)
		}
	}
	if ValidFormType("w2") {
		t.Fatal("expected unknown type to be invalid")
	}
}
