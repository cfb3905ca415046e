package scheduler

import (
	"testing"
	"time"
)

func TestWeekDays(t *testing.T) {
	sp := time.FixedZone("BRT", -3*60*60)
	tests := []struct {
		name   string
		today  time.Time
		offset int
		monday string
	}{
		{name: "midweek", today: time.Date(2024, time.January, 3, 15, 0, 0, 0, sp), monday: "2024-01-01"},
		{name: "sunday belongs to the previous week", today: time.Date(2024, time.January, 7, 9, 0, 0, 0, sp), monday: "2024-01-01"},
		{name: "monday itself", today: time.Date(2024, time.January, 8, 0, 0, 0, 0, sp), monday: "2024-01-08"},
		{name: "next week", today: time.Date(2024, time.January, 3, 15, 0, 0, 0, sp), offset: 1, monday: "2024-01-08"},
		{name: "previous week across a year", today: time.Date(2024, time.January, 3, 15, 0, 0, 0, sp), offset: -1, monday: "2023-12-25"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			days := WeekDays(tt.today, tt.offset)
			if len(days) != 7 {
				t.Fatalf("expected 7 days, got %d", len(days))
			}
			if got := days[0].Format("2006-01-02"); got != tt.monday {
				t.Fatalf("expected week to start on %s, got %s", tt.monday, got)
			}
			if days[0].Weekday() != time.Monday || days[6].Weekday() != time.Sunday {
				t.Fatalf("expected Monday to Sunday, got %v to %v", days[0].Weekday(), days[6].Weekday())
			}
			if days[3].Location() != sp || days[3].Hour() != 0 {
				t.Fatalf("expected midnight in the input location, got %v", days[3])
			}
		})
	}
}
