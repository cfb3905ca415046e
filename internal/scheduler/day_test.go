package scheduler

import (
	"testing"
	"time"
)

type booking struct {
	Subject string
}

func TestMapDay(t *testing.T) {
	hours := Hours{Start: "09:00", End: "11:00"}
	day := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)
	now := time.Date(2024, 6, 10, 9, 45, 0, 0, time.UTC)

	views := MapDay(hours, day, map[string]booking{
		"09:00": {Subject: "Daily"},
		"10:30": {Subject: "Review"},
		"18:00": {Subject: "Legacy"},
	}, now)

	if len(views) != 5 {
		t.Fatalf("expected 4 operating slots plus 1 closed booking, got %d", len(views))
	}

	byTime := make(map[string]SlotView[booking], len(views))
	for _, view := range views {
		byTime[view.Time] = view
	}

	if v := byTime["09:00"]; v.Booking == nil || v.Booking.Subject != "Daily" || !v.Past || v.Bookable {
		t.Fatalf("expected past booked 09:00, got %+v", v)
	}
	if v := byTime["09:30"]; v.Booking != nil || v.Past || !v.Bookable {
		t.Fatalf("expected running 09:30 slot to stay bookable, got %+v", v)
	}
	if v := byTime["10:30"]; v.Booking == nil || v.Bookable {
		t.Fatalf("expected booked 10:30 to be unavailable, got %+v", v)
	}
	if v := byTime["18:00"]; !v.Closed || v.Booking == nil || v.Bookable {
		t.Fatalf("expected booking outside hours to render closed, got %+v", v)
	}
	if views[len(views)-1].Time != "18:00" {
		t.Fatalf("expected slots in time order, got last %s", views[len(views)-1].Time)
	}
}
