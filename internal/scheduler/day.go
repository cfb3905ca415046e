package scheduler

import (
	"sort"
	"time"
)

// SlotView is one rendered row of a room's day.
type SlotView[T any] struct {
	Time     string
	Booking  *T
	Past     bool
	Closed   bool
	Bookable bool
}

// MapDay lays the bookings of one room/day onto its available slots. Booked
// slots outside the current operating hours are still rendered, flagged
// Closed. Past slots are never bookable.
func MapDay[T any](hours Hours, date time.Time, booked map[string]T, now time.Time) []SlotView[T] {
	available := AvailableSlots(hours, date)
	open := make(map[string]bool, len(available))
	times := make([]string, 0, len(available)+len(booked))
	for _, slot := range available {
		open[slot] = true
		times = append(times, slot)
	}
	for slot := range booked {
		if !open[slot] {
			times = append(times, slot)
		}
	}
	sort.Strings(times)

	views := make([]SlotView[T], 0, len(times))
	for _, slot := range times {
		view := SlotView[T]{
			Time:   slot,
			Past:   IsPast(date, slot, now),
			Closed: !open[slot],
		}
		if booking, ok := booked[slot]; ok {
			b := booking
			view.Booking = &b
		}
		view.Bookable = view.Booking == nil && !view.Past && !view.Closed
		views = append(views, view)
	}
	return views
}
