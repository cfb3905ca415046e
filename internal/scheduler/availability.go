// Package scheduler holds the pure calendar rules for meeting-room booking:
// half-hour slot generation, operating-hours filtering, week navigation and
// the mapping of existing reservations onto a day.
package scheduler

import (
	"fmt"
	"strings"
	"time"
)

const (
	// SlotDuration is the length of one bookable slot.
	SlotDuration = 30 * time.Minute
	// DateLayout is the calendar-date format used in slot keys.
	DateLayout = "2006-01-02"
	// TimeLayout is the zero-padded 24h time-of-day format of slot starts.
	TimeLayout = "15:04"
)

// allSlots holds the 48 half-hour starts of a day, computed once.
var allSlots = buildSlots()

func buildSlots() []string {
	slots := make([]string, 0, 48)
	for minutes := 0; minutes < 24*60; minutes += 30 {
		slots = append(slots, fmt.Sprintf("%02d:%02d", minutes/60, minutes%60))
	}
	return slots
}

// AllSlots returns a copy of every half-hour start from 00:00 to 23:30.
func AllSlots() []string {
	out := make([]string, len(allSlots))
	copy(out, allSlots)
	return out
}

// IsSlot reports whether value is one of the half-hour starts.
func IsSlot(value string) bool {
	for _, slot := range allSlots {
		if slot == value {
			return true
		}
	}
	return false
}

// Hours is a room's operating configuration.
type Hours struct {
	Start         string
	End           string
	WorksSaturday bool
	WorksSunday   bool
}

// OpensOn reports whether a room with these hours operates on the date's weekday.
func (h Hours) OpensOn(date time.Time) bool {
	switch date.Weekday() {
	case time.Saturday:
		return h.WorksSaturday
	case time.Sunday:
		return h.WorksSunday
	default:
		return true
	}
}

// AvailableSlots returns the ordered slot starts of a room for a date. Closed
// weekend days yield nil. Comparison is lexical, which is valid for
// zero-padded HH:MM values.
func AvailableSlots(hours Hours, date time.Time) []string {
	if !hours.OpensOn(date) {
		return nil
	}
	var slots []string
	for _, slot := range allSlots {
		if slot >= hours.Start && slot < hours.End {
			slots = append(slots, slot)
		}
	}
	return slots
}

// SlotKey builds the deterministic appointment identity {roomId}_{date}_{HH-MM}.
func SlotKey(roomID, date, slot string) string {
	return roomID + "_" + date + "_" + strings.ReplaceAll(slot, ":", "-")
}

// ParseDate parses a calendar date in the given location.
func ParseDate(value string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	return time.ParseInLocation(DateLayout, strings.TrimSpace(value), loc)
}

// SlotStart returns the instant a slot begins on the given calendar date.
func SlotStart(date time.Time, slot string) (time.Time, error) {
	clock, err := time.Parse(TimeLayout, slot)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid slot %q: %w", slot, err)
	}
	return time.Date(date.Year(), date.Month(), date.Day(), clock.Hour(), clock.Minute(), 0, 0, date.Location()), nil
}

// IsPast reports whether the slot has ended relative to now. The date is
// interpreted in now's location.
func IsPast(date time.Time, slot string, now time.Time) bool {
	local := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, now.Location())
	start, err := SlotStart(local, slot)
	if err != nil {
		return true
	}
	return !start.Add(SlotDuration).After(now)
}
