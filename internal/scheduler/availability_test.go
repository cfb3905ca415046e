package scheduler

import (
	"testing"
	"time"
)

func date(t *testing.T, value string) time.Time {
	t.Helper()
	d, err := ParseDate(value, time.UTC)
	if err != nil {
		t.Fatalf("failed to parse %q: %v", value, err)
	}
	return d
}

func TestAllSlots(t *testing.T) {
	slots := AllSlots()
	if len(slots) != 48 {
		t.Fatalf("expected 48 slots, got %d", len(slots))
	}
	if slots[0] != "00:00" || slots[1] != "00:30" || slots[47] != "23:30" {
		t.Fatalf("unexpected slot boundaries: %s, %s, %s", slots[0], slots[1], slots[47])
	}

	slots[0] = "mutated"
	if AllSlots()[0] != "00:00" {
		t.Fatal("expected AllSlots to return a copy")
	}
}

func TestAvailableSlots(t *testing.T) {
	weekdays := Hours{Start: "08:00", End: "18:00"}

	t.Run("weekday within operating hours", func(t *testing.T) {
		slots := AvailableSlots(weekdays, date(t, "2024-06-10"))
		if len(slots) != 20 {
			t.Fatalf("expected 20 slots, got %d", len(slots))
		}
		if slots[0] != "08:00" || slots[len(slots)-1] != "17:30" {
			t.Fatalf("unexpected range %s..%s", slots[0], slots[len(slots)-1])
		}
		for _, slot := range slots {
			if slot < weekdays.Start || slot >= weekdays.End {
				t.Fatalf("slot %s outside operating hours", slot)
			}
		}
	})

	t.Run("closed on weekends without flags", func(t *testing.T) {
		for _, day := range []string{"2024-06-08", "2024-06-09"} {
			if slots := AvailableSlots(weekdays, date(t, day)); len(slots) != 0 {
				t.Fatalf("expected no slots on %s, got %v", day, slots)
			}
		}
	})

	t.Run("saturday flag opens saturday only", func(t *testing.T) {
		hours := Hours{Start: "09:00", End: "12:00", WorksSaturday: true}
		if slots := AvailableSlots(hours, date(t, "2024-06-08")); len(slots) != 6 {
			t.Fatalf("expected 6 saturday slots, got %v", slots)
		}
		if slots := AvailableSlots(hours, date(t, "2024-06-09")); len(slots) != 0 {
			t.Fatalf("expected sunday closed, got %v", slots)
		}
	})

	t.Run("end bound is exclusive and unaligned bounds filter lexically", func(t *testing.T) {
		hours := Hours{Start: "07:15", End: "08:30"}
		slots := AvailableSlots(hours, date(t, "2024-06-11"))
		want := []string{"07:30", "08:00"}
		if len(slots) != len(want) {
			t.Fatalf("expected %v, got %v", want, slots)
		}
		for i := range want {
			if slots[i] != want[i] {
				t.Fatalf("expected %v, got %v", want, slots)
			}
		}
	})
}

func TestSlotKey(t *testing.T) {
	if got := SlotKey("roomA", "2024-06-10", "09:00"); got != "roomA_2024-06-10_09-00" {
		t.Fatalf("unexpected key %q", got)
	}
}

func TestIsPast(t *testing.T) {
	loc := time.FixedZone("BRT", -3*60*60)
	day := time.Date(2024, time.June, 10, 0, 0, 0, 0, loc)

	tests := map[string]struct {
		slot string
		now  time.Time
		want bool
	}{
		"slot still running":     {slot: "09:00", now: time.Date(2024, 6, 10, 9, 29, 0, 0, loc), want: false},
		"slot ended exactly now": {slot: "09:00", now: time.Date(2024, 6, 10, 9, 30, 0, 0, loc), want: true},
		"future slot":            {slot: "10:00", now: time.Date(2024, 6, 10, 9, 30, 0, 0, loc), want: false},
		"previous day":           {slot: "23:30", now: time.Date(2024, 6, 11, 0, 0, 0, 0, loc), want: true},
		"malformed slot is past": {slot: "9h", now: time.Date(2024, 6, 9, 0, 0, 0, 0, loc), want: true},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			if got := IsPast(day, tc.slot, tc.now); got != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}
