package scheduler

import (
	"sort"
	"strings"
)

// Reservation is an existing booking of one slot.
type Reservation struct {
	Key     string
	Time    string
	OwnerID string
}

// Conflict reports a requested slot that is already reserved.
type Conflict struct {
	Time    string
	WithKey string
	OwnerID string
}

// DetectConflicts returns, in slot order, the requested times already held by
// an existing reservation.
func DetectConflicts(existing []Reservation, requested []string) []Conflict {
	byTime := make(map[string]Reservation, len(existing))
	for _, reservation := range existing {
		byTime[reservation.Time] = reservation
	}

	var conflicts []Conflict
	for _, slot := range NormalizeSlots(requested) {
		if reservation, ok := byTime[slot]; ok {
			conflicts = append(conflicts, Conflict{Time: slot, WithKey: reservation.Key, OwnerID: reservation.OwnerID})
		}
	}
	return conflicts
}

// NormalizeSlots removes duplicates and sorts the requested slot starts.
func NormalizeSlots(requested []string) []string {
	seen := make(map[string]bool, len(requested))
	out := make([]string, 0, len(requested))
	for _, slot := range requested {
		slot = strings.TrimSpace(slot)
		if slot == "" || seen[slot] {
			continue
		}
		seen[slot] = true
		out = append(out, slot)
	}
	sort.Strings(out)
	return out
}
