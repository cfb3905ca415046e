package scheduler

import "time"

// WeekDays returns the seven dates of the week that starts on the most
// recent Monday on or before today, shifted by offset weeks.
func WeekDays(today time.Time, offset int) []time.Time {
	daysSinceMonday := (int(today.Weekday()) + 6) % 7
	monday := time.Date(today.Year(), today.Month(), today.Day()-daysSinceMonday+7*offset, 0, 0, 0, 0, today.Location())

	days := make([]time.Time, 7)
	for i := range days {
		days[i] = monday.AddDate(0, 0, i)
	}
	return days
}
