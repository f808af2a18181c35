package progress

import (
	"sort"
	"time"
)

// computeStreaks walks activity timestamps as calendar days in the
// practice's timezone. The current streak counts back from today; a streak
// that ended yesterday still counts as current so patients are not
// penalized before the day is over.
func computeStreaks(activities []*Activity, now time.Time, loc *time.Location) streakStats {
	stats := streakStats{TotalActivities: len(activities)}
	if len(activities) == 0 {
		return stats
	}

	seen := make(map[string]bool, len(activities))
	var days []time.Time
	for _, a := range activities {
		t := a.OccurredAt.In(loc)
		day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
		key := day.Format("2006-01-02")
		if !seen[key] {
			seen[key] = true
			days = append(days, day)
		}
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	// AddDate instead of 24h arithmetic keeps DST transition days intact.
	consecutive := func(a, b time.Time) bool {
		return a.AddDate(0, 0, 1).Equal(b)
	}

	longest, run := 1, 1
	for i := 1; i < len(days); i++ {
		if consecutive(days[i-1], days[i]) {
			run++
		} else {
			run = 1
		}
		if run > longest {
			longest = run
		}
	}
	stats.LongestStreak = longest

	today := time.Date(now.In(loc).Year(), now.In(loc).Month(), now.In(loc).Day(), 0, 0, 0, 0, loc)
	last := days[len(days)-1]
	if last.Equal(today) || consecutive(last, today) {
		// Trailing run ending today or yesterday.
		current := 1
		for i := len(days) - 1; i > 0; i-- {
			if !consecutive(days[i-1], days[i]) {
				break
			}
			current++
		}
		stats.CurrentStreak = current
	}
	return stats
}
