package availability

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
)

// DefaultDurationMinutes is used when no appointment type resolves a
// service length.
const DefaultDurationMinutes = 30

// CalcInput carries everything the calculator needs. All collections are
// already scoped to the organization and date range; the calculator itself
// performs no I/O.
type CalcInput struct {
	StartDate time.Time
	EndDate   time.Time
	Duration  time.Duration
	Location  *time.Location

	// Now and MinAdvance implement the advance-booking cutoff: no slot may
	// start before Now+MinAdvance. A negative MinAdvance disables the
	// cutoff for historical audits.
	Now        time.Time
	MinAdvance time.Duration

	Providers    []Provider
	Schedules    []WeeklySchedule
	Exceptions   []ScheduleException
	Blocks       []ScheduleBlock
	Appointments []BookedInterval
}

// Compute produces the day-grouped open slots for the input. It is
// deterministic: identical inputs (including Now) yield identical output.
//
// Per provider and calendar day, the working window resolves as: a
// date-specific exception wins over the weekly schedule; an exception
// without explicit times falls back to the weekly window; blocks always
// restrict further. Slots step forward from the window start in Duration
// increments and are dropped when they cross the window end, start inside
// the advance cutoff, or overlap a live appointment or applicable block.
//
// Malformed "HH:MM" rows are skipped with a warning rather than failing
// the whole computation, so one bad row cannot blank out an otherwise
// healthy calendar.
func Compute(in CalcInput) Result {
	res := Result{ServerTimestamp: in.Now}

	if in.EndDate.Before(in.StartDate) {
		return res
	}
	if in.Duration <= 0 {
		in.Duration = DefaultDurationMinutes * time.Minute
	}
	loc := in.Location
	if loc == nil {
		loc = time.UTC
	}

	schedByProvider := indexSchedules(in.Schedules)
	excByProvider := indexExceptions(in.Exceptions, loc)
	cutoff := in.Now.Add(in.MinAdvance)

	start := atMidnight(in.StartDate.In(loc))
	end := atMidnight(in.EndDate.In(loc))

	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		var daySlots []Slot

		for _, p := range in.Providers {
			winStart, winEnd, ok, warn := resolveWindow(p, day, loc, schedByProvider, excByProvider)
			if warn != "" {
				res.Warnings = append(res.Warnings, warn)
			}
			if !ok {
				continue
			}

			for t := winStart; !t.Add(in.Duration).After(winEnd); t = t.Add(in.Duration) {
				slotEnd := t.Add(in.Duration)

				if in.MinAdvance >= 0 && t.Before(cutoff) {
					continue
				}
				if overlapsAppointment(in.Appointments, p.ID, t, slotEnd) {
					continue
				}
				if overlapsBlock(in.Blocks, p.ID, t, slotEnd) {
					continue
				}

				daySlots = append(daySlots, Slot{
					ProviderID:   p.ID,
					ProviderName: p.Name,
					StartTime:    t,
					EndTime:      slotEnd,
				})
			}
		}

		if len(daySlots) == 0 {
			continue
		}

		// Order by start time; stable so provider input order breaks ties.
		sort.SliceStable(daySlots, func(i, j int) bool {
			return daySlots[i].StartTime.Before(daySlots[j].StartTime)
		})

		res.Days = append(res.Days, DayAvailability{
			Date:      day.Format("2006-01-02"),
			DayName:   day.Weekday().String(),
			SlotCount: len(daySlots),
			Slots:     daySlots,
		})
		res.TotalAvailable += len(daySlots)
	}

	return res
}

// resolveWindow determines the provider's working window for one day, or
// ok=false when the provider is not bookable that day.
func resolveWindow(
	p Provider,
	day time.Time,
	loc *time.Location,
	schedules map[uuid.UUID]map[int]WeeklySchedule,
	exceptions map[uuid.UUID]map[string]ScheduleException,
) (winStart, winEnd time.Time, ok bool, warning string) {
	dateKey := day.Format("2006-01-02")

	weekly, hasWeekly := schedules[p.ID][int(day.Weekday())]

	if exc, hasExc := exceptions[p.ID][dateKey]; hasExc {
		if !exc.IsAvailable {
			return time.Time{}, time.Time{}, false, ""
		}
		if exc.StartTime != nil && exc.EndTime != nil {
			s, e, err := anchorWindow(day, *exc.StartTime, *exc.EndTime, loc)
			if err != nil {
				return time.Time{}, time.Time{}, false,
					fmt.Sprintf("provider %s: exception for %s has invalid times: %v", p.ID, dateKey, err)
			}
			return s, e, true, ""
		}
		// Available exception without explicit times: fall back to the
		// weekly window.
	} else if !hasWeekly {
		return time.Time{}, time.Time{}, false, ""
	}

	if !hasWeekly {
		return time.Time{}, time.Time{}, false, ""
	}

	s, e, err := anchorWindow(day, weekly.StartTime, weekly.EndTime, loc)
	if err != nil {
		return time.Time{}, time.Time{}, false,
			fmt.Sprintf("provider %s: schedule for %s has invalid times: %v", p.ID, day.Weekday(), err)
	}
	return s, e, true, ""
}

// indexSchedules keys active weekly rows by provider and weekday. When
// duplicate active rows exist for a weekday the earliest start time wins,
// with ID as a deterministic tie-break.
func indexSchedules(schedules []WeeklySchedule) map[uuid.UUID]map[int]WeeklySchedule {
	out := make(map[uuid.UUID]map[int]WeeklySchedule)
	for _, ws := range schedules {
		if !ws.IsActive {
			continue
		}
		byDay, ok := out[ws.ProviderID]
		if !ok {
			byDay = make(map[int]WeeklySchedule)
			out[ws.ProviderID] = byDay
		}
		if cur, exists := byDay[ws.DayOfWeek]; exists {
			if cur.StartTime < ws.StartTime {
				continue
			}
			if cur.StartTime == ws.StartTime && cur.ID.String() <= ws.ID.String() {
				continue
			}
		}
		byDay[ws.DayOfWeek] = ws
	}
	return out
}

func indexExceptions(exceptions []ScheduleException, loc *time.Location) map[uuid.UUID]map[string]ScheduleException {
	out := make(map[uuid.UUID]map[string]ScheduleException)
	for _, exc := range exceptions {
		byDate, ok := out[exc.ProviderID]
		if !ok {
			byDate = make(map[string]ScheduleException)
			out[exc.ProviderID] = byDate
		}
		byDate[exc.Date.In(loc).Format("2006-01-02")] = exc
	}
	return out
}

// anchorWindow converts "HH:MM" wall-clock strings to instants on the given
// day in the practice timezone.
func anchorWindow(day time.Time, startHHMM, endHHMM string, loc *time.Location) (time.Time, time.Time, error) {
	sh, sm, err := parseHHMM(startHHMM)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	eh, em, err := parseHHMM(endHHMM)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}

	start := time.Date(day.Year(), day.Month(), day.Day(), sh, sm, 0, 0, loc)
	end := time.Date(day.Year(), day.Month(), day.Day(), eh, em, 0, 0, loc)
	if !end.After(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("window end %q is not after start %q", endHHMM, startHHMM)
	}
	return start, end, nil
}

func parseHHMM(s string) (hour, minute int, err error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, 0, fmt.Errorf("malformed time %q", s)
	}
	return t.Hour(), t.Minute(), nil
}

// Overlaps reports whether [aStart, aEnd) intersects [bStart, bEnd).
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

func overlapsAppointment(appointments []BookedInterval, providerID uuid.UUID, slotStart, slotEnd time.Time) bool {
	for _, a := range appointments {
		if a.ProviderID != providerID || !a.Occupies() {
			continue
		}
		if Overlaps(a.StartTime, a.EndTime, slotStart, slotEnd) {
			return true
		}
	}
	return false
}

func overlapsBlock(blocks []ScheduleBlock, providerID uuid.UUID, slotStart, slotEnd time.Time) bool {
	for _, b := range blocks {
		if b.ProviderID != nil && *b.ProviderID != providerID {
			continue
		}
		if Overlaps(b.StartTime, b.EndTime, slotStart, slotEnd) {
			return true
		}
	}
	return false
}

func atMidnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
