package availability

import (
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"
)

var (
	provID  = uuid.MustParse("11111111-1111-1111-1111-111111111111")
	prov2ID = uuid.MustParse("22222222-2222-2222-2222-222222222222")
)

// monday is 2026-03-09, a Monday.
var monday = time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)

func baseInput() CalcInput {
	return CalcInput{
		StartDate: monday,
		EndDate:   monday,
		Duration:  30 * time.Minute,
		Location:  time.UTC,
		// Far in the past so the advance cutoff never interferes unless a
		// test sets it explicitly.
		Now:        monday.AddDate(-1, 0, 0),
		MinAdvance: time.Hour,
		Providers:  []Provider{{ID: provID, Name: "Dr. Reyes", Active: true}},
		Schedules: []WeeklySchedule{
			{ID: uuid.New(), ProviderID: provID, DayOfWeek: 1, StartTime: "09:00", EndTime: "12:00", IsActive: true},
		},
	}
}

func slotTimes(day DayAvailability) []string {
	var out []string
	for _, s := range day.Slots {
		out = append(out, s.StartTime.Format("15:04")+"-"+s.EndTime.Format("15:04"))
	}
	return out
}

func TestCompute_OpenMonday(t *testing.T) {
	res := Compute(baseInput())

	if len(res.Days) != 1 {
		t.Fatalf("expected 1 day, got %d", len(res.Days))
	}
	day := res.Days[0]
	if day.Date != "2026-03-09" || day.DayName != "Monday" {
		t.Errorf("unexpected day header: %s %s", day.Date, day.DayName)
	}
	if day.SlotCount != 6 || res.TotalAvailable != 6 {
		t.Fatalf("expected 6 slots, got %d (total %d)", day.SlotCount, res.TotalAvailable)
	}

	want := []string{"09:00-09:30", "09:30-10:00", "10:00-10:30", "10:30-11:00", "11:00-11:30", "11:30-12:00"}
	if got := slotTimes(day); !reflect.DeepEqual(got, want) {
		t.Errorf("slots = %v, want %v", got, want)
	}

	for _, s := range day.Slots {
		if s.ProviderID != provID || s.ProviderName != "Dr. Reyes" {
			t.Errorf("slot has wrong provider: %+v", s)
		}
		if s.EndTime.Sub(s.StartTime) != 30*time.Minute {
			t.Errorf("slot duration != 30m: %+v", s)
		}
	}
}

func TestCompute_ExistingAppointmentRemovesSlot(t *testing.T) {
	in := baseInput()
	in.Appointments = []BookedInterval{
		{ProviderID: provID, StartTime: monday.Add(10 * time.Hour), EndTime: monday.Add(10*time.Hour + 30*time.Minute), Status: "scheduled"},
	}

	res := Compute(in)
	if res.TotalAvailable != 5 {
		t.Fatalf("expected 5 slots, got %d", res.TotalAvailable)
	}
	for _, s := range res.Days[0].Slots {
		if s.StartTime.Format("15:04") == "10:00" {
			t.Error("10:00 slot should be occupied")
		}
	}
}

func TestCompute_CancelledAppointmentDoesNotBlock(t *testing.T) {
	in := baseInput()
	in.Appointments = []BookedInterval{
		{ProviderID: provID, StartTime: monday.Add(10 * time.Hour), EndTime: monday.Add(10*time.Hour + 30*time.Minute), Status: "cancelled"},
		{ProviderID: provID, StartTime: monday.Add(11 * time.Hour), EndTime: monday.Add(11*time.Hour + 30*time.Minute), Status: "no_show"},
	}

	res := Compute(in)
	if res.TotalAvailable != 6 {
		t.Errorf("cancelled and no_show must not occupy time, got %d slots", res.TotalAvailable)
	}
}

func TestCompute_OrgWideBlock(t *testing.T) {
	in := baseInput()
	in.Blocks = []ScheduleBlock{
		{ID: uuid.New(), ProviderID: nil, StartTime: monday.Add(11 * time.Hour), EndTime: monday.Add(12 * time.Hour)},
	}

	res := Compute(in)
	if res.TotalAvailable != 4 {
		t.Fatalf("expected 4 slots before org-wide block, got %d", res.TotalAvailable)
	}
	last := res.Days[0].Slots[3]
	if last.EndTime.Format("15:04") != "11:00" {
		t.Errorf("last slot should end at 11:00, got %s", last.EndTime.Format("15:04"))
	}
}

func TestCompute_ProviderBlockOnlyAffectsThatProvider(t *testing.T) {
	in := baseInput()
	in.Providers = append(in.Providers, Provider{ID: prov2ID, Name: "Dr. Okafor", Active: true})
	in.Schedules = append(in.Schedules, WeeklySchedule{
		ID: uuid.New(), ProviderID: prov2ID, DayOfWeek: 1, StartTime: "09:00", EndTime: "12:00", IsActive: true,
	})
	in.Blocks = []ScheduleBlock{
		{ID: uuid.New(), ProviderID: &provID, StartTime: monday.Add(9 * time.Hour), EndTime: monday.Add(12 * time.Hour)},
	}

	res := Compute(in)
	if res.TotalAvailable != 6 {
		t.Fatalf("expected 6 slots for the unblocked provider, got %d", res.TotalAvailable)
	}
	for _, s := range res.Days[0].Slots {
		if s.ProviderID != prov2ID {
			t.Errorf("blocked provider leaked a slot: %+v", s)
		}
	}
}

func TestCompute_ExceptionUnavailableWinsOverSchedule(t *testing.T) {
	in := baseInput()
	in.Exceptions = []ScheduleException{
		{ID: uuid.New(), ProviderID: provID, Date: monday, IsAvailable: false},
	}

	res := Compute(in)
	if len(res.Days) != 0 || res.TotalAvailable != 0 {
		t.Errorf("expected no slots on an unavailable exception day, got %+v", res)
	}
}

func TestCompute_ExceptionReplacementWindow(t *testing.T) {
	in := baseInput()
	start, end := "14:00", "15:00"
	in.Exceptions = []ScheduleException{
		{ID: uuid.New(), ProviderID: provID, Date: monday, IsAvailable: true, StartTime: &start, EndTime: &end},
	}

	res := Compute(in)
	if res.TotalAvailable != 2 {
		t.Fatalf("expected 2 slots in replacement window, got %d", res.TotalAvailable)
	}
	want := []string{"14:00-14:30", "14:30-15:00"}
	if got := slotTimes(res.Days[0]); !reflect.DeepEqual(got, want) {
		t.Errorf("slots = %v, want %v", got, want)
	}
}

func TestCompute_ExceptionAvailableWithoutTimesFallsBackToWeekly(t *testing.T) {
	in := baseInput()
	in.Exceptions = []ScheduleException{
		{ID: uuid.New(), ProviderID: provID, Date: monday, IsAvailable: true},
	}

	res := Compute(in)
	if res.TotalAvailable != 6 {
		t.Errorf("expected weekly window to apply, got %d slots", res.TotalAvailable)
	}
}

func TestCompute_NoScheduleNoException(t *testing.T) {
	in := baseInput()
	in.StartDate = monday.AddDate(0, 0, 1) // Tuesday, no schedule row
	in.EndDate = in.StartDate

	res := Compute(in)
	if len(res.Days) != 0 {
		t.Errorf("expected no days without a working window, got %+v", res.Days)
	}
}

func TestCompute_EndBeforeStartIsEmpty(t *testing.T) {
	in := baseInput()
	in.EndDate = monday.AddDate(0, 0, -1)

	res := Compute(in)
	if len(res.Days) != 0 || res.TotalAvailable != 0 {
		t.Errorf("expected empty result for inverted range, got %+v", res)
	}
}

func TestCompute_AdvanceCutoff(t *testing.T) {
	in := baseInput()
	// Now is 09:15 on the query day with a 60 minute lead time: slots
	// before 10:15 are gone, so 10:30 is the first offered start.
	in.Now = monday.Add(9*time.Hour + 15*time.Minute)
	in.MinAdvance = time.Hour

	res := Compute(in)
	if res.TotalAvailable != 3 {
		t.Fatalf("expected 3 bookable slots after cutoff, got %d", res.TotalAvailable)
	}
	if first := res.Days[0].Slots[0].StartTime.Format("15:04"); first != "10:30" {
		t.Errorf("first slot should be 10:30, got %s", first)
	}
}

func TestCompute_NegativeMinAdvanceDisablesCutoff(t *testing.T) {
	in := baseInput()
	in.Now = monday.AddDate(1, 0, 0) // well past the queried day
	in.MinAdvance = -1

	res := Compute(in)
	if res.TotalAvailable != 6 {
		t.Errorf("expected historical audit to see all 6 slots, got %d", res.TotalAvailable)
	}
}

func TestCompute_MalformedScheduleSkippedWithWarning(t *testing.T) {
	in := baseInput()
	in.Providers = append(in.Providers, Provider{ID: prov2ID, Name: "Dr. Okafor", Active: true})
	in.Schedules = append(in.Schedules, WeeklySchedule{
		ID: uuid.New(), ProviderID: prov2ID, DayOfWeek: 1, StartTime: "9am", EndTime: "noon", IsActive: true,
	})

	res := Compute(in)
	if res.TotalAvailable != 6 {
		t.Errorf("healthy provider should still get 6 slots, got %d", res.TotalAvailable)
	}
	if len(res.Warnings) == 0 {
		t.Error("expected a data-quality warning for the malformed row")
	}
}

func TestCompute_DefaultDuration(t *testing.T) {
	in := baseInput()
	in.Duration = 0

	res := Compute(in)
	if res.TotalAvailable != 6 {
		t.Errorf("expected default 30m duration to yield 6 slots, got %d", res.TotalAvailable)
	}
}

func TestCompute_PartialSlotNotEmitted(t *testing.T) {
	in := baseInput()
	in.Duration = 45 * time.Minute

	// 09:00-12:00 fits 4 whole 45m slots; the 12:00 boundary excludes a fifth.
	res := Compute(in)
	if res.TotalAvailable != 4 {
		t.Fatalf("expected 4 slots of 45m, got %d", res.TotalAvailable)
	}
	last := res.Days[0].Slots[3]
	if last.EndTime.Format("15:04") != "12:00" {
		t.Errorf("last slot must end inside the window, got %s", last.EndTime.Format("15:04"))
	}
}

func TestCompute_DuplicateWeeklyRowsEarliestWins(t *testing.T) {
	in := baseInput()
	in.Schedules = append(in.Schedules, WeeklySchedule{
		ID: uuid.New(), ProviderID: provID, DayOfWeek: 1, StartTime: "08:00", EndTime: "10:00", IsActive: true,
	})

	res := Compute(in)
	if res.TotalAvailable != 4 {
		t.Fatalf("expected the earliest-start row to win (08:00-10:00, 4 slots), got %d", res.TotalAvailable)
	}
	if first := res.Days[0].Slots[0].StartTime.Format("15:04"); first != "08:00" {
		t.Errorf("expected first slot at 08:00, got %s", first)
	}
}

func TestCompute_InactiveScheduleIgnored(t *testing.T) {
	in := baseInput()
	in.Schedules[0].IsActive = false

	res := Compute(in)
	if len(res.Days) != 0 {
		t.Errorf("inactive schedule rows must not produce slots, got %+v", res.Days)
	}
}

func TestCompute_Idempotent(t *testing.T) {
	in := baseInput()
	in.Appointments = []BookedInterval{
		{ProviderID: provID, StartTime: monday.Add(10 * time.Hour), EndTime: monday.Add(10*time.Hour + 30*time.Minute), Status: "scheduled"},
	}

	first := Compute(in)
	second := Compute(in)
	if !reflect.DeepEqual(first, second) {
		t.Error("identical inputs must produce identical output")
	}
}

func TestCompute_TimezoneAnchoring(t *testing.T) {
	chicago, err := time.LoadLocation("America/Chicago")
	if err != nil {
		t.Fatal(err)
	}

	in := baseInput()
	in.Location = chicago
	in.StartDate = time.Date(2026, 3, 9, 0, 0, 0, 0, chicago)
	in.EndDate = in.StartDate

	res := Compute(in)
	if res.TotalAvailable != 6 {
		t.Fatalf("expected 6 slots, got %d", res.TotalAvailable)
	}

	first := res.Days[0].Slots[0].StartTime
	// 09:00 wall clock in Chicago during CDT is 14:00 UTC.
	if got := first.UTC().Format("15:04"); got != "14:00" {
		t.Errorf("expected 09:00 CDT == 14:00 UTC, got %s", got)
	}
}

func TestOverlaps(t *testing.T) {
	base := monday.Add(10 * time.Hour)
	tests := []struct {
		name                   string
		aStart, aEnd           time.Time
		want                   bool
	}{
		{"identical", base, base.Add(30 * time.Minute), true},
		{"touching_before", base.Add(-30 * time.Minute), base, false},
		{"touching_after", base.Add(30 * time.Minute), base.Add(time.Hour), false},
		{"contained", base.Add(10 * time.Minute), base.Add(20 * time.Minute), true},
		{"straddles_start", base.Add(-10 * time.Minute), base.Add(10 * time.Minute), true},
	}

	slotStart, slotEnd := base, base.Add(30*time.Minute)
	for _, tt := range tests {
		if got := Overlaps(tt.aStart, tt.aEnd, slotStart, slotEnd); got != tt.want {
			t.Errorf("%s: Overlaps = %v, want %v", tt.name, got, tt.want)
		}
	}
}
