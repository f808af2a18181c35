package progress

import (
	"time"

	"github.com/google/uuid"
)

const (
	ActivityVisit    = "visit"
	ActivityExercise = "exercise"
)

var validActivityKinds = map[string]bool{ActivityVisit: true, ActivityExercise: true}

// Activity is one care-plan action a patient completed: a clinic visit or
// a logged home exercise session.
type Activity struct {
	ID         uuid.UUID `db:"id" json:"id"`
	PatientID  uuid.UUID `db:"patient_id" json:"patient_id"`
	Kind       string    `db:"kind" json:"kind"`
	OccurredAt time.Time `db:"occurred_at" json:"occurred_at"`
}

// Achievement is a milestone a patient has earned. Once earned it is
// never revoked, even if the streak that earned it later breaks.
type Achievement struct {
	ID        uuid.UUID `db:"id" json:"id"`
	PatientID uuid.UUID `db:"patient_id" json:"patient_id"`
	Code      string    `db:"code" json:"code"`
	Title     string    `db:"title" json:"title"`
	EarnedAt  time.Time `db:"earned_at" json:"earned_at"`
}

// Summary is the patient-facing progress view.
type Summary struct {
	PatientID       uuid.UUID     `json:"patient_id"`
	CurrentStreak   int           `json:"current_streak"`
	LongestStreak   int           `json:"longest_streak"`
	TotalActivities int           `json:"total_activities"`
	Achievements    []Achievement `json:"achievements"`
}

// milestone definitions, checked in order.
type milestone struct {
	Code  string
	Title string
	Check func(stats streakStats) bool
}

type streakStats struct {
	CurrentStreak   int
	LongestStreak   int
	TotalActivities int
}

var milestones = []milestone{
	{"first_activity", "First step", func(s streakStats) bool { return s.TotalActivities >= 1 }},
	{"streak_3", "3-day streak", func(s streakStats) bool { return s.LongestStreak >= 3 }},
	{"streak_7", "One week strong", func(s streakStats) bool { return s.LongestStreak >= 7 }},
	{"streak_30", "30-day habit", func(s streakStats) bool { return s.LongestStreak >= 30 }},
	{"total_10", "10 activities", func(s streakStats) bool { return s.TotalActivities >= 10 }},
	{"total_50", "50 activities", func(s streakStats) bool { return s.TotalActivities >= 50 }},
	{"total_100", "Century club", func(s streakStats) bool { return s.TotalActivities >= 100 }},
}
