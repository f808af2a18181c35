package progress

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/chirohq/chiro/pkg/clock"
)

type Service struct {
	activities   ActivityRepository
	achievements AchievementRepository
	clk          clock.Clock
	loc          *time.Location
}

func NewService(activities ActivityRepository, achievements AchievementRepository, clk clock.Clock, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{activities: activities, achievements: achievements, clk: clk, loc: loc}
}

// LogActivity records an activity and awards any milestones it unlocks.
func (s *Service) LogActivity(ctx context.Context, a *Activity) ([]Achievement, error) {
	if a.PatientID == uuid.Nil {
		return nil, fmt.Errorf("patient_id is required")
	}
	if !validActivityKinds[a.Kind] {
		return nil, fmt.Errorf("kind must be one of visit, exercise")
	}
	now := s.clk.Now()
	if a.OccurredAt.IsZero() {
		a.OccurredAt = now
	}
	if a.OccurredAt.After(now) {
		return nil, fmt.Errorf("occurred_at cannot be in the future")
	}
	if err := s.activities.Create(ctx, a); err != nil {
		return nil, err
	}
	return s.award(ctx, a.PatientID)
}

// award compares earned milestones against the recomputed stats and
// persists anything new.
func (s *Service) award(ctx context.Context, patientID uuid.UUID) ([]Achievement, error) {
	all, err := s.activities.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, err
	}
	earned, err := s.achievements.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, err
	}
	have := make(map[string]bool, len(earned))
	for _, a := range earned {
		have[a.Code] = true
	}

	stats := computeStreaks(all, s.clk.Now(), s.loc)
	var awarded []Achievement
	for _, m := range milestones {
		if have[m.Code] || !m.Check(stats) {
			continue
		}
		ach := Achievement{
			PatientID: patientID,
			Code:      m.Code,
			Title:     m.Title,
			EarnedAt:  s.clk.Now(),
		}
		if err := s.achievements.Create(ctx, &ach); err != nil {
			return awarded, err
		}
		awarded = append(awarded, ach)
	}
	return awarded, nil
}

// Summary returns the patient's streaks and all earned milestones.
func (s *Service) Summary(ctx context.Context, patientID uuid.UUID) (*Summary, error) {
	activities, err := s.activities.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, err
	}
	earned, err := s.achievements.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, err
	}

	stats := computeStreaks(activities, s.clk.Now(), s.loc)
	sum := &Summary{
		PatientID:       patientID,
		CurrentStreak:   stats.CurrentStreak,
		LongestStreak:   stats.LongestStreak,
		TotalActivities: stats.TotalActivities,
	}
	for _, a := range earned {
		sum.Achievements = append(sum.Achievements, *a)
	}
	return sum, nil
}
