package availability

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/chirohq/chiro/internal/platform/metrics"
	"github.com/chirohq/chiro/pkg/clock"
)

// maxProvidersPerQuery bounds the provider fan-out of a single
// availability query.
const maxProvidersPerQuery = 200

// Query is one availability request after input parsing.
type Query struct {
	StartDate         time.Time
	EndDate           time.Time
	ProviderID        *uuid.UUID
	AppointmentTypeID *uuid.UUID

	// IncludePast disables the advance-booking cutoff for historical
	// audits.
	IncludePast bool
}

type Service struct {
	providers  ProviderRepository
	schedules  WeeklyScheduleRepository
	exceptions ExceptionRepository
	blocks     BlockRepository
	booked     BookedIntervalReader
	durations  DurationResolver

	clk        clock.Clock
	loc        *time.Location
	minAdvance time.Duration
	metrics    *metrics.Metrics
}

func NewService(
	providers ProviderRepository,
	schedules WeeklyScheduleRepository,
	exceptions ExceptionRepository,
	blocks BlockRepository,
	booked BookedIntervalReader,
	durations DurationResolver,
	clk clock.Clock,
	loc *time.Location,
	minAdvance time.Duration,
	m *metrics.Metrics,
) *Service {
	return &Service{
		providers:  providers,
		schedules:  schedules,
		exceptions: exceptions,
		blocks:     blocks,
		booked:     booked,
		durations:  durations,
		clk:        clk,
		loc:        loc,
		minAdvance: minAdvance,
		metrics:    m,
	}
}

// Location returns the practice timezone availability dates are anchored
// in.
func (s *Service) Location() *time.Location {
	return s.loc
}

// Availability computes the open slots for the query. Reads are done up
// front; the calculation itself is pure.
func (s *Service) Availability(ctx context.Context, q Query) (*Result, error) {
	if q.StartDate.IsZero() || q.EndDate.IsZero() {
		return nil, fmt.Errorf("start_date and end_date are required")
	}
	if q.EndDate.Before(q.StartDate) {
		return nil, fmt.Errorf("end_date must not be before start_date")
	}

	duration := DefaultDurationMinutes * time.Minute
	if q.AppointmentTypeID != nil {
		d, err := s.durations.DurationFor(ctx, *q.AppointmentTypeID)
		if err != nil {
			return nil, fmt.Errorf("appointment type %s: %w", q.AppointmentTypeID, err)
		}
		duration = d
	}

	var providers []Provider
	if q.ProviderID != nil {
		p, err := s.providers.GetByID(ctx, *q.ProviderID)
		if err != nil {
			return nil, fmt.Errorf("provider %s: %w", q.ProviderID, err)
		}
		providers = []Provider{*p}
	} else {
		list, _, err := s.providers.List(ctx, true, maxProvidersPerQuery, 0)
		if err != nil {
			return nil, fmt.Errorf("list providers: %w", err)
		}
		for _, p := range list {
			providers = append(providers, *p)
		}
	}

	schedules, err := s.schedules.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}

	// Pad the instant-range reads by a day on each side so timezone
	// offsets cannot clip rows at the range edges.
	from := q.StartDate.AddDate(0, 0, -1)
	to := q.EndDate.AddDate(0, 0, 2)

	exceptions, err := s.exceptions.ListInRange(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("list exceptions: %w", err)
	}
	blocks, err := s.blocks.ListInRange(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("list blocks: %w", err)
	}
	booked, err := s.booked.ListInRange(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}

	minAdvance := s.minAdvance
	if q.IncludePast {
		minAdvance = -1
	}

	res := Compute(CalcInput{
		StartDate:    q.StartDate,
		EndDate:      q.EndDate,
		Duration:     duration,
		Location:     s.loc,
		Now:          s.clk.Now(),
		MinAdvance:   minAdvance,
		Providers:    providers,
		Schedules:    schedules,
		Exceptions:   exceptions,
		Blocks:       blocks,
		Appointments: booked,
	})

	if s.metrics != nil {
		s.metrics.SlotsComputed.Add(float64(res.TotalAvailable))
	}

	return &res, nil
}

// -- Provider CRUD --

func (s *Service) CreateProvider(ctx context.Context, p *Provider) error {
	if p.Name == "" {
		return fmt.Errorf("name is required")
	}
	return s.providers.Create(ctx, p)
}

func (s *Service) GetProvider(ctx context.Context, id uuid.UUID) (*Provider, error) {
	return s.providers.GetByID(ctx, id)
}

func (s *Service) UpdateProvider(ctx context.Context, p *Provider) error {
	if p.Name == "" {
		return fmt.Errorf("name is required")
	}
	return s.providers.Update(ctx, p)
}

func (s *Service) DeleteProvider(ctx context.Context, id uuid.UUID) error {
	return s.providers.Delete(ctx, id)
}

func (s *Service) ListProviders(ctx context.Context, activeOnly bool, limit, offset int) ([]*Provider, int, error) {
	return s.providers.List(ctx, activeOnly, limit, offset)
}

// -- Weekly schedule CRUD --

func validateScheduleWindow(startHHMM, endHHMM string) error {
	sh, sm, err := parseHHMM(startHHMM)
	if err != nil {
		return fmt.Errorf("start_time: %w", err)
	}
	eh, em, err := parseHHMM(endHHMM)
	if err != nil {
		return fmt.Errorf("end_time: %w", err)
	}
	if eh*60+em <= sh*60+sm {
		return fmt.Errorf("end_time %q must be after start_time %q", endHHMM, startHHMM)
	}
	return nil
}

func (s *Service) CreateSchedule(ctx context.Context, ws *WeeklySchedule) error {
	if ws.ProviderID == uuid.Nil {
		return fmt.Errorf("provider_id is required")
	}
	if ws.DayOfWeek < 0 || ws.DayOfWeek > 6 {
		return fmt.Errorf("day_of_week must be 0 (Sunday) through 6 (Saturday)")
	}
	if err := validateScheduleWindow(ws.StartTime, ws.EndTime); err != nil {
		return err
	}
	if _, err := s.providers.GetByID(ctx, ws.ProviderID); err != nil {
		return fmt.Errorf("provider %s: %w", ws.ProviderID, err)
	}
	return s.schedules.Create(ctx, ws)
}

func (s *Service) UpdateSchedule(ctx context.Context, ws *WeeklySchedule) error {
	if ws.DayOfWeek < 0 || ws.DayOfWeek > 6 {
		return fmt.Errorf("day_of_week must be 0 (Sunday) through 6 (Saturday)")
	}
	if err := validateScheduleWindow(ws.StartTime, ws.EndTime); err != nil {
		return err
	}
	return s.schedules.Update(ctx, ws)
}

func (s *Service) DeleteSchedule(ctx context.Context, id uuid.UUID) error {
	return s.schedules.Delete(ctx, id)
}

func (s *Service) ListSchedulesByProvider(ctx context.Context, providerID uuid.UUID) ([]WeeklySchedule, error) {
	return s.schedules.ListByProvider(ctx, providerID)
}

// -- Exception CRUD --

func (s *Service) CreateException(ctx context.Context, exc *ScheduleException) error {
	if exc.ProviderID == uuid.Nil {
		return fmt.Errorf("provider_id is required")
	}
	if exc.Date.IsZero() {
		return fmt.Errorf("date is required")
	}
	if exc.IsAvailable && exc.StartTime != nil && exc.EndTime != nil {
		if err := validateScheduleWindow(*exc.StartTime, *exc.EndTime); err != nil {
			return err
		}
	}
	if _, err := s.providers.GetByID(ctx, exc.ProviderID); err != nil {
		return fmt.Errorf("provider %s: %w", exc.ProviderID, err)
	}
	return s.exceptions.Create(ctx, exc)
}

func (s *Service) DeleteException(ctx context.Context, id uuid.UUID) error {
	return s.exceptions.Delete(ctx, id)
}

// -- Block CRUD --

func (s *Service) CreateBlock(ctx context.Context, b *ScheduleBlock) error {
	if b.StartTime.IsZero() || b.EndTime.IsZero() {
		return fmt.Errorf("start_time and end_time are required")
	}
	if !b.EndTime.After(b.StartTime) {
		return fmt.Errorf("end_time must be after start_time")
	}
	if b.ProviderID != nil {
		if _, err := s.providers.GetByID(ctx, *b.ProviderID); err != nil {
			return fmt.Errorf("provider %s: %w", b.ProviderID, err)
		}
	}
	return s.blocks.Create(ctx, b)
}

func (s *Service) DeleteBlock(ctx context.Context, id uuid.UUID) error {
	return s.blocks.Delete(ctx, id)
}

func (s *Service) ListBlocks(ctx context.Context, from, to time.Time) ([]ScheduleBlock, error) {
	return s.blocks.ListInRange(ctx, from, to)
}
