package scheduling

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/chirohq/chiro/internal/platform/db"
	"github.com/chirohq/chiro/internal/platform/metrics"
	"github.com/chirohq/chiro/pkg/clock"
)

// ErrSlotTaken is returned when a booking loses the race for a slot, either
// at the lock or inside the transactional conflict check.
var ErrSlotTaken = errors.New("slot is no longer available")

// SlotLocker serializes competing bookings for one provider slot. The
// Redis-backed implementation lives in the cache package.
type SlotLocker interface {
	Acquire(ctx context.Context, orgID, providerID string, start time.Time) (bool, error)
	Release(ctx context.Context, orgID, providerID string, start time.Time) error
}

// TxRunner executes fn inside a database transaction visible to the
// repositories through ctx.
type TxRunner func(ctx context.Context, fn func(ctx context.Context) error) error

type Service struct {
	appointments AppointmentRepository
	types        AppointmentTypeRepository
	lock         SlotLocker
	runTx        TxRunner
	clk          clock.Clock
	metrics      *metrics.Metrics
}

func NewService(
	appointments AppointmentRepository,
	types AppointmentTypeRepository,
	lock SlotLocker,
	runTx TxRunner,
	clk clock.Clock,
	m *metrics.Metrics,
) *Service {
	return &Service{
		appointments: appointments,
		types:        types,
		lock:         lock,
		runTx:        runTx,
		clk:          clk,
		metrics:      m,
	}
}

// DurationFor resolves an appointment type's service length. Satisfies the
// availability calculator's duration lookup.
func (s *Service) DurationFor(ctx context.Context, appointmentTypeID uuid.UUID) (time.Duration, error) {
	at, err := s.types.GetByID(ctx, appointmentTypeID)
	if err != nil {
		return 0, err
	}
	return at.Duration(), nil
}

// Book creates an appointment from a chosen slot. Listing availability and
// booking are separate requests, so the slot may have been taken in
// between: a Redis lock narrows the race between competing bookings and
// the overlap re-check runs inside the same transaction as the insert.
// Exactly one of two concurrent bookings for the same slot succeeds; the
// other gets ErrSlotTaken.
func (s *Service) Book(ctx context.Context, req BookingRequest) (*Appointment, error) {
	if req.PatientID == uuid.Nil {
		return nil, fmt.Errorf("patient_id is required")
	}
	if req.ProviderID == uuid.Nil {
		return nil, fmt.Errorf("provider_id is required")
	}
	if req.StartTime.IsZero() {
		return nil, fmt.Errorf("start_time is required")
	}
	if req.StartTime.Before(s.clk.Now()) {
		return nil, fmt.Errorf("start_time is in the past")
	}

	at, err := s.types.GetByID(ctx, req.AppointmentTypeID)
	if err != nil {
		return nil, fmt.Errorf("appointment type %s: %w", req.AppointmentTypeID, err)
	}
	end := req.StartTime.Add(at.Duration())

	orgID := db.TenantFromContext(ctx)
	locked, err := s.lock.Acquire(ctx, orgID, req.ProviderID.String(), req.StartTime)
	if err != nil {
		return nil, fmt.Errorf("acquire slot lock: %w", err)
	}
	if !locked {
		if s.metrics != nil {
			s.metrics.LockContention.Inc()
			s.metrics.BookingConflicts.Inc()
		}
		return nil, ErrSlotTaken
	}
	defer s.lock.Release(ctx, orgID, req.ProviderID.String(), req.StartTime)

	appt := &Appointment{
		PatientID:         req.PatientID,
		ProviderID:        req.ProviderID,
		AppointmentTypeID: at.ID,
		LocationID:        req.LocationID,
		StartTime:         req.StartTime,
		EndTime:           end,
		Status:            StatusScheduled,
		ChiefComplaint:    req.ChiefComplaint,
		PatientNotes:      req.PatientNotes,
	}

	err = s.runTx(ctx, func(txCtx context.Context) error {
		overlapping, err := s.appointments.CountOverlapping(txCtx, req.ProviderID, req.StartTime, end, nil)
		if err != nil {
			return fmt.Errorf("conflict check: %w", err)
		}
		if overlapping > 0 {
			return ErrSlotTaken
		}

		blocked, err := s.appointments.CountBlocksOverlapping(txCtx, req.ProviderID, req.StartTime, end)
		if err != nil {
			return fmt.Errorf("block check: %w", err)
		}
		if blocked > 0 {
			return ErrSlotTaken
		}

		return s.appointments.Create(txCtx, appt)
	})
	if err != nil {
		if errors.Is(err, ErrSlotTaken) && s.metrics != nil {
			s.metrics.BookingConflicts.Inc()
		}
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.BookingsCreated.Inc()
	}
	return appt, nil
}

// Reschedule moves an appointment to a new start time, re-running the
// conflict guard against everything except the appointment itself.
func (s *Service) Reschedule(ctx context.Context, id uuid.UUID, newStart time.Time) (*Appointment, error) {
	if newStart.Before(s.clk.Now()) {
		return nil, fmt.Errorf("start_time is in the past")
	}

	appt, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !appt.Occupies() {
		return nil, fmt.Errorf("appointment %s is %s and cannot be rescheduled", id, appt.Status)
	}

	duration := appt.EndTime.Sub(appt.StartTime)
	newEnd := newStart.Add(duration)

	orgID := db.TenantFromContext(ctx)
	locked, err := s.lock.Acquire(ctx, orgID, appt.ProviderID.String(), newStart)
	if err != nil {
		return nil, fmt.Errorf("acquire slot lock: %w", err)
	}
	if !locked {
		return nil, ErrSlotTaken
	}
	defer s.lock.Release(ctx, orgID, appt.ProviderID.String(), newStart)

	err = s.runTx(ctx, func(txCtx context.Context) error {
		overlapping, err := s.appointments.CountOverlapping(txCtx, appt.ProviderID, newStart, newEnd, &id)
		if err != nil {
			return fmt.Errorf("conflict check: %w", err)
		}
		if overlapping > 0 {
			return ErrSlotTaken
		}

		blocked, err := s.appointments.CountBlocksOverlapping(txCtx, appt.ProviderID, newStart, newEnd)
		if err != nil {
			return fmt.Errorf("block check: %w", err)
		}
		if blocked > 0 {
			return ErrSlotTaken
		}

		return s.appointments.UpdateTimes(txCtx, id, newStart, newEnd)
	})
	if err != nil {
		return nil, err
	}

	appt.StartTime = newStart
	appt.EndTime = newEnd
	return appt, nil
}

func (s *Service) Cancel(ctx context.Context, id uuid.UUID) error {
	return s.appointments.UpdateStatus(ctx, id, StatusCancelled)
}

func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	if !validAppointmentStatuses[status] {
		return fmt.Errorf("invalid appointment status: %s", status)
	}
	return s.appointments.UpdateStatus(ctx, id, status)
}

func (s *Service) GetAppointment(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.appointments.GetByID(ctx, id)
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	return s.appointments.ListByPatient(ctx, patientID, limit, offset)
}

func (s *Service) ListByProvider(ctx context.Context, providerID uuid.UUID, from, to time.Time) ([]*Appointment, error) {
	return s.appointments.ListByProvider(ctx, providerID, from, to)
}

// -- Appointment type CRUD --

func (s *Service) CreateType(ctx context.Context, at *AppointmentType) error {
	if at.Name == "" {
		return fmt.Errorf("name is required")
	}
	if at.DurationMinutes <= 0 {
		return fmt.Errorf("duration_minutes must be positive")
	}
	return s.types.Create(ctx, at)
}

func (s *Service) GetType(ctx context.Context, id uuid.UUID) (*AppointmentType, error) {
	return s.types.GetByID(ctx, id)
}

func (s *Service) UpdateType(ctx context.Context, at *AppointmentType) error {
	if at.DurationMinutes <= 0 {
		return fmt.Errorf("duration_minutes must be positive")
	}
	return s.types.Update(ctx, at)
}

func (s *Service) DeleteType(ctx context.Context, id uuid.UUID) error {
	return s.types.Delete(ctx, id)
}

func (s *Service) ListTypes(ctx context.Context, activeOnly bool) ([]*AppointmentType, error) {
	return s.types.List(ctx, activeOnly)
}
