package scheduling

import (
	"time"

	"github.com/google/uuid"
)

// AppointmentType maps to the appointment_type table. DurationMinutes is
// the slot length the availability calculator offers for this service.
type AppointmentType struct {
	ID              uuid.UUID `db:"id" json:"id"`
	Name            string    `db:"name" json:"name"`
	DurationMinutes int       `db:"duration_minutes" json:"duration_minutes"`
	PriceCents      int       `db:"price_cents" json:"price_cents"`
	Active          bool      `db:"active" json:"active"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// Duration returns the service length.
func (at *AppointmentType) Duration() time.Duration {
	return time.Duration(at.DurationMinutes) * time.Minute
}

// Appointment maps to the appointment table.
type Appointment struct {
	ID                uuid.UUID  `db:"id" json:"id"`
	PatientID         uuid.UUID  `db:"patient_id" json:"patient_id"`
	ProviderID        uuid.UUID  `db:"provider_id" json:"provider_id"`
	AppointmentTypeID uuid.UUID  `db:"appointment_type_id" json:"appointment_type_id"`
	LocationID        *uuid.UUID `db:"location_id" json:"location_id,omitempty"`
	StartTime         time.Time  `db:"start_time" json:"start_time"`
	EndTime           time.Time  `db:"end_time" json:"end_time"`
	Status            string     `db:"status" json:"status"`
	ChiefComplaint    *string    `db:"chief_complaint" json:"chief_complaint,omitempty"`
	PatientNotes      *string    `db:"patient_notes" json:"patient_notes,omitempty"`
	CreatedAt         time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time  `db:"updated_at" json:"updated_at"`
}

// Occupies reports whether the appointment still consumes provider time.
func (a *Appointment) Occupies() bool {
	return a.Status != StatusCancelled && a.Status != StatusNoShow
}

const (
	StatusScheduled = "scheduled"
	StatusCheckedIn = "checked_in"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
	StatusNoShow    = "no_show"
)

var validAppointmentStatuses = map[string]bool{
	StatusScheduled: true,
	StatusCheckedIn: true,
	StatusCompleted: true,
	StatusCancelled: true,
	StatusNoShow:    true,
}

// BookingRequest is a patient-facing booking submission. EndTime is derived
// from the appointment type, never supplied by the caller.
type BookingRequest struct {
	PatientID         uuid.UUID  `json:"patient_id"`
	ProviderID        uuid.UUID  `json:"provider_id"`
	AppointmentTypeID uuid.UUID  `json:"appointment_type_id"`
	LocationID        *uuid.UUID `json:"location_id,omitempty"`
	StartTime         time.Time  `json:"start_time"`
	ChiefComplaint    *string    `json:"chief_complaint,omitempty"`
	PatientNotes      *string    `json:"patient_notes,omitempty"`
}

// CalendarEvent is the denormalized event shape returned alongside a
// successful booking for calendar clients.
type CalendarEvent struct {
	Title     string    `json:"title"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
}

// BookingResponse is the success payload for a booking.
type BookingResponse struct {
	Success       bool          `json:"success"`
	Appointment   *Appointment  `json:"appointment"`
	CalendarEvent CalendarEvent `json:"calendar_event"`
}
