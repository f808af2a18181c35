package availability

import (
	"time"

	"github.com/google/uuid"
)

// Provider maps to the provider table.
type Provider struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// WeeklySchedule is a provider's recurring working window for one weekday.
// StartTime/EndTime are local wall-clock "HH:MM" strings interpreted in the
// practice's timezone.
type WeeklySchedule struct {
	ID         uuid.UUID `db:"id" json:"id"`
	ProviderID uuid.UUID `db:"provider_id" json:"provider_id"`
	DayOfWeek  int       `db:"day_of_week" json:"day_of_week"` // 0 = Sunday
	StartTime  string    `db:"start_time" json:"start_time"`
	EndTime    string    `db:"end_time" json:"end_time"`
	IsActive   bool      `db:"is_active" json:"is_active"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// ScheduleException overrides the weekly schedule for a single date: either
// the provider is out entirely, or works a replacement window.
type ScheduleException struct {
	ID          uuid.UUID `db:"id" json:"id"`
	ProviderID  uuid.UUID `db:"provider_id" json:"provider_id"`
	Date        time.Time `db:"exception_date" json:"date"`
	IsAvailable bool      `db:"is_available" json:"is_available"`
	StartTime   *string   `db:"start_time" json:"start_time,omitempty"`
	EndTime     *string   `db:"end_time" json:"end_time,omitempty"`
	Reason      *string   `db:"reason" json:"reason,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// ScheduleBlock is an explicit closure interval. A nil ProviderID applies
// practice-wide.
type ScheduleBlock struct {
	ID         uuid.UUID  `db:"id" json:"id"`
	ProviderID *uuid.UUID `db:"provider_id" json:"provider_id,omitempty"`
	StartTime  time.Time  `db:"start_time" json:"start_time"`
	EndTime    time.Time  `db:"end_time" json:"end_time"`
	Reason     *string    `db:"reason" json:"reason,omitempty"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
}

// BookedInterval is the slice of an existing appointment the calculator
// needs: who is busy, when, and whether the appointment still occupies time.
type BookedInterval struct {
	ProviderID uuid.UUID `db:"provider_id" json:"provider_id"`
	StartTime  time.Time `db:"start_time" json:"start_time"`
	EndTime    time.Time `db:"end_time" json:"end_time"`
	Status     string    `db:"status" json:"status"`
}

// Occupies reports whether the appointment still consumes provider time.
func (b BookedInterval) Occupies() bool {
	return b.Status != "cancelled" && b.Status != "no_show"
}

// Slot is a candidate open booking window. Slots are derived per request
// and never persisted.
type Slot struct {
	ProviderID   uuid.UUID `json:"provider_id"`
	ProviderName string    `json:"provider_name"`
	StartTime    time.Time `json:"start_time"`
	EndTime      time.Time `json:"end_time"`
}

// DayAvailability groups a day's open slots. Days with no slots are omitted
// from results entirely.
type DayAvailability struct {
	Date      string `json:"date"` // YYYY-MM-DD
	DayName   string `json:"day_name"`
	SlotCount int    `json:"slot_count"`
	Slots     []Slot `json:"slots"`
}

// Result is the full availability response for a query.
type Result struct {
	Days            []DayAvailability `json:"days"`
	TotalAvailable  int               `json:"total_available"`
	Warnings        []string          `json:"warnings,omitempty"`
	ServerTimestamp time.Time         `json:"server_timestamp"`
}
