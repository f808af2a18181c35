package encounters

import (
	"time"

	"github.com/google/uuid"
)

// Encounter maps to the encounter table: one clinical visit documented as
// a SOAP note. Once signed, the note is immutable.
type Encounter struct {
	ID            uuid.UUID  `db:"id" json:"id"`
	PatientID     uuid.UUID  `db:"patient_id" json:"patient_id"`
	ProviderID    uuid.UUID  `db:"provider_id" json:"provider_id"`
	AppointmentID *uuid.UUID `db:"appointment_id" json:"appointment_id,omitempty"`
	EncounterDate time.Time  `db:"encounter_date" json:"encounter_date"`

	Subjective string `db:"subjective" json:"subjective"`
	Objective  string `db:"objective" json:"objective"`
	Assessment string `db:"assessment" json:"assessment"`
	Plan       string `db:"plan" json:"plan"`

	Signed   bool       `db:"signed" json:"signed"`
	SignedBy *string    `db:"signed_by" json:"signed_by,omitempty"`
	SignedAt *time.Time `db:"signed_at" json:"signed_at,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
