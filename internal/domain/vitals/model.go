package vitals

import (
	"time"

	"github.com/google/uuid"
)

// Action types recorded on vital history rows.
const (
	ActionCreated   = "CREATED"
	ActionUpdated   = "UPDATED"
	ActionAutoSaved = "AUTO_SAVED"
)

// VitalHistory maps to the vital_history table. At most one draft row exists
// per (appointment, entered_by); finalized rows are immutable.
type VitalHistory struct {
	ID            uuid.UUID     `db:"id" json:"id"`
	AppointmentID uuid.UUID     `db:"appointment_id" json:"appointment_id"`
	PatientID     uuid.UUID     `db:"patient_id" json:"patient_id"`
	Measurements  *Measurements `db:"measurements" json:"measurements"`
	Notes         *string       `db:"notes" json:"notes,omitempty"`
	EnteredBy     uuid.UUID     `db:"entered_by" json:"entered_by"`
	ActionType    string        `db:"action_type" json:"action_type"`
	IsDraft       bool          `db:"is_draft" json:"is_draft"`
	FinalizedAt   *time.Time    `db:"finalized_at" json:"finalized_at,omitempty"`
	CreatedAt     time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time     `db:"updated_at" json:"updated_at"`
}
