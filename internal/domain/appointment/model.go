// Package appointment implements the visit lifecycle from scheduling through
// check-in, consultation and billing close-out. Every status change is
// recorded in a history trail, and administrative edits go through an audited
// update path.
package appointment

import (
	"time"

	"github.com/google/uuid"

	"github.com/Flinguee75/MEDECINE-APP-sub001/internal/domain/vitals"
)

type Status string

const (
	StatusScheduled             Status = "SCHEDULED"
	StatusCheckedIn             Status = "CHECKED_IN"
	StatusInConsultation        Status = "IN_CONSULTATION"
	StatusWaitingResults        Status = "WAITING_RESULTS"
	StatusConsultationCompleted Status = "CONSULTATION_COMPLETED"
	StatusCompleted             Status = "COMPLETED"
	StatusCancelled             Status = "CANCELLED"
)

// transitions is the authoritative forward table. Cancellation is reachable
// from every non-terminal status.
var transitions = map[Status][]Status{
	StatusScheduled:             {StatusCheckedIn, StatusCancelled},
	StatusCheckedIn:             {StatusInConsultation, StatusCancelled},
	StatusInConsultation:        {StatusWaitingResults, StatusConsultationCompleted, StatusCancelled},
	StatusWaitingResults:        {StatusConsultationCompleted, StatusCancelled},
	StatusConsultationCompleted: {StatusCompleted, StatusCancelled},
	StatusCompleted:             {},
	StatusCancelled:             {},
}

// CanTransition reports whether from→to is a legal status change.
func CanTransition(from, to Status) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transition leaves s.
func Terminal(s Status) bool {
	return len(transitions[s]) == 0
}

// Appointment maps to the appointment table.
type Appointment struct {
	ID          uuid.UUID `db:"id" json:"id"`
	PatientID   uuid.UUID `db:"patient_id" json:"patient_id"`
	DoctorID    uuid.UUID `db:"doctor_id" json:"doctor_id"`
	ScheduledAt time.Time `db:"scheduled_at" json:"scheduled_at"`
	Reason      string    `db:"reason" json:"reason"`
	Status      Status    `db:"status" json:"status"`

	CheckedInAt       *time.Time `db:"checked_in_at" json:"checked_in_at,omitempty"`
	VitalsRequestedAt *time.Time `db:"vitals_requested_at" json:"vitals_requested_at,omitempty"`
	VitalsRequestedBy *uuid.UUID `db:"vitals_requested_by" json:"vitals_requested_by,omitempty"`
	VitalsEnteredAt   *time.Time `db:"vitals_entered_at" json:"vitals_entered_at,omitempty"`
	VitalsEnteredBy   *uuid.UUID `db:"vitals_entered_by" json:"vitals_entered_by,omitempty"`

	Vitals              *vitals.Measurements `db:"vitals" json:"vitals,omitempty"`
	MedicalHistoryNotes *string              `db:"medical_history_notes" json:"medical_history_notes,omitempty"`

	ConsultationNotes      *string    `db:"consultation_notes" json:"consultation_notes,omitempty"`
	DraftConsultationNotes *string    `db:"draft_consultation_notes" json:"draft_consultation_notes,omitempty"`
	IsDraftConsultation    bool       `db:"is_draft_consultation" json:"is_draft_consultation"`
	LastAutoSaveAt         *time.Time `db:"last_auto_save_at" json:"last_auto_save_at,omitempty"`
	ConsultedAt            *time.Time `db:"consulted_at" json:"consulted_at,omitempty"`
	ConsultedBy            *uuid.UUID `db:"consulted_by" json:"consulted_by,omitempty"`

	ClosedAt      *time.Time `db:"closed_at" json:"closed_at,omitempty"`
	ClosedBy      *uuid.UUID `db:"closed_by" json:"closed_by,omitempty"`
	BillingAmount *float64   `db:"billing_amount" json:"billing_amount,omitempty"`
	BillingStatus *string    `db:"billing_status" json:"billing_status,omitempty"`

	ModificationCount int        `db:"modification_count" json:"modification_count"`
	ModifiedBy        *uuid.UUID `db:"modified_by" json:"modified_by,omitempty"`
	ModifiedAt        *time.Time `db:"modified_at" json:"modified_at,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// StatusHistory maps to the appointment_status_history table, one row per
// status change.
type StatusHistory struct {
	ID            uuid.UUID `db:"id" json:"id"`
	AppointmentID uuid.UUID `db:"appointment_id" json:"appointment_id"`
	FromStatus    Status    `db:"from_status" json:"from_status"`
	ToStatus      Status    `db:"to_status" json:"to_status"`
	ChangedBy     uuid.UUID `db:"changed_by" json:"changed_by"`
	ChangedAt     time.Time `db:"changed_at" json:"changed_at"`
}
