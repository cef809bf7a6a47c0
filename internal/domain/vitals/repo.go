package vitals

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, v *VitalHistory) error
	GetByID(ctx context.Context, id uuid.UUID) (*VitalHistory, error)
	// GetDraft returns the draft row for (appointment, enteredBy), or nil
	// when none exists.
	GetDraft(ctx context.Context, appointmentID, enteredBy uuid.UUID) (*VitalHistory, error)
	// UpdateDraft overwrites a draft row's payload in place. Finalized rows
	// are never touched.
	UpdateDraft(ctx context.Context, v *VitalHistory) error
	// Finalize flips a draft to finalized. Returns false when the row was
	// already finalized.
	Finalize(ctx context.Context, id uuid.UUID) (bool, error)
	// AmendFinalized corrects a finalized row's payload. Returns false when
	// the row is still a draft or does not exist.
	AmendFinalized(ctx context.Context, v *VitalHistory) (bool, error)
	ListFinalizedByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*VitalHistory, int, error)
	ListByAppointment(ctx context.Context, appointmentID uuid.UUID) ([]*VitalHistory, error)
}
