package appointment

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	List(ctx context.Context, limit, offset int) ([]*Appointment, int, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Appointment, int, error)
	ListByDoctor(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]*Appointment, int, error)
	// UpdateIfStatus writes the full row only while the stored status still
	// equals expected. Returns false when another writer got there first.
	UpdateIfStatus(ctx context.Context, a *Appointment, expected Status) (bool, error)
	// SetStatus writes the status unconditionally. Cancellation only.
	SetStatus(ctx context.Context, id uuid.UUID, to Status) error
	AddStatusHistory(ctx context.Context, h *StatusHistory) error
	GetStatusHistory(ctx context.Context, appointmentID uuid.UUID) ([]*StatusHistory, error)
}
