package prescription

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, p *Prescription) error
	GetByID(ctx context.Context, id uuid.UUID) (*Prescription, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Prescription, int, error)
	ListByDoctor(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]*Prescription, int, error)
	// UpdateStatus moves id from→to. Returns false when the row was not in
	// the expected status, which callers surface as a transition conflict.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status) (bool, error)
	// CollectSample stamps sample_collected_at and nurse_id on a SENT_TO_LAB
	// order. Returns false when the order is in another status.
	CollectSample(ctx context.Context, id, nurseID uuid.UUID) (bool, error)
	// StartAnalysis moves a SENT_TO_LAB order with a collected sample to
	// IN_PROGRESS and stamps analysis_started_at.
	StartAnalysis(ctx context.Context, id uuid.UUID) (bool, error)
}
