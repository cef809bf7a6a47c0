package result

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, r *Result) error
	GetByID(ctx context.Context, id uuid.UUID) (*Result, error)
	// GetByPrescription returns the order's result, or nil when none exists.
	GetByPrescription(ctx context.Context, prescriptionID uuid.UUID) (*Result, error)
	// UpdatePayload rewrites values and narrative. Review fields are never
	// touched through this path.
	UpdatePayload(ctx context.Context, id uuid.UUID, values Values, narrative string) error
	// SetReview stamps interpretation and reviewer on an unreviewed result.
	// Returns false when the result was already reviewed.
	SetReview(ctx context.Context, id, reviewedBy uuid.UUID, interpretation string) (bool, error)
	// ListPendingForDoctor returns unreviewed results whose order belongs to
	// the doctor and awaits review.
	ListPendingForDoctor(ctx context.Context, doctorID uuid.UUID) ([]*Result, error)
}
