package result

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/Flinguee75/MEDECINE-APP-sub001/internal/domain/access"
	"github.com/Flinguee75/MEDECINE-APP-sub001/internal/domain/prescription"
	"github.com/Flinguee75/MEDECINE-APP-sub001/internal/domain/workflow"
	"github.com/Flinguee75/MEDECINE-APP-sub001/internal/platform/db"
)

// UserDirectory resolves an actor to its directory role.
type UserDirectory interface {
	RoleOf(ctx context.Context, id uuid.UUID) (access.Role, error)
}

// OrderEngine is the slice of the prescription engine the result lifecycle
// drives: reading an order and advancing its status inside a shared
// transaction.
type OrderEngine interface {
	Get(ctx context.Context, id uuid.UUID) (*prescription.Prescription, error)
	Advance(ctx context.Context, id uuid.UUID, from, to prescription.Status) (*prescription.Prescription, error)
}

type Service struct {
	repo   Repository
	users  UserDirectory
	orders OrderEngine
	tx     db.TxRunner
}

func NewService(repo Repository, users UserDirectory, orders OrderEngine, tx db.TxRunner) *Service {
	return &Service{repo: repo, users: users, orders: orders, tx: tx}
}

// Create writes the result for an order and moves the order to
// RESULTS_AVAILABLE. Both writes commit in one transaction.
func (s *Service) Create(ctx context.Context, prescriptionID uuid.UUID, values Values, narrative string, actorID uuid.UUID) (*Result, error) {
	role, err := s.users.RoleOf(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if !access.Allowed(role, access.OpResultCreate) {
		return nil, workflow.Forbidden("role %s may not record results", role)
	}

	p, err := s.orders.Get(ctx, prescriptionID)
	if err != nil {
		return nil, err
	}
	if p.Status != prescription.StatusInProgress && p.Status != prescription.StatusCompleted {
		return nil, workflow.RequiresStatus("prescription", string(prescription.StatusInProgress), string(p.Status))
	}
	existing, err := s.repo.GetByPrescription(ctx, prescriptionID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, workflow.Invalid("prescription_id", "order %s already has a result", prescriptionID)
	}

	res := &Result{
		PrescriptionID: prescriptionID,
		Values:         values,
		Narrative:      narrative,
	}
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, res); err != nil {
			return err
		}
		if p.Status == prescription.StatusInProgress {
			_, err := s.orders.Advance(ctx, prescriptionID, prescription.StatusInProgress, prescription.StatusResultsAvailable)
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Review stamps the doctor's interpretation and completes the order. A
// reviewed result never reopens.
func (s *Service) Review(ctx context.Context, id, actorID uuid.UUID, interpretation string, recommendations *string) (*Result, error) {
	role, err := s.users.RoleOf(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if !access.Allowed(role, access.OpResultReview) {
		return nil, workflow.Forbidden("role %s may not review results", role)
	}
	if strings.TrimSpace(interpretation) == "" {
		return nil, workflow.Invalid("interpretation", "must not be empty")
	}

	res, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if res.Reviewed() {
		return nil, workflow.RequiresStatus("result", "UNREVIEWED", "REVIEWED")
	}
	p, err := s.orders.Get(ctx, res.PrescriptionID)
	if err != nil {
		return nil, err
	}
	if p.Status != prescription.StatusResultsAvailable {
		return nil, workflow.RequiresStatus("prescription", string(prescription.StatusResultsAvailable), string(p.Status))
	}

	stored := interpretation
	if recommendations != nil && strings.TrimSpace(*recommendations) != "" {
		stored = interpretation + "\n\nRecommendations: " + *recommendations
	}

	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		ok, err := s.repo.SetReview(ctx, id, actorID, stored)
		if err != nil {
			return err
		}
		if !ok {
			return workflow.RequiresStatus("result", "UNREVIEWED", "REVIEWED")
		}
		_, err = s.orders.Advance(ctx, res.PrescriptionID, prescription.StatusResultsAvailable, prescription.StatusCompleted)
		return err
	})
	if err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, id)
}

// UpdatePayload rewrites the measurement payload and narrative. The review
// fields are immutable through this path.
func (s *Service) UpdatePayload(ctx context.Context, id uuid.UUID, values Values, narrative string, actorID uuid.UUID) (*Result, error) {
	role, err := s.users.RoleOf(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if !access.Allowed(role, access.OpResultCreate) {
		return nil, workflow.Forbidden("role %s may not edit results", role)
	}
	if err := s.repo.UpdatePayload(ctx, id, values, narrative); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Result, error) {
	return s.repo.GetByID(ctx, id)
}

// GetByPrescription returns the order's result, or NotFound when none exists.
func (s *Service) GetByPrescription(ctx context.Context, prescriptionID uuid.UUID) (*Result, error) {
	res, err := s.repo.GetByPrescription(ctx, prescriptionID)
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, workflow.NotFound("result for prescription", prescriptionID.String())
	}
	return res, nil
}

// GetPendingReviewForDoctor lists unreviewed results awaiting the doctor.
func (s *Service) GetPendingReviewForDoctor(ctx context.Context, doctorID uuid.UUID) ([]*Result, error) {
	return s.repo.ListPendingForDoctor(ctx, doctorID)
}
