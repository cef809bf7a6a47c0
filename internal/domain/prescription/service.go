package prescription

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/Flinguee75/MEDECINE-APP-sub001/internal/domain/access"
	"github.com/Flinguee75/MEDECINE-APP-sub001/internal/domain/workflow"
)

// UserDirectory resolves an actor to its directory role.
type UserDirectory interface {
	RoleOf(ctx context.Context, id uuid.UUID) (access.Role, error)
}

// PatientDirectory answers patient existence checks.
type PatientDirectory interface {
	PatientExists(ctx context.Context, id uuid.UUID) (bool, error)
}

// AppointmentRef is the slice of an appointment an order creation needs.
type AppointmentRef struct {
	PatientID uuid.UUID
	DoctorID  uuid.UUID
}

// AppointmentLookup resolves an appointment to its patient and doctor.
type AppointmentLookup interface {
	Ref(ctx context.Context, appointmentID uuid.UUID) (AppointmentRef, error)
}

type Service struct {
	repo         Repository
	users        UserDirectory
	patients     PatientDirectory
	appointments AppointmentLookup
}

func NewService(repo Repository, users UserDirectory, patients PatientDirectory, appointments AppointmentLookup) *Service {
	return &Service{repo: repo, users: users, patients: patients, appointments: appointments}
}

// Create registers a new lab order in status CREATED. When an appointment is
// referenced it must belong to the same patient and doctor.
func (s *Service) Create(ctx context.Context, p *Prescription, actorID uuid.UUID) (*Prescription, error) {
	role, err := s.users.RoleOf(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if !access.Allowed(role, access.OpPrescriptionCreate) {
		return nil, workflow.Forbidden("role %s may not create prescriptions", role)
	}
	if strings.TrimSpace(p.OrderText) == "" {
		return nil, workflow.Invalid("order_text", "must not be empty")
	}
	if p.DoctorID == uuid.Nil {
		p.DoctorID = actorID
	}
	if role == access.RoleDoctor && p.DoctorID != actorID {
		return nil, workflow.Forbidden("doctors may only prescribe under their own name")
	}
	doctorRole, err := s.users.RoleOf(ctx, p.DoctorID)
	if err != nil {
		return nil, err
	}
	if doctorRole != access.RoleDoctor {
		return nil, workflow.Invalid("doctor_id", "user %s is not a doctor", p.DoctorID)
	}

	exists, err := s.patients.PatientExists(ctx, p.PatientID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, workflow.NotFound("patient", p.PatientID.String())
	}

	if p.AppointmentID != nil {
		ref, err := s.appointments.Ref(ctx, *p.AppointmentID)
		if err != nil {
			return nil, err
		}
		if ref.PatientID != p.PatientID {
			return nil, workflow.Invalid("appointment_id", "appointment belongs to another patient")
		}
		if ref.DoctorID != p.DoctorID {
			return nil, workflow.Invalid("appointment_id", "appointment belongs to another doctor")
		}
	}

	p.Status = StatusCreated
	p.NurseID = nil
	p.SampleCollectedAt = nil
	p.AnalysisStartedAt = nil
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// SendToLab moves a CREATED order to SENT_TO_LAB. Doctors may only send
// their own orders.
func (s *Service) SendToLab(ctx context.Context, id, actorID uuid.UUID) (*Prescription, error) {
	role, err := s.users.RoleOf(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if !access.Allowed(role, access.OpPrescriptionSendToLab) {
		return nil, workflow.Forbidden("role %s may not send orders to the lab", role)
	}

	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if role == access.RoleDoctor && p.DoctorID != actorID {
		return nil, workflow.Forbidden("doctors may only send their own orders")
	}
	if p.Status != StatusCreated {
		return nil, workflow.RequiresStatus("prescription", string(StatusCreated), string(p.Status))
	}

	return s.advance(ctx, id, StatusCreated, StatusSentToLab)
}

// CollectSample stamps sample collection on a SENT_TO_LAB order. The status
// does not change; collection is a timestamp plus the collecting nurse.
func (s *Service) CollectSample(ctx context.Context, id, actorID uuid.UUID) (*Prescription, error) {
	role, err := s.users.RoleOf(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if !access.Allowed(role, access.OpPrescriptionCollectSample) {
		return nil, workflow.Forbidden("role %s may not collect samples", role)
	}

	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Status != StatusSentToLab {
		return nil, workflow.RequiresStatus("prescription", string(StatusSentToLab), string(p.Status))
	}

	ok, err := s.repo.CollectSample(ctx, id, actorID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, s.conflict(ctx, id, StatusSentToLab)
	}
	return s.repo.GetByID(ctx, id)
}

// StartAnalysis moves a SENT_TO_LAB order with a collected sample to
// IN_PROGRESS.
func (s *Service) StartAnalysis(ctx context.Context, id, actorID uuid.UUID) (*Prescription, error) {
	role, err := s.users.RoleOf(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if !access.Allowed(role, access.OpPrescriptionStartAnalysis) {
		return nil, workflow.Forbidden("role %s may not start analysis", role)
	}

	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Status != StatusSentToLab {
		return nil, workflow.RequiresStatus("prescription", string(StatusSentToLab), string(p.Status))
	}
	if !p.SampleCollected() {
		return nil, workflow.Invalid("sample_collected_at", "sample must be collected before analysis")
	}

	ok, err := s.repo.StartAnalysis(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, s.conflict(ctx, id, StatusSentToLab)
	}
	return s.repo.GetByID(ctx, id)
}

// UpdateStatus is the generic transition path. The transition table applies
// to everyone; on top of it doctors may only send their own orders to the
// lab, and biologists may only move orders to IN_PROGRESS or COMPLETED.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, to Status, actorID uuid.UUID) (*Prescription, error) {
	role, err := s.users.RoleOf(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if !access.Allowed(role, access.OpPrescriptionUpdateStatus) {
		return nil, workflow.Forbidden("role %s may not update order status", role)
	}

	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanTransition(p.Status, to) {
		return nil, workflow.InvalidTransition("prescription", string(p.Status), string(to))
	}

	switch role {
	case access.RoleAdmin:
	case access.RoleDoctor:
		if p.DoctorID != actorID {
			return nil, workflow.Forbidden("doctors may only update their own orders")
		}
		if to != StatusSentToLab {
			return nil, workflow.Forbidden("doctors may only move orders to %s", StatusSentToLab)
		}
	case access.RoleBiologist:
		if to != StatusInProgress && to != StatusCompleted {
			return nil, workflow.Forbidden("biologists may only move orders to %s or %s", StatusInProgress, StatusCompleted)
		}
	default:
		return nil, workflow.Forbidden("role %s may not update order status", role)
	}

	return s.advance(ctx, id, p.Status, to)
}

// Advance moves an order from→to without a role gate. It backs cross-entity
// write-backs that run inside another engine's transaction.
func (s *Service) Advance(ctx context.Context, id uuid.UUID, from, to Status) (*Prescription, error) {
	if !CanTransition(from, to) {
		return nil, workflow.InvalidTransition("prescription", string(from), string(to))
	}
	return s.advance(ctx, id, from, to)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Prescription, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Prescription, int, error) {
	return s.repo.ListByPatient(ctx, patientID, limit, offset)
}

func (s *Service) ListByDoctor(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]*Prescription, int, error) {
	return s.repo.ListByDoctor(ctx, doctorID, limit, offset)
}

func (s *Service) advance(ctx context.Context, id uuid.UUID, from, to Status) (*Prescription, error) {
	ok, err := s.repo.UpdateStatus(ctx, id, from, to)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, s.conflict(ctx, id, from)
	}
	return s.repo.GetByID(ctx, id)
}

// conflict resolves a lost conditional update into a transition error against
// the row's current status.
func (s *Service) conflict(ctx context.Context, id uuid.UUID, expected Status) error {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	return workflow.RequiresStatus("prescription", string(expected), string(p.Status))
}
