package vitals

import (
	"context"

	"github.com/google/uuid"

	"github.com/Flinguee75/MEDECINE-APP-sub001/internal/domain/access"
	"github.com/Flinguee75/MEDECINE-APP-sub001/internal/domain/workflow"
)

// UserDirectory resolves an actor to its directory role.
type UserDirectory interface {
	RoleOf(ctx context.Context, id uuid.UUID) (access.Role, error)
}

// AppointmentLookup resolves an appointment to its patient.
type AppointmentLookup interface {
	PatientOf(ctx context.Context, appointmentID uuid.UUID) (uuid.UUID, error)
}

type Service struct {
	repo         Repository
	users        UserDirectory
	appointments AppointmentLookup
}

func NewService(repo Repository, users UserDirectory, appointments AppointmentLookup) *Service {
	return &Service{repo: repo, users: users, appointments: appointments}
}

// AutoSave upserts the caller's draft for an appointment. Each actor holds at
// most one draft per appointment; repeated calls overwrite it in place.
func (s *Service) AutoSave(ctx context.Context, appointmentID, actorID uuid.UUID, m *Measurements, notes *string) (*VitalHistory, error) {
	role, err := s.users.RoleOf(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if !access.Allowed(role, access.OpVitalsAutoSave) {
		return nil, workflow.Forbidden("role %s may not save vitals", role)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	if m.IsEmpty() && notes == nil {
		return nil, workflow.Invalid("measurements", "nothing to save")
	}
	patientID, err := s.appointments.PatientOf(ctx, appointmentID)
	if err != nil {
		return nil, err
	}

	draft, err := s.repo.GetDraft(ctx, appointmentID, actorID)
	if err != nil {
		return nil, err
	}
	if draft == nil {
		draft = &VitalHistory{
			AppointmentID: appointmentID,
			PatientID:     patientID,
			Measurements:  m,
			Notes:         notes,
			EnteredBy:     actorID,
			ActionType:    ActionAutoSaved,
			IsDraft:       true,
		}
		if err := s.repo.Create(ctx, draft); err != nil {
			return nil, err
		}
		return draft, nil
	}

	draft.Measurements = m
	draft.Notes = notes
	draft.ActionType = ActionAutoSaved
	if err := s.repo.UpdateDraft(ctx, draft); err != nil {
		return nil, err
	}
	return draft, nil
}

// Finalize commits a draft to the permanent record. Only the actor that
// entered the draft may finalize it, and a finalized entry never reopens.
func (s *Service) Finalize(ctx context.Context, id, actorID uuid.UUID) (*VitalHistory, error) {
	role, err := s.users.RoleOf(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if !access.Allowed(role, access.OpVitalsFinalize) {
		return nil, workflow.Forbidden("role %s may not finalize vitals", role)
	}

	v, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !v.IsDraft {
		return nil, workflow.RequiresStatus("vitals", "DRAFT", "FINALIZED")
	}
	if v.EnteredBy != actorID && role != access.RoleAdmin {
		return nil, workflow.Forbidden("only the author may finalize this draft")
	}
	if v.Measurements.IsEmpty() {
		return nil, workflow.Invalid("measurements", "cannot finalize an empty draft")
	}

	ok, err := s.repo.Finalize(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, workflow.RequiresStatus("vitals", "DRAFT", "FINALIZED")
	}
	return s.repo.GetByID(ctx, id)
}

// Amend corrects a finalized entry. The record stays in the permanent trail
// with action UPDATED; drafts go through AutoSave instead.
func (s *Service) Amend(ctx context.Context, id, actorID uuid.UUID, m *Measurements, notes *string) (*VitalHistory, error) {
	role, err := s.users.RoleOf(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if !access.Allowed(role, access.OpVitalsFinalize) {
		return nil, workflow.Forbidden("role %s may not amend vitals", role)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	if m.IsEmpty() {
		return nil, workflow.Invalid("measurements", "cannot amend to an empty record")
	}

	v, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if v.IsDraft {
		return nil, workflow.RequiresStatus("vitals", "FINALIZED", "DRAFT")
	}
	if v.EnteredBy != actorID && role != access.RoleAdmin {
		return nil, workflow.Forbidden("only the author may amend this record")
	}

	v.Measurements = m
	v.Notes = notes
	v.ActionType = ActionUpdated
	ok, err := s.repo.AmendFinalized(ctx, v)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, workflow.RequiresStatus("vitals", "FINALIZED", "DRAFT")
	}
	return s.repo.GetByID(ctx, id)
}

// FindByPatient returns the patient's finalized vitals, newest first.
func (s *Service) FindByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*VitalHistory, int, error) {
	return s.repo.ListFinalizedByPatient(ctx, patientID, limit, offset)
}

// FindByAppointment returns every entry for an appointment, drafts included.
func (s *Service) FindByAppointment(ctx context.Context, appointmentID uuid.UUID) ([]*VitalHistory, error) {
	return s.repo.ListByAppointment(ctx, appointmentID)
}
