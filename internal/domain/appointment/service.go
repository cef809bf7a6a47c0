package appointment

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Flinguee75/MEDECINE-APP-sub001/internal/domain/access"
	"github.com/Flinguee75/MEDECINE-APP-sub001/internal/domain/audit"
	"github.com/Flinguee75/MEDECINE-APP-sub001/internal/domain/vitals"
	"github.com/Flinguee75/MEDECINE-APP-sub001/internal/domain/workflow"
	"github.com/Flinguee75/MEDECINE-APP-sub001/internal/platform/db"
)

const maxConsultationNotes = 10000

// UserDirectory resolves an actor to its directory role.
type UserDirectory interface {
	RoleOf(ctx context.Context, id uuid.UUID) (access.Role, error)
}

// PatientDirectory answers patient existence checks.
type PatientDirectory interface {
	PatientExists(ctx context.Context, id uuid.UUID) (bool, error)
}

// AuditRecorder appends diff entries to the audit ledger.
type AuditRecorder interface {
	Record(ctx context.Context, e *audit.Entry) error
}

type Service struct {
	repo     Repository
	users    UserDirectory
	patients PatientDirectory
	audit    AuditRecorder
	tx       db.TxRunner
}

func NewService(repo Repository, users UserDirectory, patients PatientDirectory, auditRec AuditRecorder, tx db.TxRunner) *Service {
	return &Service{repo: repo, users: users, patients: patients, audit: auditRec, tx: tx}
}

// Create schedules a new appointment.
func (s *Service) Create(ctx context.Context, a *Appointment, actorID uuid.UUID) (*Appointment, error) {
	role, err := s.users.RoleOf(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if !access.Allowed(role, access.OpAppointmentCreate) {
		return nil, workflow.Forbidden("role %s may not create appointments", role)
	}
	if a.ScheduledAt.IsZero() {
		return nil, workflow.Invalid("scheduled_at", "must be set")
	}
	if strings.TrimSpace(a.Reason) == "" {
		return nil, workflow.Invalid("reason", "must not be empty")
	}
	exists, err := s.patients.PatientExists(ctx, a.PatientID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, workflow.NotFound("patient", a.PatientID.String())
	}
	doctorRole, err := s.users.RoleOf(ctx, a.DoctorID)
	if err != nil {
		return nil, err
	}
	if doctorRole != access.RoleDoctor {
		return nil, workflow.Invalid("doctor_id", "user %s is not a doctor", a.DoctorID)
	}

	a.Status = StatusScheduled
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// CheckIn marks the patient's arrival.
func (s *Service) CheckIn(ctx context.Context, id, actorID uuid.UUID) (*Appointment, error) {
	a, _, err := s.load(ctx, id, actorID, access.OpAppointmentCheckIn, "check in appointments")
	if err != nil {
		return nil, err
	}
	if a.Status != StatusScheduled {
		return nil, workflow.RequiresStatus("appointment", string(StatusScheduled), string(a.Status))
	}
	now := time.Now().UTC()
	a.CheckedInAt = &now
	a.Status = StatusCheckedIn
	return s.commit(ctx, a, StatusScheduled, actorID, true)
}

// RequestVitals asks the nursing staff for a vitals capture. Repeated calls
// overwrite the previous request stamps.
func (s *Service) RequestVitals(ctx context.Context, id, actorID uuid.UUID) (*Appointment, error) {
	a, _, err := s.load(ctx, id, actorID, access.OpAppointmentRequestVitals, "request vitals")
	if err != nil {
		return nil, err
	}
	if a.Status != StatusCheckedIn {
		return nil, workflow.RequiresStatus("appointment", string(StatusCheckedIn), string(a.Status))
	}
	now := time.Now().UTC()
	a.VitalsRequestedAt = &now
	a.VitalsRequestedBy = &actorID
	return s.commit(ctx, a, StatusCheckedIn, actorID, false)
}

// EnterVitals stores the vitals snapshot on the appointment and clears any
// outstanding request. The status stays CHECKED_IN; moving into consultation
// is the doctor's explicit call.
func (s *Service) EnterVitals(ctx context.Context, id uuid.UUID, m *vitals.Measurements, historyNotes *string, actorID uuid.UUID) (*Appointment, error) {
	a, _, err := s.load(ctx, id, actorID, access.OpAppointmentEnterVitals, "enter vitals")
	if err != nil {
		return nil, err
	}
	if a.Status != StatusCheckedIn {
		return nil, workflow.RequiresStatus("appointment", string(StatusCheckedIn), string(a.Status))
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	if m.IsEmpty() {
		return nil, workflow.Invalid("vitals", "at least one measurement is required")
	}
	now := time.Now().UTC()
	a.Vitals = m
	a.MedicalHistoryNotes = historyNotes
	a.VitalsEnteredAt = &now
	a.VitalsEnteredBy = &actorID
	a.VitalsRequestedAt = nil
	a.VitalsRequestedBy = nil
	return s.commit(ctx, a, StatusCheckedIn, actorID, false)
}

// BeginConsultation moves the visit into consultation. Assigned doctor only.
func (s *Service) BeginConsultation(ctx context.Context, id, actorID uuid.UUID) (*Appointment, error) {
	a, role, err := s.load(ctx, id, actorID, access.OpAppointmentConsult, "consult")
	if err != nil {
		return nil, err
	}
	if err := s.requireAssignedDoctor(a, actorID, role); err != nil {
		return nil, err
	}
	if a.Status != StatusCheckedIn {
		return nil, workflow.RequiresStatus("appointment", string(StatusCheckedIn), string(a.Status))
	}
	a.Status = StatusInConsultation
	return s.commit(ctx, a, StatusCheckedIn, actorID, true)
}

// MarkWaitingResults parks the consultation while exam results are pending.
func (s *Service) MarkWaitingResults(ctx context.Context, id, actorID uuid.UUID) (*Appointment, error) {
	a, role, err := s.load(ctx, id, actorID, access.OpAppointmentConsult, "consult")
	if err != nil {
		return nil, err
	}
	if err := s.requireAssignedDoctor(a, actorID, role); err != nil {
		return nil, err
	}
	if a.Status != StatusInConsultation {
		return nil, workflow.RequiresStatus("appointment", string(StatusInConsultation), string(a.Status))
	}
	a.Status = StatusWaitingResults
	return s.commit(ctx, a, StatusInConsultation, actorID, true)
}

// CompleteConsultation records the final consultation notes and clears any
// draft.
func (s *Service) CompleteConsultation(ctx context.Context, id uuid.UUID, notes string, actorID uuid.UUID) (*Appointment, error) {
	a, role, err := s.load(ctx, id, actorID, access.OpAppointmentConsult, "consult")
	if err != nil {
		return nil, err
	}
	if err := s.requireAssignedDoctor(a, actorID, role); err != nil {
		return nil, err
	}
	if a.Status != StatusInConsultation && a.Status != StatusWaitingResults {
		return nil, workflow.RequiresStatus("appointment", string(StatusInConsultation), string(a.Status))
	}
	if strings.TrimSpace(notes) == "" {
		return nil, workflow.Invalid("consultation_notes", "must not be empty")
	}
	if len(notes) > maxConsultationNotes {
		return nil, workflow.Invalid("consultation_notes", "must not exceed %d characters", maxConsultationNotes)
	}
	from := a.Status
	now := time.Now().UTC()
	a.ConsultationNotes = &notes
	a.DraftConsultationNotes = nil
	a.IsDraftConsultation = false
	a.ConsultedAt = &now
	a.ConsultedBy = &actorID
	a.Status = StatusConsultationCompleted
	return s.commit(ctx, a, from, actorID, true)
}

// Close completes the visit with billing information.
func (s *Service) Close(ctx context.Context, id uuid.UUID, amount float64, billingStatus string, actorID uuid.UUID) (*Appointment, error) {
	a, _, err := s.load(ctx, id, actorID, access.OpAppointmentClose, "close appointments")
	if err != nil {
		return nil, err
	}
	if a.Status != StatusConsultationCompleted {
		return nil, workflow.RequiresStatus("appointment", string(StatusConsultationCompleted), string(a.Status))
	}
	if amount < 0 {
		return nil, workflow.Invalid("billing_amount", "must not be negative")
	}
	if strings.TrimSpace(billingStatus) == "" {
		return nil, workflow.Invalid("billing_status", "must not be empty")
	}
	now := time.Now().UTC()
	a.BillingAmount = &amount
	a.BillingStatus = &billingStatus
	a.ClosedAt = &now
	a.ClosedBy = &actorID
	a.Status = StatusCompleted
	return s.commit(ctx, a, StatusConsultationCompleted, actorID, true)
}

// AutoSaveConsultationNotes saves a notes draft during the consultation.
// Only the assigned doctor writes drafts; the last write wins.
func (s *Service) AutoSaveConsultationNotes(ctx context.Context, id uuid.UUID, notes string, actorID uuid.UUID) (*Appointment, error) {
	a, role, err := s.load(ctx, id, actorID, access.OpAppointmentConsult, "consult")
	if err != nil {
		return nil, err
	}
	if err := s.requireAssignedDoctor(a, actorID, role); err != nil {
		return nil, err
	}
	if a.Status != StatusInConsultation && a.Status != StatusWaitingResults {
		return nil, workflow.RequiresStatus("appointment", string(StatusInConsultation), string(a.Status))
	}
	now := time.Now().UTC()
	a.DraftConsultationNotes = &notes
	a.IsDraftConsultation = true
	a.LastAutoSaveAt = &now
	return s.commit(ctx, a, a.Status, actorID, false)
}

// UpdateChanges carries the editable fields of an audited update. Nil fields
// stay untouched.
type UpdateChanges struct {
	ScheduledAt *time.Time
	Reason      *string
	DoctorID    *uuid.UUID
}

// UpdateWithAudit applies administrative changes and appends exactly one
// audit entry holding the field-level diff. An update that changes nothing
// returns the entity without writing anything.
func (s *Service) UpdateWithAudit(ctx context.Context, id uuid.UUID, changes UpdateChanges, reason *string, actorID uuid.UUID) (*Appointment, error) {
	a, _, err := s.load(ctx, id, actorID, access.OpAppointmentUpdate, "update appointments")
	if err != nil {
		return nil, err
	}
	switch a.Status {
	case StatusInConsultation, StatusWaitingResults, StatusConsultationCompleted, StatusCompleted:
		return nil, workflow.InvalidTransition("appointment", string(a.Status), "UPDATE")
	}

	oldFields := map[string]interface{}{
		"scheduled_at": a.ScheduledAt,
		"reason":       a.Reason,
		"doctor_id":    a.DoctorID.String(),
	}
	if changes.ScheduledAt != nil {
		a.ScheduledAt = *changes.ScheduledAt
	}
	if changes.Reason != nil {
		if strings.TrimSpace(*changes.Reason) == "" {
			return nil, workflow.Invalid("reason", "must not be empty")
		}
		a.Reason = *changes.Reason
	}
	if changes.DoctorID != nil && *changes.DoctorID != a.DoctorID {
		doctorRole, err := s.users.RoleOf(ctx, *changes.DoctorID)
		if err != nil {
			return nil, err
		}
		if doctorRole != access.RoleDoctor {
			return nil, workflow.Invalid("doctor_id", "user %s is not a doctor", *changes.DoctorID)
		}
		a.DoctorID = *changes.DoctorID
	}
	newFields := map[string]interface{}{
		"scheduled_at": a.ScheduledAt,
		"reason":       a.Reason,
		"doctor_id":    a.DoctorID.String(),
	}

	diff := audit.Diff(oldFields, newFields)
	if len(diff) == 0 {
		return a, nil
	}

	from := a.Status
	now := time.Now().UTC()
	a.ModificationCount++
	a.ModifiedBy = &actorID
	a.ModifiedAt = &now

	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		ok, err := s.repo.UpdateIfStatus(ctx, a, from)
		if err != nil {
			return err
		}
		if !ok {
			return s.conflict(ctx, id, from)
		}
		return s.audit.Record(ctx, &audit.Entry{
			EntityType:  "appointment",
			EntityID:    a.ID,
			Action:      "UPDATE",
			PerformedBy: actorID,
			Changes:     diff,
			Reason:      reason,
		})
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

// Cancel marks the appointment CANCELLED. The row is kept; cancelling twice
// is a no-op.
func (s *Service) Cancel(ctx context.Context, id, actorID uuid.UUID) (*Appointment, error) {
	a, _, err := s.load(ctx, id, actorID, access.OpAppointmentCancel, "cancel appointments")
	if err != nil {
		return nil, err
	}
	if a.Status == StatusCancelled {
		return a, nil
	}
	from := a.Status
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.repo.SetStatus(ctx, id, StatusCancelled); err != nil {
			return err
		}
		return s.repo.AddStatusHistory(ctx, &StatusHistory{
			AppointmentID: id,
			FromStatus:    from,
			ToStatus:      StatusCancelled,
			ChangedBy:     actorID,
		})
	})
	if err != nil {
		return nil, err
	}
	a.Status = StatusCancelled
	return a, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]*Appointment, int, error) {
	return s.repo.List(ctx, limit, offset)
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	return s.repo.ListByPatient(ctx, patientID, limit, offset)
}

func (s *Service) ListByDoctor(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	return s.repo.ListByDoctor(ctx, doctorID, limit, offset)
}

func (s *Service) StatusHistory(ctx context.Context, id uuid.UUID) ([]*StatusHistory, error) {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return s.repo.GetStatusHistory(ctx, id)
}

// PatientOf resolves an appointment to its patient. Used by the vitals draft
// store.
func (s *Service) PatientOf(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return uuid.Nil, err
	}
	return a.PatientID, nil
}

// Ref resolves an appointment to its patient and doctor. Used by the
// prescription engine's creation checks.
func (s *Service) Ref(ctx context.Context, id uuid.UUID) (patientID, doctorID uuid.UUID, err error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	return a.PatientID, a.DoctorID, nil
}

func (s *Service) load(ctx context.Context, id, actorID uuid.UUID, op access.Operation, verb string) (*Appointment, access.Role, error) {
	role, err := s.users.RoleOf(ctx, actorID)
	if err != nil {
		return nil, "", err
	}
	if !access.Allowed(role, op) {
		return nil, "", workflow.Forbidden("role %s may not %s", role, verb)
	}
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, "", err
	}
	return a, role, nil
}

func (s *Service) requireAssignedDoctor(a *Appointment, actorID uuid.UUID, role access.Role) error {
	if role == access.RoleAdmin {
		return nil
	}
	if a.DoctorID != actorID {
		return workflow.Forbidden("only the assigned doctor may act on this appointment")
	}
	return nil
}

// commit persists a mutated appointment with optimistic status locking and
// appends a history row when the status changed.
func (s *Service) commit(ctx context.Context, a *Appointment, expected Status, actorID uuid.UUID, statusChanged bool) (*Appointment, error) {
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		ok, err := s.repo.UpdateIfStatus(ctx, a, expected)
		if err != nil {
			return err
		}
		if !ok {
			return s.conflict(ctx, a.ID, expected)
		}
		if !statusChanged {
			return nil
		}
		return s.repo.AddStatusHistory(ctx, &StatusHistory{
			AppointmentID: a.ID,
			FromStatus:    expected,
			ToStatus:      a.Status,
			ChangedBy:     actorID,
		})
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

// conflict resolves a lost conditional update into a transition error against
// the row's current status.
func (s *Service) conflict(ctx context.Context, id uuid.UUID, expected Status) error {
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	return workflow.RequiresStatus("appointment", string(expected), string(current.Status))
}
