package prescription

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/Flinguee75/MEDECINE-APP-sub001/internal/domain/access"
	"github.com/Flinguee75/MEDECINE-APP-sub001/internal/domain/workflow"
)

type mockRepo struct {
	rows map[uuid.UUID]*Prescription
}

func newMockRepo() *mockRepo {
	return &mockRepo{rows: make(map[uuid.UUID]*Prescription)}
}

func (m *mockRepo) Create(_ context.Context, p *Prescription) error {
	p.ID = uuid.New()
	cp := *p
	m.rows[p.ID] = &cp
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Prescription, error) {
	p, ok := m.rows[id]
	if !ok {
		return nil, workflow.NotFound("prescription", id.String())
	}
	cp := *p
	return &cp, nil
}

func (m *mockRepo) ListByPatient(_ context.Context, patientID uuid.UUID, limit, offset int) ([]*Prescription, int, error) {
	var out []*Prescription
	for _, p := range m.rows {
		if p.PatientID == patientID {
			out = append(out, p)
		}
	}
	return out, len(out), nil
}

func (m *mockRepo) ListByDoctor(_ context.Context, doctorID uuid.UUID, limit, offset int) ([]*Prescription, int, error) {
	var out []*Prescription
	for _, p := range m.rows {
		if p.DoctorID == doctorID {
			out = append(out, p)
		}
	}
	return out, len(out), nil
}

func (m *mockRepo) UpdateStatus(_ context.Context, id uuid.UUID, from, to Status) (bool, error) {
	p, ok := m.rows[id]
	if !ok || p.Status != from {
		return false, nil
	}
	p.Status = to
	return true, nil
}

func (m *mockRepo) CollectSample(_ context.Context, id, nurseID uuid.UUID) (bool, error) {
	p, ok := m.rows[id]
	if !ok || p.Status != StatusSentToLab {
		return false, nil
	}
	now := time.Now().UTC()
	p.SampleCollectedAt = &now
	p.NurseID = &nurseID
	return true, nil
}

func (m *mockRepo) StartAnalysis(_ context.Context, id uuid.UUID) (bool, error) {
	p, ok := m.rows[id]
	if !ok || p.Status != StatusSentToLab || p.SampleCollectedAt == nil {
		return false, nil
	}
	p.Status = StatusInProgress
	now := time.Now().UTC()
	p.AnalysisStartedAt = &now
	return true, nil
}

type mockUsers struct {
	roles map[uuid.UUID]access.Role
}

func (m *mockUsers) RoleOf(_ context.Context, id uuid.UUID) (access.Role, error) {
	r, ok := m.roles[id]
	if !ok {
		return "", workflow.NotFound("user", id.String())
	}
	return r, nil
}

type mockPatients struct {
	known map[uuid.UUID]bool
}

func (m *mockPatients) PatientExists(_ context.Context, id uuid.UUID) (bool, error) {
	return m.known[id], nil
}

type mockAppointments struct {
	refs map[uuid.UUID]AppointmentRef
}

func (m *mockAppointments) Ref(_ context.Context, id uuid.UUID) (AppointmentRef, error) {
	ref, ok := m.refs[id]
	if !ok {
		return AppointmentRef{}, workflow.NotFound("appointment", id.String())
	}
	return ref, nil
}

type fixture struct {
	svc       *Service
	repo      *mockRepo
	appts     *mockAppointments
	doctor    uuid.UUID
	otherDoc  uuid.UUID
	nurse     uuid.UUID
	secretary uuid.UUID
	biologist uuid.UUID
	admin     uuid.UUID
	patientID uuid.UUID
}

func newFixture() *fixture {
	f := &fixture{
		repo:      newMockRepo(),
		doctor:    uuid.New(),
		otherDoc:  uuid.New(),
		nurse:     uuid.New(),
		secretary: uuid.New(),
		biologist: uuid.New(),
		admin:     uuid.New(),
		patientID: uuid.New(),
	}
	users := &mockUsers{roles: map[uuid.UUID]access.Role{
		f.doctor:    access.RoleDoctor,
		f.otherDoc:  access.RoleDoctor,
		f.nurse:     access.RoleNurse,
		f.secretary: access.RoleSecretary,
		f.biologist: access.RoleBiologist,
		f.admin:     access.RoleAdmin,
	}}
	patients := &mockPatients{known: map[uuid.UUID]bool{f.patientID: true}}
	f.appts = &mockAppointments{refs: map[uuid.UUID]AppointmentRef{}}
	f.svc = NewService(f.repo, users, patients, f.appts)
	return f
}

func (f *fixture) create(t *testing.T) *Prescription {
	t.Helper()
	p, err := f.svc.Create(context.Background(), &Prescription{
		PatientID: f.patientID,
		OrderText: "CBC panel",
	}, f.doctor)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	return p
}

func TestCreate(t *testing.T) {
	fx := newFixture()
	p := fx.create(t)
	if p.Status != StatusCreated {
		t.Errorf("expected status %s, got %s", StatusCreated, p.Status)
	}
	if p.DoctorID != fx.doctor {
		t.Error("expected doctor id defaulted to actor")
	}
}

func TestCreate_UnknownPatient(t *testing.T) {
	fx := newFixture()
	_, err := fx.svc.Create(context.Background(), &Prescription{
		PatientID: uuid.New(),
		OrderText: "CBC panel",
	}, fx.doctor)
	if !workflow.IsNotFound(err) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestCreate_ForbiddenRole(t *testing.T) {
	fx := newFixture()
	_, err := fx.svc.Create(context.Background(), &Prescription{
		PatientID: fx.patientID,
		OrderText: "CBC panel",
	}, fx.nurse)
	if !workflow.IsForbidden(err) {
		t.Errorf("expected forbidden, got %v", err)
	}
}

func TestCreate_AppointmentMismatch(t *testing.T) {
	fx := newFixture()
	apptID := uuid.New()
	fx.appts.refs[apptID] = AppointmentRef{PatientID: uuid.New(), DoctorID: fx.doctor}

	_, err := fx.svc.Create(context.Background(), &Prescription{
		PatientID:     fx.patientID,
		AppointmentID: &apptID,
		OrderText:     "CBC panel",
	}, fx.doctor)
	if !workflow.IsValidation(err) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestCreate_AppointmentMatch(t *testing.T) {
	fx := newFixture()
	apptID := uuid.New()
	fx.appts.refs[apptID] = AppointmentRef{PatientID: fx.patientID, DoctorID: fx.doctor}

	_, err := fx.svc.Create(context.Background(), &Prescription{
		PatientID:     fx.patientID,
		AppointmentID: &apptID,
		OrderText:     "CBC panel",
	}, fx.doctor)
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestSendToLab(t *testing.T) {
	fx := newFixture()
	p := fx.create(t)

	out, err := fx.svc.SendToLab(context.Background(), p.ID, fx.doctor)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Status != StatusSentToLab {
		t.Errorf("expected %s, got %s", StatusSentToLab, out.Status)
	}
}

func TestSendToLab_OtherDoctorForbidden(t *testing.T) {
	fx := newFixture()
	p := fx.create(t)

	_, err := fx.svc.SendToLab(context.Background(), p.ID, fx.otherDoc)
	if !workflow.IsForbidden(err) {
		t.Errorf("expected forbidden, got %v", err)
	}
}

func TestSendToLab_SecretaryAllowed(t *testing.T) {
	fx := newFixture()
	p := fx.create(t)

	if _, err := fx.svc.SendToLab(context.Background(), p.ID, fx.secretary); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestCollectSample_BeforeSendToLabFails(t *testing.T) {
	fx := newFixture()
	p := fx.create(t)

	_, err := fx.svc.CollectSample(context.Background(), p.ID, fx.nurse)
	if !workflow.IsInvalidTransition(err) {
		t.Errorf("expected transition error, got %v", err)
	}
}

func TestCollectSample(t *testing.T) {
	fx := newFixture()
	p := fx.create(t)
	fx.svc.SendToLab(context.Background(), p.ID, fx.doctor)

	out, err := fx.svc.CollectSample(context.Background(), p.ID, fx.nurse)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Status != StatusSentToLab {
		t.Errorf("collection must not change status, got %s", out.Status)
	}
	if out.SampleCollectedAt == nil || out.NurseID == nil || *out.NurseID != fx.nurse {
		t.Error("expected sample stamps")
	}
}

func TestStartAnalysis_WithoutSampleFails(t *testing.T) {
	fx := newFixture()
	p := fx.create(t)
	fx.svc.SendToLab(context.Background(), p.ID, fx.doctor)

	_, err := fx.svc.StartAnalysis(context.Background(), p.ID, fx.biologist)
	if !workflow.IsValidation(err) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestStartAnalysis(t *testing.T) {
	fx := newFixture()
	p := fx.create(t)
	fx.svc.SendToLab(context.Background(), p.ID, fx.doctor)
	fx.svc.CollectSample(context.Background(), p.ID, fx.nurse)

	out, err := fx.svc.StartAnalysis(context.Background(), p.ID, fx.biologist)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Status != StatusInProgress {
		t.Errorf("expected %s, got %s", StatusInProgress, out.Status)
	}
	if out.AnalysisStartedAt == nil {
		t.Error("expected analysis_started_at stamped")
	}
}

func TestUpdateStatus_DoctorRestrictedToSendToLab(t *testing.T) {
	fx := newFixture()
	p := fx.create(t)
	fx.svc.SendToLab(context.Background(), p.ID, fx.doctor)
	fx.svc.CollectSample(context.Background(), p.ID, fx.nurse)

	_, err := fx.svc.UpdateStatus(context.Background(), p.ID, StatusInProgress, fx.doctor)
	if !workflow.IsForbidden(err) {
		t.Errorf("expected forbidden, got %v", err)
	}
}

func TestUpdateStatus_BiologistTargets(t *testing.T) {
	fx := newFixture()
	p := fx.create(t)

	_, err := fx.svc.UpdateStatus(context.Background(), p.ID, StatusSentToLab, fx.biologist)
	if !workflow.IsForbidden(err) {
		t.Errorf("expected forbidden, got %v", err)
	}

	fx.svc.SendToLab(context.Background(), p.ID, fx.doctor)
	out, err := fx.svc.UpdateStatus(context.Background(), p.ID, StatusInProgress, fx.biologist)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Status != StatusInProgress {
		t.Errorf("expected %s, got %s", StatusInProgress, out.Status)
	}
}

func TestUpdateStatus_IllegalTransition(t *testing.T) {
	fx := newFixture()
	p := fx.create(t)

	_, err := fx.svc.UpdateStatus(context.Background(), p.ID, StatusCompleted, fx.admin)
	if !workflow.IsInvalidTransition(err) {
		t.Errorf("expected transition error, got %v", err)
	}
}

func TestAdvance(t *testing.T) {
	fx := newFixture()
	p := fx.create(t)
	fx.svc.SendToLab(context.Background(), p.ID, fx.doctor)
	fx.svc.CollectSample(context.Background(), p.ID, fx.nurse)
	fx.svc.StartAnalysis(context.Background(), p.ID, fx.biologist)

	out, err := fx.svc.Advance(context.Background(), p.ID, StatusInProgress, StatusResultsAvailable)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Status != StatusResultsAvailable {
		t.Errorf("expected %s, got %s", StatusResultsAvailable, out.Status)
	}
}

func TestAdvance_RacerLossIsConflict(t *testing.T) {
	fx := newFixture()
	p := fx.create(t)

	_, err := fx.svc.Advance(context.Background(), p.ID, StatusInProgress, StatusResultsAvailable)
	if !workflow.IsInvalidTransition(err) {
		t.Errorf("expected transition error, got %v", err)
	}
}

func TestFullLifecycle(t *testing.T) {
	fx := newFixture()
	p := fx.create(t)

	steps := []func() (*Prescription, error){
		func() (*Prescription, error) { return fx.svc.SendToLab(context.Background(), p.ID, fx.doctor) },
		func() (*Prescription, error) { return fx.svc.CollectSample(context.Background(), p.ID, fx.nurse) },
		func() (*Prescription, error) { return fx.svc.StartAnalysis(context.Background(), p.ID, fx.biologist) },
		func() (*Prescription, error) {
			return fx.svc.Advance(context.Background(), p.ID, StatusInProgress, StatusResultsAvailable)
		},
		func() (*Prescription, error) {
			return fx.svc.UpdateStatus(context.Background(), p.ID, StatusCompleted, fx.biologist)
		},
	}
	var last *Prescription
	for i, step := range steps {
		out, err := step()
		if err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		last = out
	}
	if last.Status != StatusCompleted {
		t.Errorf("expected %s, got %s", StatusCompleted, last.Status)
	}
}
