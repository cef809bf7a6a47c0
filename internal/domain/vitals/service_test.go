package vitals

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/Flinguee75/MEDECINE-APP-sub001/internal/domain/access"
	"github.com/Flinguee75/MEDECINE-APP-sub001/internal/domain/workflow"
)

type mockRepo struct {
	rows map[uuid.UUID]*VitalHistory
}

func newMockRepo() *mockRepo {
	return &mockRepo{rows: make(map[uuid.UUID]*VitalHistory)}
}

func (m *mockRepo) Create(_ context.Context, v *VitalHistory) error {
	v.ID = uuid.New()
	cp := *v
	m.rows[v.ID] = &cp
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*VitalHistory, error) {
	v, ok := m.rows[id]
	if !ok {
		return nil, workflow.NotFound("vitals", id.String())
	}
	cp := *v
	return &cp, nil
}

func (m *mockRepo) GetDraft(_ context.Context, appointmentID, enteredBy uuid.UUID) (*VitalHistory, error) {
	for _, v := range m.rows {
		if v.AppointmentID == appointmentID && v.EnteredBy == enteredBy && v.IsDraft {
			cp := *v
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *mockRepo) UpdateDraft(_ context.Context, v *VitalHistory) error {
	stored, ok := m.rows[v.ID]
	if !ok || !stored.IsDraft {
		return workflow.NotFound("vitals draft", v.ID.String())
	}
	cp := *v
	m.rows[v.ID] = &cp
	return nil
}

func (m *mockRepo) Finalize(_ context.Context, id uuid.UUID) (bool, error) {
	v, ok := m.rows[id]
	if !ok || !v.IsDraft {
		return false, nil
	}
	v.IsDraft = false
	v.ActionType = ActionCreated
	return true, nil
}

func (m *mockRepo) AmendFinalized(_ context.Context, v *VitalHistory) (bool, error) {
	stored, ok := m.rows[v.ID]
	if !ok || stored.IsDraft {
		return false, nil
	}
	cp := *v
	cp.ActionType = ActionUpdated
	m.rows[v.ID] = &cp
	return true, nil
}

func (m *mockRepo) ListFinalizedByPatient(_ context.Context, patientID uuid.UUID, limit, offset int) ([]*VitalHistory, int, error) {
	var out []*VitalHistory
	for _, v := range m.rows {
		if v.PatientID == patientID && !v.IsDraft {
			out = append(out, v)
		}
	}
	return out, len(out), nil
}

func (m *mockRepo) ListByAppointment(_ context.Context, appointmentID uuid.UUID) ([]*VitalHistory, error) {
	var out []*VitalHistory
	for _, v := range m.rows {
		if v.AppointmentID == appointmentID {
			out = append(out, v)
		}
	}
	return out, nil
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

type mockAppointments struct {
	patients map[uuid.UUID]uuid.UUID
}

func (m *mockAppointments) PatientOf(_ context.Context, appointmentID uuid.UUID) (uuid.UUID, error) {
	p, ok := m.patients[appointmentID]
	if !ok {
		return uuid.Nil, workflow.NotFound("appointment", appointmentID.String())
	}
	return p, nil
}

type fixture struct {
	svc           *Service
	repo          *mockRepo
	nurse         uuid.UUID
	doctor        uuid.UUID
	secretary     uuid.UUID
	appointmentID uuid.UUID
	patientID     uuid.UUID
}

func newFixture() *fixture {
	f := &fixture{
		repo:          newMockRepo(),
		nurse:         uuid.New(),
		doctor:        uuid.New(),
		secretary:     uuid.New(),
		appointmentID: uuid.New(),
		patientID:     uuid.New(),
	}
	users := &mockUsers{roles: map[uuid.UUID]access.Role{
		f.nurse:     access.RoleNurse,
		f.doctor:    access.RoleDoctor,
		f.secretary: access.RoleSecretary,
	}}
	appts := &mockAppointments{patients: map[uuid.UUID]uuid.UUID{
		f.appointmentID: f.patientID,
	}}
	f.svc = NewService(f.repo, users, appts)
	return f
}

func TestAutoSave_CreatesDraft(t *testing.T) {
	fx := newFixture()
	m := &Measurements{TemperatureC: f(37.0)}

	v, err := fx.svc.AutoSave(context.Background(), fx.appointmentID, fx.nurse, m, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !v.IsDraft {
		t.Error("expected a draft")
	}
	if v.ActionType != ActionAutoSaved {
		t.Errorf("expected action %s, got %s", ActionAutoSaved, v.ActionType)
	}
	if v.PatientID != fx.patientID {
		t.Error("expected patient id resolved from appointment")
	}
}

func TestAutoSave_TwiceKeepsOneDraft(t *testing.T) {
	fx := newFixture()

	first, err := fx.svc.AutoSave(context.Background(), fx.appointmentID, fx.nurse, &Measurements{TemperatureC: f(37.0)}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := fx.svc.AutoSave(context.Background(), fx.appointmentID, fx.nurse, &Measurements{TemperatureC: f(38.2)}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.ID != second.ID {
		t.Error("expected the same draft row to be overwritten")
	}
	if len(fx.repo.rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(fx.repo.rows))
	}
	stored, _ := fx.repo.GetByID(context.Background(), first.ID)
	if *stored.Measurements.TemperatureC != 38.2 {
		t.Error("expected last write to win")
	}
}

func TestAutoSave_SeparateDraftsPerActor(t *testing.T) {
	fx := newFixture()

	a, _ := fx.svc.AutoSave(context.Background(), fx.appointmentID, fx.nurse, &Measurements{TemperatureC: f(37.0)}, nil)
	b, err := fx.svc.AutoSave(context.Background(), fx.appointmentID, fx.doctor, &Measurements{TemperatureC: f(37.5)}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.ID == b.ID {
		t.Error("expected distinct drafts per actor")
	}
}

func TestAutoSave_ForbiddenRole(t *testing.T) {
	fx := newFixture()
	_, err := fx.svc.AutoSave(context.Background(), fx.appointmentID, fx.secretary, &Measurements{TemperatureC: f(37.0)}, nil)
	if !workflow.IsForbidden(err) {
		t.Errorf("expected forbidden, got %v", err)
	}
}

func TestAutoSave_InvalidMeasurement(t *testing.T) {
	fx := newFixture()
	_, err := fx.svc.AutoSave(context.Background(), fx.appointmentID, fx.nurse, &Measurements{TemperatureC: f(50)}, nil)
	if !workflow.IsValidation(err) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestAutoSave_EmptyPayload(t *testing.T) {
	fx := newFixture()
	_, err := fx.svc.AutoSave(context.Background(), fx.appointmentID, fx.nurse, &Measurements{}, nil)
	if !workflow.IsValidation(err) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestAutoSave_UnknownAppointment(t *testing.T) {
	fx := newFixture()
	_, err := fx.svc.AutoSave(context.Background(), uuid.New(), fx.nurse, &Measurements{TemperatureC: f(37.0)}, nil)
	if !workflow.IsNotFound(err) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestFinalize(t *testing.T) {
	fx := newFixture()
	draft, _ := fx.svc.AutoSave(context.Background(), fx.appointmentID, fx.nurse, &Measurements{TemperatureC: f(37.0)}, nil)

	v, err := fx.svc.Finalize(context.Background(), draft.ID, fx.nurse)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.IsDraft {
		t.Error("expected finalized entry")
	}
	if v.ActionType != ActionCreated {
		t.Errorf("expected action %s, got %s", ActionCreated, v.ActionType)
	}
}

func TestFinalize_OnlyAuthor(t *testing.T) {
	fx := newFixture()
	draft, _ := fx.svc.AutoSave(context.Background(), fx.appointmentID, fx.nurse, &Measurements{TemperatureC: f(37.0)}, nil)

	_, err := fx.svc.Finalize(context.Background(), draft.ID, fx.doctor)
	if !workflow.IsForbidden(err) {
		t.Errorf("expected forbidden, got %v", err)
	}
}

func TestFinalize_OneWay(t *testing.T) {
	fx := newFixture()
	draft, _ := fx.svc.AutoSave(context.Background(), fx.appointmentID, fx.nurse, &Measurements{TemperatureC: f(37.0)}, nil)
	if _, err := fx.svc.Finalize(context.Background(), draft.ID, fx.nurse); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err := fx.svc.Finalize(context.Background(), draft.ID, fx.nurse)
	if !workflow.IsInvalidTransition(err) {
		t.Errorf("expected invalid transition, got %v", err)
	}
}

func TestAmend_CorrectsFinalizedRecord(t *testing.T) {
	fx := newFixture()
	draft, _ := fx.svc.AutoSave(context.Background(), fx.appointmentID, fx.nurse, &Measurements{TemperatureC: f(37.0)}, nil)
	fx.svc.Finalize(context.Background(), draft.ID, fx.nurse)

	v, err := fx.svc.Amend(context.Background(), draft.ID, fx.nurse, &Measurements{TemperatureC: f(38.4)}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.ActionType != ActionUpdated {
		t.Errorf("expected action %s, got %s", ActionUpdated, v.ActionType)
	}
	if *v.Measurements.TemperatureC != 38.4 {
		t.Error("expected corrected measurement stored")
	}
	if v.IsDraft {
		t.Error("amended record must stay finalized")
	}
}

func TestAmend_RejectsDraft(t *testing.T) {
	fx := newFixture()
	draft, _ := fx.svc.AutoSave(context.Background(), fx.appointmentID, fx.nurse, &Measurements{TemperatureC: f(37.0)}, nil)

	_, err := fx.svc.Amend(context.Background(), draft.ID, fx.nurse, &Measurements{TemperatureC: f(38.0)}, nil)
	if !workflow.IsInvalidTransition(err) {
		t.Errorf("expected invalid transition, got %v", err)
	}
}

func TestAmend_OnlyAuthor(t *testing.T) {
	fx := newFixture()
	draft, _ := fx.svc.AutoSave(context.Background(), fx.appointmentID, fx.nurse, &Measurements{TemperatureC: f(37.0)}, nil)
	fx.svc.Finalize(context.Background(), draft.ID, fx.nurse)

	_, err := fx.svc.Amend(context.Background(), draft.ID, fx.doctor, &Measurements{TemperatureC: f(38.0)}, nil)
	if !workflow.IsForbidden(err) {
		t.Errorf("expected forbidden, got %v", err)
	}
}

func TestFindByPatient_ExcludesDrafts(t *testing.T) {
	fx := newFixture()
	draft, _ := fx.svc.AutoSave(context.Background(), fx.appointmentID, fx.nurse, &Measurements{TemperatureC: f(37.0)}, nil)

	vitals, total, err := fx.svc.FindByPatient(context.Background(), fx.patientID, 20, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 0 || len(vitals) != 0 {
		t.Error("drafts must not appear in patient history")
	}

	fx.svc.Finalize(context.Background(), draft.ID, fx.nurse)
	vitals, total, _ = fx.svc.FindByPatient(context.Background(), fx.patientID, 20, 0)
	if total != 1 || len(vitals) != 1 {
		t.Errorf("expected 1 finalized entry, got %d/%d", len(vitals), total)
	}
}

func TestFindByAppointment_IncludesDrafts(t *testing.T) {
	fx := newFixture()
	fx.svc.AutoSave(context.Background(), fx.appointmentID, fx.nurse, &Measurements{TemperatureC: f(37.0)}, nil)

	vitals, err := fx.svc.FindByAppointment(context.Background(), fx.appointmentID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(vitals) != 1 {
		t.Errorf("expected draft to be listed, got %d entries", len(vitals))
	}
}
