package directory

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/Flinguee75/MEDECINE-APP-sub001/internal/domain/access"
	"github.com/Flinguee75/MEDECINE-APP-sub001/internal/domain/workflow"
)

type mockUserRepo struct {
	users map[uuid.UUID]*User
}

func (m *mockUserRepo) GetByID(_ context.Context, id uuid.UUID) (*User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, workflow.NotFound("user", id.String())
	}
	return u, nil
}

func (m *mockUserRepo) List(_ context.Context, limit, offset int) ([]*User, int, error) {
	var result []*User
	for _, u := range m.users {
		result = append(result, u)
	}
	return result, len(result), nil
}

type mockPatientRepo struct {
	patients map[uuid.UUID]*Patient
}

func (m *mockPatientRepo) GetByID(_ context.Context, id uuid.UUID) (*Patient, error) {
	p, ok := m.patients[id]
	if !ok {
		return nil, workflow.NotFound("patient", id.String())
	}
	return p, nil
}

func (m *mockPatientRepo) Exists(_ context.Context, id uuid.UUID) (bool, error) {
	_, ok := m.patients[id]
	return ok, nil
}

func TestRoleOf(t *testing.T) {
	doctorID := uuid.New()
	svc := NewService(
		&mockUserRepo{users: map[uuid.UUID]*User{
			doctorID: {ID: doctorID, Name: "Dr. Diallo", Role: access.RoleDoctor},
		}},
		&mockPatientRepo{patients: map[uuid.UUID]*Patient{}},
	)

	role, err := svc.RoleOf(context.Background(), doctorID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if role != access.RoleDoctor {
		t.Errorf("expected DOCTOR, got %s", role)
	}
}

func TestRoleOf_UnknownUser(t *testing.T) {
	svc := NewService(&mockUserRepo{users: map[uuid.UUID]*User{}}, &mockPatientRepo{})
	_, err := svc.RoleOf(context.Background(), uuid.New())
	if !workflow.IsNotFound(err) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestRoleOf_InvalidRole(t *testing.T) {
	id := uuid.New()
	svc := NewService(
		&mockUserRepo{users: map[uuid.UUID]*User{
			id: {ID: id, Name: "Broken", Role: access.Role("INTERN")},
		}},
		&mockPatientRepo{},
	)
	if _, err := svc.RoleOf(context.Background(), id); err == nil {
		t.Error("expected error for unknown role token")
	}
}

func TestPatientExists(t *testing.T) {
	pid := uuid.New()
	svc := NewService(&mockUserRepo{}, &mockPatientRepo{patients: map[uuid.UUID]*Patient{
		pid: {ID: pid, FirstName: "Awa", LastName: "Ba"},
	}})

	ok, err := svc.PatientExists(context.Background(), pid)
	if err != nil || !ok {
		t.Errorf("expected patient to exist, got %v/%v", ok, err)
	}
	ok, err = svc.PatientExists(context.Background(), uuid.New())
	if err != nil || ok {
		t.Errorf("expected patient to be absent, got %v/%v", ok, err)
	}
}
