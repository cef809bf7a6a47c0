package directory

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/Flinguee75/MEDECINE-APP-sub001/internal/domain/access"
)

type Service struct {
	users    UserRepository
	patients PatientRepository
}

func NewService(users UserRepository, patients PatientRepository) *Service {
	return &Service{users: users, patients: patients}
}

// RoleOf resolves a user id to its directory role.
func (s *Service) RoleOf(ctx context.Context, id uuid.UUID) (access.Role, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	if !access.Valid(u.Role) {
		return "", fmt.Errorf("user %s has unknown role %q", id, u.Role)
	}
	return u.Role, nil
}

func (s *Service) GetUser(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.users.GetByID(ctx, id)
}

func (s *Service) ListUsers(ctx context.Context, limit, offset int) ([]*User, int, error) {
	return s.users.List(ctx, limit, offset)
}

// PatientExists reports whether a patient id resolves.
func (s *Service) PatientExists(ctx context.Context, id uuid.UUID) (bool, error) {
	return s.patients.Exists(ctx, id)
}

func (s *Service) GetPatient(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return s.patients.GetByID(ctx, id)
}
