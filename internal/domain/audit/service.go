package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Record appends one entry to the ledger. Callers invoke it inside the same
// transaction as the mutation the entry describes; entries with an empty diff
// are rejected so no-op edits never pollute the trail.
func (s *Service) Record(ctx context.Context, e *Entry) error {
	if e.EntityType == "" {
		return fmt.Errorf("entity_type is required")
	}
	if e.EntityID == uuid.Nil {
		return fmt.Errorf("entity_id is required")
	}
	if e.Action == "" {
		return fmt.Errorf("action is required")
	}
	if e.PerformedBy == uuid.Nil {
		return fmt.Errorf("performed_by is required")
	}
	if len(e.Changes) == 0 {
		return fmt.Errorf("changes must not be empty")
	}
	if e.PerformedAt.IsZero() {
		e.PerformedAt = time.Now().UTC()
	}
	return s.repo.Append(ctx, e)
}

func (s *Service) QueryByEntity(ctx context.Context, entityType string, entityID uuid.UUID) ([]*Entry, error) {
	return s.repo.ListByEntity(ctx, entityType, entityID)
}

func (s *Service) QueryByActor(ctx context.Context, actorID uuid.UUID, limit, offset int) ([]*Entry, int, error) {
	return s.repo.ListByActor(ctx, actorID, limit, offset)
}
