// Package audit records field-level diffs for regulated mutations in an
// append-only ledger.
package audit

import (
	"time"

	"github.com/google/uuid"
)

// FieldChange is the before/after pair stored for one changed field.
type FieldChange struct {
	Old interface{} `json:"old"`
	New interface{} `json:"new"`
}

// Changes maps field name to its before/after pair. Serialized to jsonb;
// times are stored as RFC 3339 strings, numbers as numbers.
type Changes map[string]FieldChange

// Entry maps to the audit_log table. Rows are append-only and reference
// entities by id only.
type Entry struct {
	ID          uuid.UUID `db:"id" json:"id"`
	EntityType  string    `db:"entity_type" json:"entity_type"`
	EntityID    uuid.UUID `db:"entity_id" json:"entity_id"`
	Action      string    `db:"action" json:"action"`
	PerformedBy uuid.UUID `db:"performed_by" json:"performed_by"`
	Changes     Changes   `db:"changes" json:"changes"`
	Reason      *string   `db:"reason" json:"reason,omitempty"`
	PerformedAt time.Time `db:"performed_at" json:"performed_at"`
}
